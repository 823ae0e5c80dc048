// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api is the HTTP relay in front of the core. It accepts signed
// operation submissions and serves read-only queries.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"connectrpc.com/grpchealth"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"golang.org/x/net/netutil"
	"go.opentelemetry.io/otel/trace"

	"github.com/blinklabs-io/tally/auth"
	"github.com/blinklabs-io/tally/credit"
	"github.com/blinklabs-io/tally/database/metadata"
	"github.com/blinklabs-io/tally/factory"
	"github.com/blinklabs-io/tally/registry"
)

const (
	DefaultListenAddress  = ":8080"
	DefaultMaxConnections = 256
	apiVersion           = "1.0.0"
	tracerName           = "github.com/blinklabs-io/tally/api"
	// larger request bodies are refused
	maxBodySize = 1 << 20
)

type ApiConfig struct {
	Logger         *slog.Logger
	PromRegistry   prometheus.Registerer
	TracerProvider trace.TracerProvider
	Registry       *registry.Registry
	Token          *credit.Token
	Factory        *factory.Factory
	Verifier       *auth.Verifier
	// Metadata is optional. Without it the audit and commitment routes
	// are not served.
	Metadata        metadata.MetadataStore
	ListenAddress   string
	ShutdownTimeout time.Duration
	// MaxConnections caps concurrently accepted connections
	MaxConnections int
}

// Api is the HTTP server
type Api struct {
	config     ApiConfig
	logger     *slog.Logger
	metrics    *apiMetrics
	tracer     trace.Tracer
	operations map[string]operationFunc
	httpServer *http.Server
	stopCh     chan struct{}
	mu         sync.Mutex
	stopping   atomic.Bool
}

func New(config ApiConfig) (*Api, error) {
	if config.Registry == nil || config.Token == nil || config.Factory == nil {
		return nil, errors.New("api: registry, token and factory must be set")
	}
	if config.Verifier == nil {
		return nil, errors.New("api: verifier must be set")
	}
	if config.ListenAddress == "" {
		config.ListenAddress = DefaultListenAddress
	}
	if config.MaxConnections <= 0 {
		config.MaxConnections = DefaultMaxConnections
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 30 * time.Second
	}
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}
	a := &Api{
		config: config,
		tracer: config.TracerProvider.Tracer(tracerName),
	}
	if config.Logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		a.logger = config.Logger
	}
	a.logger = a.logger.With("component", "api")
	a.initMetrics(config.PromRegistry)
	a.operations = a.operationTable()
	return a, nil
}

// Handler returns the API routes wrapped in the request middleware
func (a *Api) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.handleHealth)
	healthPath, healthHandler := grpchealth.NewHandler(healthChecker{api: a})
	mux.Handle("POST "+healthPath, healthHandler)
	mux.HandleFunc("GET /", a.handleRoot)
	mux.HandleFunc("POST /api/v1/operations", a.handleOperation)
	mux.HandleFunc("GET /api/v1/elections", a.handleElections)
	mux.HandleFunc("GET /api/v1/elections/{id}", a.handleElection)
	mux.HandleFunc("GET /api/v1/elections/{id}/candidates", a.handleCandidates)
	mux.HandleFunc("GET /api/v1/elections/{id}/results", a.handleResults)
	mux.HandleFunc("GET /api/v1/elections/{id}/voters/{address}", a.handleElectionVoter)
	mux.HandleFunc("GET /api/v1/voters/stats", a.handleVoterStats)
	mux.HandleFunc("GET /api/v1/voters/{address}", a.handleVoter)
	mux.HandleFunc("GET /api/v1/credit", a.handleCredit)
	mux.HandleFunc("GET /api/v1/credit/{address}", a.handleBalance)
	mux.HandleFunc("GET /api/v1/nonces/{address}", a.handleNonce)
	if a.config.Metadata != nil {
		mux.HandleFunc("GET /api/v1/audit", a.handleAudit)
		mux.HandleFunc("GET /api/v1/elections/{id}/commitments", a.handleCommitments)
	}
	return a.withRequestID(mux)
}

// Start binds the listener and serves in the background until ctx is done
// or Stop is called
func (a *Api) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.httpServer != nil {
		a.mu.Unlock()
		return errors.New("api: server already started")
	}
	server := &http.Server{
		Addr:              a.config.ListenAddress,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		a.mu.Unlock()
		return fmt.Errorf("listen for api server: %w", err)
	}
	ln = netutil.LimitListener(ln, a.config.MaxConnections)
	stopCh := make(chan struct{})
	a.stopping.Store(false)
	a.httpServer = server
	a.stopCh = stopCh
	a.mu.Unlock()

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("api server error", "error", err)
		}
	}()
	a.logger.Info("api listener started", "address", ln.Addr().String())

	go func() {
		select {
		case <-ctx.Done():
		case <-stopCh:
			return
		}
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.ShutdownTimeout)
		defer cancel()
		//nolint:contextcheck
		if err := a.Stop(shutdownCtx); err != nil {
			a.logger.Error("failed to shut down api server on context cancellation", "error", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the server. It is a no-op when not running.
func (a *Api) Stop(ctx context.Context) error {
	a.mu.Lock()
	srv := a.httpServer
	if srv != nil {
		a.stopping.Store(true)
	}
	a.httpServer = nil
	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}
	a.mu.Unlock()
	if srv == nil {
		return nil
	}
	a.logger.Debug("shutting down api server")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shut down api server: %w", err)
	}
	return nil
}
