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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	_ "net/http/pprof" // #nosec G108
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blinklabs-io/tally"
	"github.com/blinklabs-io/tally/internal/config"
)

// Run starts a node from the loaded config and blocks until SIGINT or
// SIGTERM, or until ctx is cancelled
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	return run(ctx, cfg, logger, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

func run(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	registerer prometheus.Registerer,
	gatherer prometheus.Gatherer,
) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	opts, err := nodeOptions(cfg, logger, registerer)
	if err != nil {
		return err
	}
	shutdownTimeout, err := cfg.ShutdownTimeoutDuration()
	if err != nil {
		return err
	}
	n, err := tally.New(tally.NewConfig(opts...))
	if err != nil {
		return err
	}

	// Metrics and debug listener
	var metricsServer *http.Server
	if cfg.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
		// pprof registers itself on the default mux
		mux.Handle("/debug/pprof/", http.DefaultServeMux)
		metricsAddr := joinHostPort(cfg.BindAddr, cfg.MetricsPort)
		logger.Info(
			"serving prometheus metrics on "+metricsAddr,
			"component", "node",
		)
		metricsServer = &http.Server{
			Addr:              metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				logger.Error(
					fmt.Sprintf("failed to start metrics listener: %s", err),
					"component", "node",
				)
			}
		}()
	}
	shutdownMetrics := func() {
		if metricsServer == nil {
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}

	signalCtx, signalCtxStop := signal.NotifyContext(
		ctx,
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- n.Run()
	}()

	select {
	case <-signalCtx.Done():
		logger.Info("signal received, initiating graceful shutdown")
		shutdownMetrics()
		if err := n.Stop(); err != nil {
			logger.Error("shutdown errors occurred", "error", err)
			return err
		}
		if err := <-errChan; err != nil {
			return err
		}
		logger.Info("shutdown complete")
		return nil
	case err := <-errChan:
		// Run only returns early when startup fails
		logger.Error("node error", "error", err)
		shutdownMetrics()
		return err
	}
}

func nodeOptions(
	cfg *config.Config,
	logger *slog.Logger,
	registerer prometheus.Registerer,
) ([]tally.ConfigOptionFunc, error) {
	owner, err := cfg.Owner()
	if err != nil {
		return nil, err
	}
	factoryAddr, err := cfg.Factory()
	if err != nil {
		return nil, err
	}
	snapshotInterval, err := cfg.SnapshotIntervalDuration()
	if err != nil {
		return nil, err
	}
	operationTTL, err := cfg.OperationTTLDuration()
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := cfg.ShutdownTimeoutDuration()
	if err != nil {
		return nil, err
	}
	var listenAddress string
	if cfg.ApiPort > 0 {
		listenAddress = joinHostPort(cfg.BindAddr, cfg.ApiPort)
	}
	return []tally.ConfigOptionFunc{
		tally.WithLogger(logger),
		tally.WithOwner(owner),
		tally.WithFactoryAddress(factoryAddr),
		tally.WithDatabasePath(cfg.DatabasePath),
		tally.WithPrometheusRegistry(registerer),
		tally.WithListenAddress(listenAddress),
		tally.WithMinVotingAge(cfg.MinVotingAge),
		tally.WithMinCandidateAge(cfg.MinCandidateAge),
		tally.WithSnapshotInterval(snapshotInterval),
		tally.WithSnapshotRetain(cfg.SnapshotRetain),
		tally.WithOperationTTL(operationTTL),
		tally.WithShutdownTimeout(shutdownTimeout),
		tally.WithTracing(cfg.Tracing),
		tally.WithTracingStdout(cfg.TracingStdout),
	}, nil
}

func joinHostPort(host string, port uint) string {
	return net.JoinHostPort(host, strconv.FormatUint(uint64(port), 10))
}
