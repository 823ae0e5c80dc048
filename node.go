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

// Package tally wires the voting core into a runnable node: the registry,
// credit token and election factory, the event bus, persistence, the
// indexer and the HTTP relay.
package tally

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/blinklabs-io/tally/api"
	"github.com/blinklabs-io/tally/auth"
	"github.com/blinklabs-io/tally/credit"
	"github.com/blinklabs-io/tally/database"
	"github.com/blinklabs-io/tally/event"
	"github.com/blinklabs-io/tally/factory"
	"github.com/blinklabs-io/tally/indexer"
	"github.com/blinklabs-io/tally/registry"
	"github.com/blinklabs-io/tally/snapshot"
)

const defaultShutdownTimeout = 30 * time.Second

type Node struct {
	eventBus       *event.EventBus
	db             *database.Database
	registry       *registry.Registry
	token          *credit.Token
	factory        *factory.Factory
	verifier       *auth.Verifier
	snapshotter    *snapshot.Snapshotter
	indexer        *indexer.Indexer
	api            *api.Api
	tracerProvider *sdktrace.TracerProvider
	shutdownFuncs  []func(context.Context) error
	config         Config
	ready          chan struct{}
	done           chan struct{}
	runMu          sync.Mutex
	started        bool
	readyOnce      sync.Once
	shutdownOnce   sync.Once
}

func New(cfg Config) (*Node, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.factoryAddress == (common.Address{}) {
		cfg.factoryAddress = crypto.CreateAddress(cfg.owner, 0)
	}
	if cfg.shutdownTimeout <= 0 {
		cfg.shutdownTimeout = defaultShutdownTimeout
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	n := &Node{
		config:   cfg,
		eventBus: event.NewEventBus(cfg.promRegistry, cfg.logger),
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}
	return n, nil
}

// Run starts every component and blocks until Stop is called. A failed
// start releases whatever was already started. Run returns at once on a
// node that was already stopped.
func (n *Node) Run() error {
	n.runMu.Lock()
	select {
	case <-n.done:
		n.runMu.Unlock()
		return nil
	default:
	}
	if n.started {
		n.runMu.Unlock()
		return errors.New("node already running")
	}
	n.started = true
	err := n.start()
	n.runMu.Unlock()
	if err != nil {
		if stopErr := n.Stop(); stopErr != nil {
			n.config.logger.Error("cleanup after failed start", "error", stopErr)
		}
		return err
	}
	n.readyOnce.Do(func() { close(n.ready) })
	<-n.done
	return nil
}

// Ready is closed once Run has started every component
func (n *Node) Ready() <-chan struct{} {
	return n.ready
}

func (n *Node) start() error {
	cfg := n.config
	if cfg.tracing {
		if err := n.setupTracing(); err != nil {
			return err
		}
	}
	db, err := database.New(&database.Config{
		DataDir:      cfg.dataDir,
		Logger:       cfg.logger,
		PromRegistry: cfg.promRegistry,
	})
	if db == nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	if err != nil {
		var tsErr database.CommitTimestampError
		if !errors.As(err, &tsErr) {
			return fmt.Errorf("failed to open database: %w", err)
		}
		// The snapshot is authoritative over the index
		cfg.logger.Warn(
			"database commit timestamps differ, metadata index may be incomplete",
			"lagging", tsErr.Lagging(),
			"error", err,
		)
	}

	n.registry, err = registry.New(registry.RegistryConfig{
		PromRegistry: cfg.promRegistry,
		Logger:       cfg.logger,
		EventBus:     n.eventBus,
		Now:          cfg.now,
		Owner:        cfg.owner,
		MinVotingAge: cfg.minVotingAge,
	})
	if err != nil {
		return fmt.Errorf("failed to create registry: %w", err)
	}
	n.token, err = credit.New(credit.TokenConfig{
		PromRegistry: cfg.promRegistry,
		Logger:       cfg.logger,
		EventBus:     n.eventBus,
		Now:          cfg.now,
		Owner:        cfg.owner,
	})
	if err != nil {
		return fmt.Errorf("failed to create credit token: %w", err)
	}
	n.factory, err = factory.New(factory.FactoryConfig{
		PromRegistry:    cfg.promRegistry,
		Logger:          cfg.logger,
		EventBus:        n.eventBus,
		Registry:        n.registry,
		Token:           n.token,
		GrantHook:       n.grantMinter,
		Now:             cfg.now,
		Owner:           cfg.owner,
		Address:         cfg.factoryAddress,
		MinCandidateAge: cfg.minCandidateAge,
	})
	if err != nil {
		return fmt.Errorf("failed to create factory: %w", err)
	}
	n.verifier = auth.NewVerifier(auth.VerifierConfig{
		Logger:       cfg.logger,
		PromRegistry: cfg.promRegistry,
		Now:          cfg.now,
		MaxTTL:       cfg.operationTTL,
	})

	n.snapshotter, err = snapshot.New(snapshot.SnapshotterConfig{
		Logger:       cfg.logger,
		PromRegistry: cfg.promRegistry,
		Database:     n.db,
		Factory:      n.factory,
		Registry:     n.registry,
		Token:        n.token,
		Verifier:     n.verifier,
		Now:          cfg.now,
		Interval:     cfg.snapshotInterval,
		Retain:       cfg.snapshotRetain,
	})
	if err != nil {
		return fmt.Errorf("failed to create snapshotter: %w", err)
	}
	if _, err := n.snapshotter.Restore(); err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}
	n.snapshotter.Start()

	// Subscribe after the restore so restored state is not indexed twice
	n.indexer, err = indexer.New(indexer.IndexerConfig{
		Logger:       cfg.logger,
		PromRegistry: cfg.promRegistry,
		EventBus:     n.eventBus,
		Metadata:     n.db.Metadata(),
		QueueSize:    cfg.indexerQueueSize,
	})
	if err != nil {
		return fmt.Errorf("failed to create indexer: %w", err)
	}
	if err := n.indexer.Start(); err != nil {
		return err
	}

	n.api, err = api.New(api.ApiConfig{
		Logger:          cfg.logger,
		PromRegistry:    cfg.promRegistry,
		TracerProvider:  n.tracerProviderOrNil(),
		Registry:        n.registry,
		Token:           n.token,
		Factory:         n.factory,
		Verifier:        n.verifier,
		Metadata:        n.db.Metadata(),
		ListenAddress:   cfg.listenAddress,
		ShutdownTimeout: cfg.shutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create api: %w", err)
	}
	if cfg.listenAddress != "" {
		if err := n.api.Start(context.Background()); err != nil {
			return err
		}
	}
	cfg.logger.Info(
		"node started",
		"owner", cfg.owner.Hex(),
		"factory", cfg.factoryAddress.Hex(),
		"elections", n.factory.Count(),
	)
	return nil
}

// grantMinter lets a new election burn voting credit. The grant is made by
// the current token owner.
func (n *Node) grantMinter(electionAddr common.Address) error {
	return n.token.AddMinter(n.token.Owner(), electionAddr)
}

// tracerProviderOrNil avoids handing the api a typed nil provider
func (n *Node) tracerProviderOrNil() trace.TracerProvider {
	if n.tracerProvider == nil {
		return nil
	}
	return n.tracerProvider
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	n.runMu.Lock()
	defer n.runMu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), n.config.shutdownTimeout)
	defer cancel()

	var err error
	n.config.logger.Debug("starting graceful shutdown")

	// Phase 1: stop accepting operations
	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}

	// Phase 2: persist the final state
	if n.snapshotter != nil {
		if stopErr := n.snapshotter.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("final snapshot: %w", stopErr))
		}
	}

	// Phase 3: drain events into the index
	if n.eventBus != nil {
		n.eventBus.Stop()
	}
	if n.indexer != nil {
		n.indexer.Stop()
	}

	// Phase 4: cleanup resources
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil
	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}

	n.config.logger.Debug("graceful shutdown complete")
	close(n.done)
	return err
}

func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

func (n *Node) Database() *database.Database {
	return n.db
}

func (n *Node) Registry() *registry.Registry {
	return n.registry
}

func (n *Node) Token() *credit.Token {
	return n.token
}

func (n *Node) Factory() *factory.Factory {
	return n.factory
}

func (n *Node) Verifier() *auth.Verifier {
	return n.verifier
}

func (n *Node) Api() *api.Api {
	return n.api
}
