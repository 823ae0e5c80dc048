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

package tally

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	promRegistry     prometheus.Registerer
	logger           *slog.Logger
	now              func() time.Time
	dataDir          string
	listenAddress    string
	owner            common.Address
	factoryAddress   common.Address
	minVotingAge     uint32
	minCandidateAge  uint32
	snapshotInterval time.Duration
	snapshotRetain   int
	operationTTL     time.Duration
	shutdownTimeout  time.Duration
	indexerQueueSize int
	tracing          bool
	tracingStdout    bool
}

func (c *Config) validate() error {
	if c.owner == (common.Address{}) {
		return errors.New("owner address must be set")
	}
	if c.snapshotInterval < 0 {
		return errors.New("snapshot interval must not be negative")
	}
	if c.operationTTL < 0 {
		return errors.New("operation TTL must not be negative")
	}
	if c.tracingStdout && !c.tracing {
		return errors.New("stdout tracing requires tracing to be enabled")
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new tally config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithOwner sets the system owner. The owner holds every root role: registry
// owner, credit owner and factory owner.
func WithOwner(owner common.Address) ConfigOptionFunc {
	return func(c *Config) {
		c.owner = owner
	}
}

// WithFactoryAddress sets the address election addresses are derived from.
// It defaults to an address derived from the owner.
func WithFactoryAddress(addr common.Address) ConfigOptionFunc {
	return func(c *Config) {
		c.factoryAddress = addr
	}
}

// WithDatabasePath specifies the persistent storage directory. An empty path
// keeps everything in memory.
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithClock replaces the wall clock used by every aggregate
func WithClock(now func() time.Time) ConfigOptionFunc {
	return func(c *Config) {
		c.now = now
	}
}

func WithMinVotingAge(age uint32) ConfigOptionFunc {
	return func(c *Config) {
		c.minVotingAge = age
	}
}

func WithMinCandidateAge(age uint32) ConfigOptionFunc {
	return func(c *Config) {
		c.minCandidateAge = age
	}
}

// WithListenAddress sets the API listen address. An empty address disables
// the API listener.
func WithListenAddress(addr string) ConfigOptionFunc {
	return func(c *Config) {
		c.listenAddress = addr
	}
}

func WithSnapshotInterval(interval time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.snapshotInterval = interval
	}
}

// WithSnapshotRetain sets how many snapshots are kept in the blob store
func WithSnapshotRetain(retain int) ConfigOptionFunc {
	return func(c *Config) {
		c.snapshotRetain = retain
	}
}

// WithOperationTTL bounds how far in the future a signed operation may expire
func WithOperationTTL(ttl time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.operationTTL = ttl
	}
}

// WithIndexerQueueSize sets how many events the indexer buffers before
// delivery blocks
func WithIndexerQueueSize(size int) ConfigOptionFunc {
	return func(c *Config) {
		c.indexerQueueSize = size
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout sets the timeout for graceful shutdown
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
