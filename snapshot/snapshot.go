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

// Package snapshot persists the aggregates to the blob store so a restarted
// node resumes from its last durable state.
//
// A snapshot is one JSON document holding every aggregate. It is captured
// under the global lock order (factory, elections by ascending id, registry,
// token) so it reflects a single point between operations.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/tally/auth"
	"github.com/blinklabs-io/tally/credit"
	"github.com/blinklabs-io/tally/database"
	"github.com/blinklabs-io/tally/database/types"
	"github.com/blinklabs-io/tally/factory"
	"github.com/blinklabs-io/tally/registry"
)

const (
	// FormatVersion is bumped on incompatible changes to State
	FormatVersion = 1

	DefaultInterval = 5 * time.Minute
	DefaultRetain   = 3
)

var ErrNoSnapshot = errors.New("snapshot: no snapshot stored")

// State is the stored snapshot document
type State struct {
	TakenAt  time.Time         `json:"takenAt"`
	Factory  factory.Snapshot  `json:"factory"`
	Registry registry.Snapshot `json:"registry"`
	Token    credit.Snapshot   `json:"token"`
	Auth     auth.Snapshot     `json:"auth"`
	Version  int               `json:"version"`
	Sequence uint64            `json:"sequence"`
}

type SnapshotterConfig struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	Database     *database.Database
	Factory      *factory.Factory
	Registry     *registry.Registry
	Token        *credit.Token
	// Verifier is optional
	Verifier *auth.Verifier
	Now      func() time.Time
	Interval time.Duration
	// Retain is how many snapshots are kept, the latest included
	Retain int
}

type Snapshotter struct {
	config  SnapshotterConfig
	logger  *slog.Logger
	metrics *snapshotMetrics
	stopCh  chan struct{}
	doneCh  chan struct{}
	lastSeq uint64
	// writeMu serializes writes so sequences are assigned in order
	writeMu  sync.Mutex
	stopOnce sync.Once
	started  bool
}

func New(config SnapshotterConfig) (*Snapshotter, error) {
	if config.Database == nil || config.Database.Blob() == nil {
		return nil, errors.New("snapshot: blob store must be set")
	}
	if config.Factory == nil || config.Registry == nil || config.Token == nil {
		return nil, errors.New("snapshot: factory, registry and token must be set")
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.Retain <= 0 {
		config.Retain = DefaultRetain
	}
	s := &Snapshotter{
		config: config,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	if config.Logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		s.logger = config.Logger
	}
	s.logger = s.logger.With("component", "snapshot")
	s.initMetrics(config.PromRegistry)
	return s, nil
}

// Capture freezes every aggregate in lock order and copies its state
func (s *Snapshotter) Capture() State {
	unfreezeFactory := s.config.Factory.Freeze()
	defer unfreezeFactory()
	unfreezeRegistry := s.config.Registry.Freeze()
	defer unfreezeRegistry()
	unfreezeToken := s.config.Token.Freeze()
	defer unfreezeToken()
	state := State{
		Version:  FormatVersion,
		TakenAt:  s.config.Now(),
		Factory:  s.config.Factory.FrozenSnapshot(),
		Registry: s.config.Registry.FrozenSnapshot(),
		Token:    s.config.Token.FrozenSnapshot(),
	}
	if s.config.Verifier != nil {
		unfreezeVerifier := s.config.Verifier.Freeze()
		defer unfreezeVerifier()
		state.Auth = s.config.Verifier.FrozenSnapshot()
	}
	return state
}

// Write captures and stores a snapshot, then prunes old ones
func (s *Snapshotter) Write(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	start := time.Now()
	state := s.Capture()
	seq, size, err := s.store(state)
	if err != nil {
		s.metrics.writes.WithLabelValues("error").Inc()
		s.logger.Error("failed to write snapshot", "error", err)
		return 0, err
	}
	s.metrics.writes.WithLabelValues("ok").Inc()
	s.metrics.lastSequence.Set(float64(seq))
	s.metrics.lastSize.Set(float64(size))
	s.logger.Info(
		"snapshot written",
		"sequence", seq,
		"bytes", size,
		"elections", len(state.Factory.Elections),
		"voters", len(state.Registry.Voters),
		"duration", time.Since(start),
	)
	return seq, nil
}

func (s *Snapshotter) store(state State) (uint64, int, error) {
	var size int
	txn := s.config.Database.Transaction(true)
	err := txn.Do(func(txn *database.Txn) error {
		blob := txn.DB().Blob()
		latest, err := latestSeq(txn)
		if err != nil && !errors.Is(err, ErrNoSnapshot) {
			return err
		}
		state.Sequence = max(latest, s.lastSeq) + 1
		data, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		size = len(data)
		if err := blob.Set(txn.Blob(), types.SnapshotBlobKey(state.Sequence), data); err != nil {
			return fmt.Errorf("store snapshot: %w", err)
		}
		if err := blob.Set(
			txn.Blob(),
			[]byte(types.LatestSnapshotBlobKey),
			types.LatestSnapshotValue(state.Sequence),
		); err != nil {
			return fmt.Errorf("store latest snapshot pointer: %w", err)
		}
		return s.prune(txn, state.Sequence)
	})
	if err != nil {
		return 0, 0, err
	}
	s.lastSeq = state.Sequence
	return state.Sequence, size, nil
}

// prune deletes snapshots older than the retained window
func (s *Snapshotter) prune(txn *database.Txn, latest uint64) error {
	blob := txn.DB().Blob()
	keys, err := blob.Keys(txn.Blob(), []byte(types.SnapshotBlobKeyPrefix))
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}
	for _, key := range keys {
		seq, err := types.SnapshotSeqFromKey(key)
		if err != nil {
			// the latest pointer shares the prefix
			continue
		}
		if seq+uint64(s.config.Retain) > latest {
			continue
		}
		if err := blob.Delete(txn.Blob(), key); err != nil {
			return fmt.Errorf("delete snapshot %d: %w", seq, err)
		}
	}
	return nil
}

func latestSeq(txn *database.Txn) (uint64, error) {
	val, err := txn.DB().Blob().Get(txn.Blob(), []byte(types.LatestSnapshotBlobKey))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return 0, ErrNoSnapshot
		}
		return 0, err
	}
	return types.ParseLatestSnapshotValue(val)
}

// Load reads the newest stored snapshot. It returns ErrNoSnapshot on an
// empty store.
func Load(db *database.Database) (*State, error) {
	txn := database.NewBlobOnlyTxn(db, false)
	defer txn.Release()
	seq, err := latestSeq(txn)
	if err != nil {
		return nil, err
	}
	data, err := db.Blob().Get(txn.Blob(), types.SnapshotBlobKey(seq))
	if err != nil {
		return nil, fmt.Errorf("read snapshot %d: %w", seq, err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode snapshot %d: %w", seq, err)
	}
	if state.Version != FormatVersion {
		return nil, fmt.Errorf("snapshot %d: unsupported format version %d", seq, state.Version)
	}
	return &state, nil
}

// Restore loads the newest snapshot into the aggregates. The factory must
// be empty. It reports false when there was nothing to restore.
func (s *Snapshotter) Restore() (bool, error) {
	state, err := Load(s.config.Database)
	if err != nil {
		if errors.Is(err, ErrNoSnapshot) {
			s.logger.Info("no snapshot found, starting empty")
			return false, nil
		}
		return false, err
	}
	if err := s.config.Registry.Restore(state.Registry); err != nil {
		return false, fmt.Errorf("restore registry: %w", err)
	}
	if err := s.config.Token.Restore(state.Token); err != nil {
		return false, fmt.Errorf("restore token: %w", err)
	}
	if err := s.config.Factory.Restore(state.Factory); err != nil {
		return false, fmt.Errorf("restore factory: %w", err)
	}
	if s.config.Verifier != nil {
		if err := s.config.Verifier.Restore(state.Auth); err != nil {
			return false, fmt.Errorf("restore auth nonces: %w", err)
		}
	}
	s.writeMu.Lock()
	s.lastSeq = state.Sequence
	s.writeMu.Unlock()
	s.logger.Info(
		"snapshot restored",
		"sequence", state.Sequence,
		"taken_at", state.TakenAt,
		"elections", len(state.Factory.Elections),
	)
	return true, nil
}

// Start writes a snapshot every interval until Stop
func (s *Snapshotter) Start() {
	s.started = true
	go func() {
		defer close(s.doneCh)
		ticker := time.NewTicker(s.config.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopCh:
				return
			case <-ticker.C:
				// errors are logged and counted by Write
				_, _ = s.Write(context.Background())
			}
		}
	}()
}

// Stop ends the periodic writer and stores a final snapshot
func (s *Snapshotter) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.started {
			<-s.doneCh
		}
		_, err = s.Write(ctx)
	})
	return err
}
