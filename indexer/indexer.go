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

// Package indexer projects core events into the metadata store: every
// event becomes an audit row, and election and vote events also maintain
// the election index and the vote commitment table.
//
// The indexer is off the commit path. A failed write is logged and counted
// and never affects the aggregates.
package indexer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/blinklabs-io/tally/credit"
	"github.com/blinklabs-io/tally/database/metadata"
	"github.com/blinklabs-io/tally/database/models"
	"github.com/blinklabs-io/tally/election"
	"github.com/blinklabs-io/tally/event"
	"github.com/blinklabs-io/tally/factory"
	"github.com/blinklabs-io/tally/registry"
)

const DefaultQueueSize = 1024

var errIndexerClosed = errors.New("indexer closed")

// EventTypes returns every event type published by the core
func EventTypes() []event.EventType {
	return slices.Concat(
		registry.EventTypes,
		credit.EventTypes,
		election.EventTypes,
		factory.EventTypes,
	)
}

type IndexerConfig struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	EventBus     *event.EventBus
	Metadata     metadata.MetadataStore
	QueueSize    int
}

type Indexer struct {
	config  IndexerConfig
	logger  *slog.Logger
	metrics *indexerMetrics
	queue   chan event.Event
	done    chan struct{}
	subIds  map[event.EventType]event.EventSubscriberId
	mu      sync.RWMutex
	closed  bool
	started bool
}

func New(config IndexerConfig) (*Indexer, error) {
	if config.EventBus == nil {
		return nil, errors.New("indexer: event bus must be set")
	}
	if config.Metadata == nil {
		return nil, errors.New("indexer: metadata store must be set")
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultQueueSize
	}
	i := &Indexer{
		config: config,
		queue:  make(chan event.Event, config.QueueSize),
		done:   make(chan struct{}),
		subIds: make(map[event.EventType]event.EventSubscriberId),
	}
	if config.Logger == nil {
		i.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		i.logger = config.Logger
	}
	i.logger = i.logger.With("component", "indexer")
	i.initMetrics(config.PromRegistry)
	return i, nil
}

// Start subscribes to every core event type. All types share one queue,
// so events are indexed in the order the bus delivered them.
func (i *Indexer) Start() error {
	i.mu.Lock()
	if i.started {
		i.mu.Unlock()
		return errors.New("indexer: already started")
	}
	i.started = true
	i.mu.Unlock()
	go i.run()
	for _, eventType := range EventTypes() {
		i.subIds[eventType] = i.config.EventBus.RegisterSubscriber(eventType, i)
	}
	i.logger.Info("indexer started", "event_types", len(i.subIds))
	return nil
}

// Stop unsubscribes, indexes whatever is still queued and waits for the
// worker to exit
func (i *Indexer) Stop() {
	for eventType, subId := range i.subIds {
		i.config.EventBus.Unsubscribe(eventType, subId)
	}
	i.Close()
	i.mu.RLock()
	started := i.started
	i.mu.RUnlock()
	if started {
		<-i.done
	}
}

// Deliver implements event.Subscriber. It blocks while the queue is full.
func (i *Indexer) Deliver(evt event.Event) error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return errIndexerClosed
	}
	i.queue <- evt
	return nil
}

// Close implements event.Subscriber. It is safe to call more than once.
func (i *Indexer) Close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return
	}
	i.closed = true
	close(i.queue)
}

func (i *Indexer) run() {
	defer close(i.done)
	for evt := range i.queue {
		if err := i.index(evt); err != nil {
			i.metrics.events.WithLabelValues(string(evt.Type), "error").Inc()
			i.logger.Error(
				"failed to index event",
				"type", evt.Type,
				"sequence", evt.Sequence,
				"error", err,
			)
			continue
		}
		i.metrics.events.WithLabelValues(string(evt.Type), "ok").Inc()
	}
}

func (i *Indexer) index(evt event.Event) error {
	data, err := json.Marshal(evt.Data)
	if err != nil {
		return fmt.Errorf("encode event data: %w", err)
	}
	store := i.config.Metadata
	txn := store.Transaction()
	if txn.Error != nil {
		return txn.Error
	}
	if err := i.project(txn, evt, data); err != nil {
		txn.Rollback()
		return err
	}
	return txn.Commit().Error
}

func (i *Indexer) project(txn *gorm.DB, evt event.Event, data []byte) error {
	store := i.config.Metadata
	if err := store.AddAuditEvent(models.AuditEvent{
		EventID:   uuid.NewString(),
		Sequence:  evt.Sequence,
		Type:      string(evt.Type),
		Timestamp: evt.Timestamp,
		Data:      data,
	}, txn); err != nil {
		return fmt.Errorf("add audit event: %w", err)
	}
	switch e := evt.Data.(type) {
	case factory.ElectionCreatedEvent:
		return store.SetElection(models.Election{
			ID:          e.ElectionID,
			Address:     e.Address.Bytes(),
			Creator:     e.Creator.Bytes(),
			Title:       e.Title,
			Type:        e.Type,
			MetadataRef: e.MetadataRef,
			StartTime:   e.StartTime,
			EndTime:     e.EndTime,
			CreatedAt:   e.CreatedAt,
			State:       election.StateCreated.String(),
		}, txn)
	case election.StateChangedEvent:
		if err := store.UpdateElectionState(e.ElectionID, e.To.String(), txn); err != nil {
			return err
		}
		if e.To.Closed() {
			return store.SetElectionResult(e.ElectionID, e.WinnerID, e.TotalVotes, txn)
		}
	case election.VoteCastEvent:
		burned := ""
		if e.CreditBurned != nil {
			burned = e.CreditBurned.Dec()
		}
		added, err := store.AddVoteCommitment(models.VoteCommitment{
			ElectionID:   e.ElectionID,
			Voter:        e.Voter.Bytes(),
			CandidateID:  e.CandidateID,
			VoteHash:     e.VoteHash.Bytes(),
			CreditBurned: burned,
			CastAt:       evt.Timestamp,
		}, txn)
		if err != nil {
			return err
		}
		if !added {
			// The index outlived a core state that was rolled back to an
			// older snapshot; the first commitment stays
			i.logger.Warn(
				"duplicate vote commitment ignored",
				"election_id", e.ElectionID,
				"voter", e.Voter.Hex(),
			)
			return nil
		}
		return store.IncrementElectionVotes(e.ElectionID, txn)
	}
	return nil
}
