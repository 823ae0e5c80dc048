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

// Package factory creates elections and keeps the index of every election
// it created. It also holds the creator allow-list and the system pause
// flag, which only gates election creation.
package factory

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/tally/access"
	"github.com/blinklabs-io/tally/election"
	"github.com/blinklabs-io/tally/event"
	"github.com/blinklabs-io/tally/reject"
)

// GrantHook is called with the address of every new election before it is
// indexed. A non-nil error aborts the creation.
type GrantHook func(electionAddr common.Address) error

type FactoryConfig struct {
	PromRegistry    prometheus.Registerer
	Logger          *slog.Logger
	EventBus        event.Publisher
	Registry        election.Eligibility
	Token           election.CreditBurner
	GrantHook       GrantHook
	Now             func() time.Time
	Owner           common.Address
	Address         common.Address
	MinCandidateAge uint32
}

// CreateRequest carries the createElection arguments
type CreateRequest struct {
	StartTime            time.Time `json:"startTime"`
	EndTime              time.Time `json:"endTime"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	Type                 string    `json:"type"`
	MetadataRef          string    `json:"metadataRef"`
	AllowRealtimeResults bool      `json:"allowRealtimeResults"`
}

type Factory struct {
	config          FactoryConfig
	logger          *slog.Logger
	metrics         *factoryMetrics
	electionMetrics *election.Metrics
	creators        *access.Set
	// elections[i] has id i+1
	elections []*election.Election
	byAddress map[common.Address]uint64
	mu        sync.RWMutex
	paused    bool
}

func New(config FactoryConfig) (*Factory, error) {
	if access.IsZero(config.Owner) {
		return nil, errors.New("factory: owner address must be set")
	}
	if access.IsZero(config.Address) {
		return nil, errors.New("factory: factory address must be set")
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	f := &Factory{
		config:    config,
		creators:  access.NewSet(config.Owner),
		byAddress: make(map[common.Address]uint64),
	}
	if config.Logger == nil {
		f.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		f.logger = config.Logger
	}
	f.logger = f.logger.With("component", "factory")
	f.initMetrics(config.PromRegistry)
	f.electionMetrics = election.NewMetrics(config.PromRegistry)
	f.updateGauges()
	return f, nil
}

// ElectionAddress returns the deterministic address of election id
func (f *Factory) ElectionAddress(id uint64) common.Address {
	return crypto.CreateAddress(f.config.Address, id)
}

func (f *Factory) electionConfig() election.Config {
	return election.Config{
		Logger:          f.config.Logger,
		EventBus:        f.config.EventBus,
		Registry:        f.config.Registry,
		Token:           f.config.Token,
		Metrics:         f.electionMetrics,
		Now:             f.config.Now,
		MinCandidateAge: f.config.MinCandidateAge,
	}
}

func (f *Factory) finish(op string, caller common.Address, err error, args ...any) error {
	f.metrics.operations.WithLabelValues(op, reject.Outcome(err)).Inc()
	args = append([]any{"operation", op, "caller", caller.Hex()}, args...)
	if err != nil {
		f.logger.Debug("operation rejected", append(args, "error", err)...)
		return err
	}
	f.updateGauges()
	f.logger.Info("operation accepted", args...)
	return nil
}

func (f *Factory) publish(eventType event.EventType, data any, ts time.Time) {
	if f.config.EventBus == nil {
		return
	}
	f.config.EventBus.PublishAsync(eventType, event.NewEventAt(eventType, data, ts))
}

// CreateElection creates an election in the Created state and returns its
// id and address. The caller becomes the election creator.
func (f *Factory) CreateElection(
	caller common.Address,
	req CreateRequest,
) (uint64, common.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, err := f.createElection(caller, req)
	if err != nil {
		return 0, common.Address{}, f.finish("createElection", caller, err)
	}
	f.metrics.created.Inc()
	return e.ID(), e.Address(), f.finish(
		"createElection",
		caller,
		nil,
		"election_id", e.ID(),
		"address", e.Address().Hex(),
	)
}

func (f *Factory) createElection(
	caller common.Address,
	req CreateRequest,
) (*election.Election, error) {
	if err := f.creators.RequireMember(caller, ErrNotCreator); err != nil {
		return nil, err
	}
	if f.paused {
		return nil, ErrSystemPaused
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrEmptyTitle
	}
	now := f.config.Now()
	if !req.StartTime.After(now) {
		return nil, ErrStartNotFuture
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, ErrEndBeforeStart
	}
	id := uint64(len(f.elections)) + 1
	params := election.Params{
		ID:                   id,
		Address:              f.ElectionAddress(id),
		Creator:              caller,
		Owner:                f.creators.Owner(),
		Title:                req.Title,
		Description:          req.Description,
		Type:                 req.Type,
		MetadataRef:          req.MetadataRef,
		StartTime:            req.StartTime,
		EndTime:              req.EndTime,
		CreatedAt:            now,
		AllowRealtimeResults: req.AllowRealtimeResults,
	}
	if f.config.GrantHook != nil {
		if err := f.config.GrantHook(params.Address); err != nil {
			return nil, err
		}
	}
	e, err := election.New(f.electionConfig(), params)
	if err != nil {
		return nil, err
	}
	f.elections = append(f.elections, e)
	f.byAddress[params.Address] = id
	f.publish(ElectionCreatedEventType, ElectionCreatedEvent{
		ElectionID:  id,
		Address:     params.Address,
		Creator:     caller,
		Title:       params.Title,
		Type:        params.Type,
		MetadataRef: params.MetadataRef,
		StartTime:   params.StartTime,
		EndTime:     params.EndTime,
		CreatedAt:   now,
	}, now)
	return e, nil
}

func (f *Factory) AddCreator(caller common.Address, addr common.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := f.addCreator(caller, addr)
	return f.finish("addCreator", caller, err, "account", addr.Hex())
}

func (f *Factory) addCreator(caller common.Address, addr common.Address) error {
	if err := f.creators.RequireOwner(caller, ErrNotOwner); err != nil {
		return err
	}
	if access.IsZero(addr) {
		return ErrZeroAddress
	}
	if !f.creators.Add(addr) {
		return ErrAlreadyCreator
	}
	f.publish(CreatorAddedEventType, CreatorEvent{Account: addr, By: caller}, f.config.Now())
	return nil
}

// RemoveCreator revokes creation rights. Elections already created by addr
// keep addr as their creator.
func (f *Factory) RemoveCreator(caller common.Address, addr common.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := f.removeCreator(caller, addr)
	return f.finish("removeCreator", caller, err, "account", addr.Hex())
}

func (f *Factory) removeCreator(caller common.Address, addr common.Address) error {
	if err := f.creators.RequireOwner(caller, ErrNotOwner); err != nil {
		return err
	}
	if f.creators.IsOwner(addr) {
		return ErrCannotRemoveOwner
	}
	if !f.creators.Remove(addr) {
		return ErrNotACreator
	}
	f.publish(CreatorRemovedEventType, CreatorEvent{Account: addr, By: caller}, f.config.Now())
	return nil
}

// Pause blocks new elections. Running elections are not affected.
func (f *Factory) Pause(caller common.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := f.setPaused(caller, true)
	return f.finish("pause", caller, err)
}

func (f *Factory) Unpause(caller common.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := f.setPaused(caller, false)
	return f.finish("unpause", caller, err)
}

func (f *Factory) setPaused(caller common.Address, paused bool) error {
	if err := f.creators.RequireOwner(caller, ErrNotOwner); err != nil {
		return err
	}
	switch {
	case paused && f.paused:
		return ErrAlreadyPaused
	case !paused && !f.paused:
		return ErrNotPaused
	}
	f.paused = paused
	eventType := PausedEventType
	if !paused {
		eventType = UnpausedEventType
	}
	f.publish(eventType, PauseEvent{By: caller, Paused: paused}, f.config.Now())
	return nil
}

// TransferOwnership hands the factory to newOwner, who also becomes a
// creator. Existing elections keep the owner recorded at their creation.
func (f *Factory) TransferOwnership(caller common.Address, newOwner common.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := f.transferOwnership(caller, newOwner)
	return f.finish("transferOwnership", caller, err, "owner", newOwner.Hex())
}

func (f *Factory) transferOwnership(caller common.Address, newOwner common.Address) error {
	if err := f.creators.RequireOwner(caller, ErrNotOwner); err != nil {
		return err
	}
	if access.IsZero(newOwner) {
		return ErrZeroAddress
	}
	prev := f.creators.Owner()
	f.creators.TransferOwnership(newOwner)
	f.publish(OwnershipTransferredEventType, OwnershipTransferredEvent{
		Previous: prev,
		New:      newOwner,
	}, f.config.Now())
	return nil
}

// Election returns the election with the given id
func (f *Factory) Election(id uint64) (*election.Election, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if id == 0 || id > uint64(len(f.elections)) {
		return nil, ErrElectionNotFound
	}
	return f.elections[id-1], nil
}

func (f *Factory) ElectionByAddress(addr common.Address) (*election.Election, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	id, ok := f.byAddress[addr]
	if !ok {
		return nil, ErrElectionNotFound
	}
	return f.elections[id-1], nil
}

// Elections returns every election in id order
func (f *Factory) Elections() []*election.Election {
	f.mu.RLock()
	defer f.mu.RUnlock()
	ret := make([]*election.Election, len(f.elections))
	copy(ret, f.elections)
	return ret
}

// AllElections returns the summary of every election in id order
func (f *Factory) AllElections() []election.Info {
	ret := make([]election.Info, 0, f.Count())
	for _, e := range f.Elections() {
		ret = append(ret, e.Info())
	}
	return ret
}

func (f *Factory) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.elections)
}

func (f *Factory) IsCreator(addr common.Address) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.creators.Has(addr)
}

func (f *Factory) Creators() []common.Address {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.creators.Members()
}

func (f *Factory) Owner() common.Address {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.creators.Owner()
}

func (f *Factory) Paused() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.paused
}

func (f *Factory) Address() common.Address {
	return f.config.Address
}
