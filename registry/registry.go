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

// Package registry implements the voter eligibility registry. Voters
// register themselves, chairpersons review them, and elections ask the
// registry whether a voter is currently eligible.
package registry

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/tally/access"
	"github.com/blinklabs-io/tally/event"
	"github.com/blinklabs-io/tally/reject"
)

const DefaultMinVotingAge = 18

type RegistryConfig struct {
	PromRegistry prometheus.Registerer
	Logger       *slog.Logger
	EventBus     event.Publisher
	Now          func() time.Time
	Owner        common.Address
	MinVotingAge uint32
}

type Registry struct {
	config       RegistryConfig
	logger       *slog.Logger
	metrics      *registryMetrics
	chairs       *access.Set
	voters       map[common.Address]*Voter
	byID         map[string]common.Address
	stats        Stats
	minVotingAge uint32
	mu           sync.RWMutex
}

func New(config RegistryConfig) (*Registry, error) {
	if access.IsZero(config.Owner) {
		return nil, errors.New("registry: owner address must be set")
	}
	if config.MinVotingAge == 0 {
		config.MinVotingAge = DefaultMinVotingAge
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	r := &Registry{
		config:       config,
		chairs:       access.NewSet(config.Owner),
		voters:       make(map[common.Address]*Voter),
		byID:         make(map[string]common.Address),
		minVotingAge: config.MinVotingAge,
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		r.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		r.logger = config.Logger
	}
	r.logger = r.logger.With("component", "registry")
	r.initMetrics(config.PromRegistry)
	r.updateGauges()
	return r, nil
}

// finish records the outcome of an operation. It must be called with the
// registry lock held and returns err unchanged.
func (r *Registry) finish(op string, err error, args ...any) error {
	r.metrics.operations.WithLabelValues(op, reject.Outcome(err)).Inc()
	if err != nil {
		r.logger.Debug(
			"operation rejected",
			append([]any{"operation", op, "error", err}, args...)...,
		)
		return err
	}
	r.updateGauges()
	r.logger.Info("operation accepted", append([]any{"operation", op}, args...)...)
	return nil
}

func (r *Registry) publish(eventType event.EventType, data any) {
	if r.config.EventBus == nil {
		return
	}
	r.config.EventBus.PublishAsync(
		eventType,
		event.NewEventAt(eventType, data, r.config.Now()),
	)
}

// RegisterVoter records the caller as a new voter awaiting review
func (r *Registry) RegisterVoter(
	caller common.Address,
	id string,
	name string,
	age uint32,
	kycHash common.Hash,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.registerVoter(caller, id, name, age, kycHash)
	return r.finish("registerVoter", err, "voter", caller.Hex())
}

func (r *Registry) registerVoter(
	caller common.Address,
	id string,
	name string,
	age uint32,
	kycHash common.Hash,
) error {
	if access.IsZero(caller) {
		return ErrZeroAddress
	}
	if id == "" {
		return ErrEmptyVoterID
	}
	if name == "" {
		return ErrEmptyName
	}
	if kycHash == (common.Hash{}) {
		return ErrEmptyKYCHash
	}
	if age < r.minVotingAge {
		return ErrBelowMinimumAge
	}
	if _, ok := r.voters[caller]; ok {
		return ErrVoterAlreadyRegistered
	}
	if _, ok := r.byID[id]; ok {
		return ErrVoterIDTaken
	}
	now := r.config.Now()
	r.voters[caller] = &Voter{
		Address:      caller,
		ID:           id,
		Name:         name,
		Age:          age,
		KYCHash:      kycHash,
		Status:       StatusRegistered,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	r.byID[id] = caller
	r.stats.TotalVoters++
	r.publish(VoterRegisteredEventType, VoterEvent{
		Voter:   caller,
		VoterID: id,
		KYCHash: kycHash,
		Status:  StatusRegistered,
	})
	return nil
}

// reviewable returns the voter record for a chairperson operation
func (r *Registry) reviewable(
	caller common.Address,
	addr common.Address,
) (*Voter, error) {
	if err := r.chairs.RequireMember(caller, ErrNotChairperson); err != nil {
		return nil, err
	}
	v, ok := r.voters[addr]
	if !ok {
		return nil, ErrVoterNotRegistered
	}
	return v, nil
}

// ApproveVoter marks a registered voter as approved
func (r *Registry) ApproveVoter(caller common.Address, addr common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.approveVoter(caller, addr)
	return r.finish("approveVoter", err, "voter", addr.Hex())
}

func (r *Registry) approveVoter(caller common.Address, addr common.Address) error {
	v, err := r.reviewable(caller, addr)
	if err != nil {
		return err
	}
	switch {
	case v.Blocked:
		return ErrVoterBlocked
	case v.Status == StatusApproved:
		return ErrVoterAlreadyApproved
	case v.Status != StatusRegistered:
		return ErrVoterNotPending
	}
	now := r.config.Now()
	v.Status = StatusApproved
	v.ApprovedAt = now
	v.UpdatedAt = now
	r.stats.TotalApproved++
	r.publish(VoterApprovedEventType, VoterEvent{
		Voter:   addr,
		By:      caller,
		VoterID: v.ID,
		KYCHash: v.KYCHash,
		Status:  v.Status,
	})
	return nil
}

// RejectVoter marks a registered voter as rejected. Rejection is terminal.
func (r *Registry) RejectVoter(
	caller common.Address,
	addr common.Address,
	reason string,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.rejectVoter(caller, addr, reason)
	return r.finish("rejectVoter", err, "voter", addr.Hex())
}

func (r *Registry) rejectVoter(
	caller common.Address,
	addr common.Address,
	reason string,
) error {
	v, err := r.reviewable(caller, addr)
	if err != nil {
		return err
	}
	if reason == "" {
		return ErrEmptyReason
	}
	switch v.Status {
	case StatusApproved:
		return ErrVoterAlreadyApproved
	case StatusRegistered:
	default:
		return ErrVoterNotPending
	}
	v.Status = StatusRejected
	v.RejectionReason = reason
	v.UpdatedAt = r.config.Now()
	r.publish(VoterRejectedEventType, VoterEvent{
		Voter:   addr,
		By:      caller,
		VoterID: v.ID,
		KYCHash: v.KYCHash,
		Reason:  reason,
		Status:  v.Status,
	})
	return nil
}

// BlockVoter suspends a voter's eligibility without changing its review status
func (r *Registry) BlockVoter(
	caller common.Address,
	addr common.Address,
	reason string,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.blockVoter(caller, addr, reason)
	return r.finish("blockVoter", err, "voter", addr.Hex())
}

func (r *Registry) blockVoter(
	caller common.Address,
	addr common.Address,
	reason string,
) error {
	v, err := r.reviewable(caller, addr)
	if err != nil {
		return err
	}
	if reason == "" {
		return ErrEmptyReason
	}
	if v.Blocked {
		return ErrVoterAlreadyBlocked
	}
	v.Blocked = true
	v.BlockReason = reason
	v.UpdatedAt = r.config.Now()
	if v.Status == StatusApproved {
		r.stats.TotalApproved--
	}
	r.stats.TotalBlocked++
	r.publish(VoterBlockedEventType, VoterEvent{
		Voter:   addr,
		By:      caller,
		VoterID: v.ID,
		KYCHash: v.KYCHash,
		Reason:  reason,
		Status:  StatusBlocked,
	})
	return nil
}

// UnblockVoter lifts a block, restoring the status held before it
func (r *Registry) UnblockVoter(caller common.Address, addr common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.unblockVoter(caller, addr)
	return r.finish("unblockVoter", err, "voter", addr.Hex())
}

func (r *Registry) unblockVoter(caller common.Address, addr common.Address) error {
	v, err := r.reviewable(caller, addr)
	if err != nil {
		return err
	}
	if !v.Blocked {
		return ErrVoterNotBlocked
	}
	v.Blocked = false
	v.BlockReason = ""
	v.UpdatedAt = r.config.Now()
	if v.Status == StatusApproved {
		r.stats.TotalApproved++
	}
	r.stats.TotalBlocked--
	r.publish(VoterUnblockedEventType, VoterEvent{
		Voter:   addr,
		By:      caller,
		VoterID: v.ID,
		KYCHash: v.KYCHash,
		Status:  v.Status,
	})
	return nil
}

func (r *Registry) AddChairperson(caller common.Address, addr common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.addChairperson(caller, addr)
	return r.finish("addChairperson", err, "account", addr.Hex())
}

func (r *Registry) addChairperson(caller common.Address, addr common.Address) error {
	if err := r.chairs.RequireOwner(caller, ErrNotOwner); err != nil {
		return err
	}
	if access.IsZero(addr) {
		return ErrZeroAddress
	}
	if !r.chairs.Add(addr) {
		return ErrAlreadyChairperson
	}
	r.publish(ChairpersonAddedEventType, ChairpersonEvent{Account: addr, By: caller})
	return nil
}

func (r *Registry) RemoveChairperson(caller common.Address, addr common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.removeChairperson(caller, addr)
	return r.finish("removeChairperson", err, "account", addr.Hex())
}

func (r *Registry) removeChairperson(caller common.Address, addr common.Address) error {
	if err := r.chairs.RequireOwner(caller, ErrNotOwner); err != nil {
		return err
	}
	if r.chairs.IsOwner(addr) {
		return ErrCannotRemoveOwner
	}
	if !r.chairs.Remove(addr) {
		return ErrNotAChairperson
	}
	r.publish(ChairpersonRemovedEventType, ChairpersonEvent{Account: addr, By: caller})
	return nil
}

// UpdateMinVotingAge changes the minimum age for new registrations
func (r *Registry) UpdateMinVotingAge(caller common.Address, age uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.updateMinVotingAge(caller, age)
	return r.finish("updateMinVotingAge", err, "age", age)
}

func (r *Registry) updateMinVotingAge(caller common.Address, age uint32) error {
	if err := r.chairs.RequireOwner(caller, ErrNotOwner); err != nil {
		return err
	}
	if age == 0 {
		return ErrInvalidMinimumAge
	}
	r.minVotingAge = age
	r.publish(MinVotingAgeUpdatedEventType, MinVotingAgeEvent{Age: age, By: caller})
	return nil
}

// TransferOwnership hands the registry to newOwner, who also becomes a
// chairperson
func (r *Registry) TransferOwnership(caller common.Address, newOwner common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.transferOwnership(caller, newOwner)
	return r.finish("transferOwnership", err, "owner", newOwner.Hex())
}

func (r *Registry) transferOwnership(caller common.Address, newOwner common.Address) error {
	if err := r.chairs.RequireOwner(caller, ErrNotOwner); err != nil {
		return err
	}
	if access.IsZero(newOwner) {
		return ErrZeroAddress
	}
	prev := r.chairs.Owner()
	r.chairs.TransferOwnership(newOwner)
	r.publish(OwnershipTransferredEventType, OwnershipTransferredEvent{
		Previous: prev,
		New:      newOwner,
	})
	return nil
}

// IsVoterEligible reports whether addr is approved and not blocked
func (r *Registry) IsVoterEligible(addr common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.voters[addr]
	return ok && v.Eligible()
}

// VoterInfo returns the voter record. Unknown addresses yield a record with
// StatusUnregistered.
func (r *Registry) VoterInfo(addr common.Address) Voter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.voters[addr]
	if !ok {
		return Voter{Address: addr, Status: StatusUnregistered}
	}
	return *v
}

// VoterByID looks a voter up by its voter-supplied id
func (r *Registry) VoterByID(id string) (Voter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	addr, ok := r.byID[id]
	if !ok {
		return Voter{}, ErrVoterNotFound
	}
	return *r.voters[addr], nil
}

func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

func (r *Registry) IsChairperson(addr common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.chairs.Has(addr)
}

func (r *Registry) Chairpersons() []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.chairs.Members()
}

func (r *Registry) Owner() common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.chairs.Owner()
}

func (r *Registry) MinVotingAge() uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.minVotingAge
}
