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

// Package election implements a single election: its candidates, the voter
// set, the lifecycle state machine and the tally.
//
// Lifecycle: Created -> Ongoing <-> Paused -> Ended -> Finalized. There is
// no timer. A Created election whose start time has passed is treated as
// Ongoing by every state-changing operation, and the transition is stored
// only when that operation succeeds.
//
// Lock order: an election takes its own lock first and then calls into the
// registry (read) and the credit token (burn). Neither calls back.
package election

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/blinklabs-io/tally/access"
	"github.com/blinklabs-io/tally/event"
	"github.com/blinklabs-io/tally/reject"
)

const DefaultMinCandidateAge = 18

// Eligibility answers whether a voter may take part in elections
type Eligibility interface {
	IsVoterEligible(common.Address) bool
}

// CreditBurner destroys voting credit. The election burns as itself, so its
// address must be a minter.
type CreditBurner interface {
	Burn(caller, from common.Address, amount *uint256.Int) error
}

type Config struct {
	Logger          *slog.Logger
	EventBus        event.Publisher
	Registry        Eligibility
	Token           CreditBurner
	Metrics         *Metrics
	Now             func() time.Time
	MinCandidateAge uint32
}

// Params are fixed when the factory creates the election
type Params struct {
	StartTime            time.Time      `json:"startTime"`
	EndTime              time.Time      `json:"endTime"`
	CreatedAt            time.Time      `json:"createdAt"`
	Title                string         `json:"title"`
	Description          string         `json:"description"`
	Type                 string         `json:"type"`
	MetadataRef          string         `json:"metadataRef"`
	ID                   uint64         `json:"id"`
	Address              common.Address `json:"address"`
	Creator              common.Address `json:"creator"`
	Owner                common.Address `json:"owner"`
	AllowRealtimeResults bool           `json:"allowRealtimeResults"`
}

type Candidate struct {
	Name      string `json:"name"`
	Party     string `json:"party"`
	Manifesto string `json:"manifesto,omitempty"`
	ImageRef  string `json:"imageRef,omitempty"`
	ID        uint64 `json:"id"`
	VoteCount uint64 `json:"voteCount"`
	Age       uint32 `json:"age"`
	Active    bool   `json:"active"`
}

// CandidateInput describes a candidate at initialization
type CandidateInput struct {
	Name      string `json:"name"`
	Party     string `json:"party"`
	Manifesto string `json:"manifesto,omitempty"`
	ImageRef  string `json:"imageRef,omitempty"`
	Age       uint32 `json:"age"`
}

type voterRecord struct {
	registeredAt time.Time
	votedAt      time.Time
	voteHash     common.Hash
	candidateID  uint64
	hasVoted     bool
}

type Election struct {
	config       Config
	logger       *slog.Logger
	tokenAmount  *uint256.Int
	voters       map[common.Address]*voterRecord
	endedAt      time.Time
	finalizedAt  time.Time
	params       Params
	candidates   []*Candidate
	totalVotes   uint64
	winnerID     uint64
	mu           sync.RWMutex
	state        State
	initialized  bool
	isPublic     bool
	requireToken bool
}

func New(config Config, params Params) (*Election, error) {
	if params.ID == 0 {
		return nil, errors.New("election: id must be positive")
	}
	if access.IsZero(params.Creator) {
		return nil, errors.New("election: creator address must be set")
	}
	if !params.EndTime.After(params.StartTime) {
		return nil, errors.New("election: end time must be after start time")
	}
	e := newElection(config, params)
	e.config.Metrics.elections.WithLabelValues(StateCreated.String()).Inc()
	return e, nil
}

func newElection(config Config, params Params) *Election {
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Metrics == nil {
		config.Metrics = NewMetrics(nil)
	}
	if config.MinCandidateAge == 0 {
		config.MinCandidateAge = DefaultMinCandidateAge
	}
	e := &Election{
		config:      config,
		params:      params,
		state:       StateCreated,
		voters:      make(map[common.Address]*voterRecord),
		tokenAmount: new(uint256.Int),
	}
	if config.Logger == nil {
		e.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		e.logger = config.Logger
	}
	e.logger = e.logger.With("component", "election", "election_id", params.ID)
	return e
}

func (e *Election) ID() uint64 {
	return e.params.ID
}

func (e *Election) Address() common.Address {
	return e.params.Address
}

// txn collects the effects of one operation. Events and the automatic
// start transition are applied by finish, and only when the operation
// succeeded.
type txn struct {
	e       *Election
	caller  common.Address
	now     time.Time
	state   State
	started bool
	events  []pendingEvent
}

type pendingEvent struct {
	data      any
	eventType event.EventType
}

// begin evaluates the time predicate. It must be called with the lock held.
func (e *Election) begin(caller common.Address) *txn {
	t := &txn{
		e:      e,
		caller: caller,
		now:    e.config.Now(),
		state:  e.state,
	}
	if t.state == StateCreated && !t.now.Before(e.params.StartTime) {
		t.state = StateOngoing
		t.started = true
	}
	return t
}

func (t *txn) emit(eventType event.EventType, data any) {
	t.events = append(t.events, pendingEvent{eventType: eventType, data: data})
}

func (t *txn) stateChange(from, to State) StateChangedEvent {
	return StateChangedEvent{
		ElectionID: t.e.params.ID,
		Address:    t.e.params.Address,
		By:         t.caller,
		From:       from,
		To:         to,
	}
}

// finish commits or discards the transaction and records the outcome. It
// must be called with the lock held.
func (t *txn) finish(op string, err error, args ...any) error {
	e := t.e
	e.config.Metrics.operations.WithLabelValues(op, reject.Outcome(err)).Inc()
	args = append([]any{"operation", op, "caller", t.caller.Hex()}, args...)
	if err != nil {
		e.logger.Debug("operation rejected", append(args, "error", err)...)
		return err
	}
	if t.started {
		if e.state == StateCreated {
			e.state = StateOngoing
		}
		e.config.Metrics.transition(StateCreated, StateOngoing)
		// The automatic start precedes the operation's own events
		t.events = append(
			[]pendingEvent{{
				eventType: StateChangedEventType,
				data:      t.stateChange(StateCreated, StateOngoing),
			}},
			t.events...,
		)
	}
	if e.config.EventBus != nil {
		for _, pe := range t.events {
			e.config.EventBus.PublishAsync(
				pe.eventType,
				event.NewEventAt(pe.eventType, pe.data, t.now),
			)
		}
	}
	e.logger.Info("operation accepted", args...)
	return nil
}

// setState moves the stored state and returns the transition event
func (t *txn) setState(to State) StateChangedEvent {
	evt := t.stateChange(t.state, to)
	t.e.state = to
	t.e.config.Metrics.transition(t.state, to)
	t.state = to
	return evt
}

func (e *Election) isManager(addr common.Address) bool {
	return addr == e.params.Creator || addr == e.params.Owner
}

// InitializeWithCandidates sets the voting rules and candidate list. It can
// run only once.
func (e *Election) InitializeWithCandidates(
	caller common.Address,
	isPublic bool,
	requireToken bool,
	tokenAmount *uint256.Int,
	candidates []CandidateInput,
) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.begin(caller)
	t.started = false
	err := e.initialize(t, isPublic, requireToken, tokenAmount, candidates)
	return t.finish("initialize", err, "candidates", len(candidates))
}

func (e *Election) initialize(
	t *txn,
	isPublic bool,
	requireToken bool,
	tokenAmount *uint256.Int,
	candidates []CandidateInput,
) error {
	if t.caller != e.params.Creator {
		return ErrNotCreator
	}
	if e.initialized {
		return ErrAlreadyInitialized
	}
	if e.state != StateCreated {
		return ErrAlreadyStarted
	}
	if len(candidates) < 2 {
		return ErrTooFewCandidates
	}
	for _, c := range candidates {
		if c.Name == "" {
			return ErrEmptyCandidateName
		}
		if c.Party == "" {
			return ErrEmptyCandidateParty
		}
		if c.Age < e.config.MinCandidateAge {
			return ErrCandidateTooYoung
		}
	}
	amount := new(uint256.Int)
	if requireToken {
		if tokenAmount == nil || tokenAmount.IsZero() {
			return ErrZeroTokenAmount
		}
		amount = tokenAmount.Clone()
	}
	e.candidates = make([]*Candidate, 0, len(candidates))
	for i, c := range candidates {
		e.candidates = append(e.candidates, &Candidate{
			ID:        uint64(i) + 1,
			Name:      c.Name,
			Party:     c.Party,
			Age:       c.Age,
			Manifesto: c.Manifesto,
			ImageRef:  c.ImageRef,
			Active:    true,
		})
	}
	e.initialized = true
	e.isPublic = isPublic
	e.requireToken = requireToken
	e.tokenAmount = amount
	t.emit(InitializedEventType, InitializedEvent{
		ElectionID:   e.params.ID,
		Address:      e.params.Address,
		IsPublic:     isPublic,
		RequireToken: requireToken,
		TokenAmount:  amount.Clone(),
		Candidates:   e.copyCandidates(false),
	})
	return nil
}

// checkOpenForVoters validates the shared preconditions of AddVoter and
// RegisterPublic
func (e *Election) checkOpenForVoters(t *txn, addr common.Address) error {
	if !e.initialized {
		return ErrNotInitialized
	}
	if t.state.Closed() {
		return ErrElectionClosed
	}
	if access.IsZero(addr) {
		return ErrZeroAddress
	}
	if _, ok := e.voters[addr]; ok {
		return ErrVoterAlreadyAdded
	}
	if e.config.Registry == nil || !e.config.Registry.IsVoterEligible(addr) {
		return ErrVoterNotEligible
	}
	return nil
}

// AddVoter registers an eligible voter for a private election
func (e *Election) AddVoter(caller common.Address, addr common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.begin(caller)
	err := e.addVoter(t, addr)
	return t.finish("addVoter", err, "voter", addr.Hex())
}

func (e *Election) addVoter(t *txn, addr common.Address) error {
	if t.caller != e.params.Creator {
		return ErrNotCreator
	}
	if e.initialized && e.isPublic {
		return ErrPublicElection
	}
	if err := e.checkOpenForVoters(t, addr); err != nil {
		return err
	}
	e.voters[addr] = &voterRecord{registeredAt: t.now}
	t.emit(VoterAddedEventType, VoterAddedEvent{
		ElectionID: e.params.ID,
		Voter:      addr,
		By:         t.caller,
	})
	return nil
}

// RegisterPublic lets an eligible caller join a public election
func (e *Election) RegisterPublic(caller common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.begin(caller)
	err := e.registerPublic(t)
	return t.finish("registerPublic", err)
}

func (e *Election) registerPublic(t *txn) error {
	if e.initialized && !e.isPublic {
		return ErrPrivateElection
	}
	if err := e.checkOpenForVoters(t, t.caller); err != nil {
		return err
	}
	e.voters[t.caller] = &voterRecord{registeredAt: t.now}
	t.emit(VoterAddedEventType, VoterAddedEvent{
		ElectionID: e.params.ID,
		Voter:      t.caller,
		By:         t.caller,
		Public:     true,
	})
	return nil
}

// Vote records the caller's single vote for candidateID. When the election
// requires credit, the credit is burned as part of the same operation and
// only if the vote is counted.
func (e *Election) Vote(
	caller common.Address,
	candidateID uint64,
	voteHash common.Hash,
) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.begin(caller)
	err := e.vote(t, candidateID, voteHash)
	return t.finish("vote", err, "candidate_id", candidateID)
}

func (e *Election) vote(t *txn, candidateID uint64, voteHash common.Hash) error {
	switch t.state {
	case StateOngoing:
	case StateCreated:
		return ErrNotStarted
	case StatePaused:
		return ErrElectionPaused
	default:
		return ErrElectionClosed
	}
	if !t.now.Before(e.params.EndTime) {
		return ErrVotingWindowClosed
	}
	if !e.initialized {
		return ErrNotInitialized
	}
	rec, ok := e.voters[t.caller]
	if !ok {
		return ErrVoterNotRegistered
	}
	if rec.hasVoted {
		return ErrAlreadyVoted
	}
	if candidateID == 0 || candidateID > uint64(len(e.candidates)) {
		return ErrInvalidCandidate
	}
	cand := e.candidates[candidateID-1]
	if !cand.Active {
		return ErrCandidateInactive
	}
	if e.config.Registry == nil || !e.config.Registry.IsVoterEligible(t.caller) {
		return ErrVoterNotEligible
	}
	var burned *uint256.Int
	if e.requireToken {
		// Last fallible step. Nothing below can fail.
		if err := e.burn(t.caller); err != nil {
			return err
		}
		burned = e.tokenAmount.Clone()
	}
	rec.hasVoted = true
	rec.candidateID = candidateID
	rec.voteHash = voteHash
	rec.votedAt = t.now
	cand.VoteCount++
	e.totalVotes++
	e.config.Metrics.votesCast.Inc()
	t.emit(VoteCastEventType, VoteCastEvent{
		ElectionID:   e.params.ID,
		Address:      e.params.Address,
		Voter:        t.caller,
		CandidateID:  candidateID,
		VoteHash:     voteHash,
		CreditBurned: burned,
	})
	return nil
}

func (e *Election) burn(voter common.Address) error {
	if e.config.Token == nil {
		return errors.New("election: credit token not configured")
	}
	err := e.config.Token.Burn(e.params.Address, voter, e.tokenAmount)
	if err == nil {
		return nil
	}
	if errors.Is(err, reject.ErrInsufficientResource) {
		return ErrInsufficientCredit
	}
	return fmt.Errorf("burn voting credit: %w", err)
}

// Pause suspends voting on an ongoing election
func (e *Election) Pause(caller common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.begin(caller)
	err := e.pause(t)
	return t.finish("pause", err)
}

func (e *Election) pause(t *txn) error {
	if !e.isManager(t.caller) {
		return ErrNotManager
	}
	if t.state != StateOngoing {
		return ErrNotOngoing
	}
	t.emit(StateChangedEventType, t.setState(StatePaused))
	return nil
}

// Resume reopens a paused election
func (e *Election) Resume(caller common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.begin(caller)
	err := e.resume(t)
	return t.finish("resume", err)
}

func (e *Election) resume(t *txn) error {
	if !e.isManager(t.caller) {
		return ErrNotManager
	}
	if t.state != StatePaused {
		return ErrNotPaused
	}
	t.emit(StateChangedEventType, t.setState(StateOngoing))
	return nil
}

// End closes an ongoing or paused election and fixes the winner. It may be
// called before the end time.
func (e *Election) End(caller common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.begin(caller)
	err := e.end(t)
	return t.finish("end", err, "winner_id", e.winnerID, "total_votes", e.totalVotes)
}

func (e *Election) end(t *txn) error {
	if !e.isManager(t.caller) {
		return ErrNotManager
	}
	if t.state != StateOngoing && t.state != StatePaused {
		return ErrCannotEnd
	}
	e.winnerID = winner(e.candidates)
	e.endedAt = t.now
	evt := t.setState(StateEnded)
	evt.WinnerID = e.winnerID
	evt.TotalVotes = e.totalVotes
	t.emit(StateChangedEventType, evt)
	return nil
}

// Finalize makes an ended election immutable
func (e *Election) Finalize(caller common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.begin(caller)
	err := e.finalize(t)
	return t.finish("finalize", err)
}

func (e *Election) finalize(t *txn) error {
	if !e.isManager(t.caller) {
		return ErrNotManager
	}
	if t.state != StateEnded {
		return ErrNotEnded
	}
	e.finalizedAt = t.now
	evt := t.setState(StateFinalized)
	evt.WinnerID = e.winnerID
	evt.TotalVotes = e.totalVotes
	t.emit(StateChangedEventType, evt)
	return nil
}

// DeactivateCandidate withdraws a candidate before the election starts
func (e *Election) DeactivateCandidate(caller common.Address, candidateID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.begin(caller)
	err := e.deactivateCandidate(t, candidateID)
	return t.finish("deactivateCandidate", err, "candidate_id", candidateID)
}

func (e *Election) deactivateCandidate(t *txn, candidateID uint64) error {
	if t.caller != e.params.Creator {
		return ErrNotCreator
	}
	if !e.initialized {
		return ErrNotInitialized
	}
	if t.state != StateCreated {
		return ErrAlreadyStarted
	}
	if candidateID == 0 || candidateID > uint64(len(e.candidates)) {
		return ErrInvalidCandidate
	}
	cand := e.candidates[candidateID-1]
	if !cand.Active {
		return ErrCandidateInactive
	}
	active := 0
	for _, c := range e.candidates {
		if c.Active {
			active++
		}
	}
	if active-1 < 2 {
		return ErrTooFewCandidates
	}
	cand.Active = false
	t.emit(CandidateDeactivatedEventType, CandidateDeactivatedEvent{
		ElectionID:  e.params.ID,
		CandidateID: candidateID,
		By:          t.caller,
	})
	return nil
}

// winner returns the candidate with the strictly highest count, breaking
// ties by lowest id. It returns 0 when no votes were cast.
func winner(candidates []*Candidate) uint64 {
	var (
		bestID    uint64
		bestCount uint64
	)
	for _, c := range candidates {
		if c.VoteCount > bestCount {
			bestID = c.ID
			bestCount = c.VoteCount
		}
	}
	return bestID
}
