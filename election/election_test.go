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

package election_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/blinklabs-io/tally/credit"
	"github.com/blinklabs-io/tally/election"
	"github.com/blinklabs-io/tally/event"
	"github.com/blinklabs-io/tally/internal/test/testutil"
	"github.com/blinklabs-io/tally/registry"
	"github.com/blinklabs-io/tally/reject"
)

var (
	baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	owner    = testutil.Address("owner")
	creator  = testutil.Address("creator")
	elAddr   = testutil.Address("election-1")
	kycH     = crypto.Keccak256Hash([]byte("kyc"))
)

type fixture struct {
	clock    *testutil.FakeClock
	registry *registry.Registry
	token    *credit.Token
	election *election.Election
	bus      *event.EventBus
	metrics  *election.Metrics
	promReg  *prometheus.Registry
}

type fixtureOpt func(*election.Params)

func withRealtimeResults(p *election.Params) {
	p.AllowRealtimeResults = true
}

func newFixture(t *testing.T, opts ...fixtureOpt) *fixture {
	t.Helper()
	f := &fixture{
		clock:   testutil.NewFakeClock(baseTime),
		promReg: prometheus.NewRegistry(),
	}
	var err error
	f.registry, err = registry.New(registry.RegistryConfig{Owner: owner, Now: f.clock.Now})
	require.NoError(t, err)
	f.token, err = credit.New(credit.TokenConfig{Owner: owner, Now: f.clock.Now})
	require.NoError(t, err)
	require.NoError(t, f.token.AddMinter(owner, elAddr))
	f.metrics = election.NewMetrics(f.promReg)
	params := election.Params{
		ID:        1,
		Address:   elAddr,
		Creator:   creator,
		Owner:     owner,
		Title:     "Board election",
		StartTime: baseTime.Add(100 * time.Second),
		EndTime:   baseTime.Add(200 * time.Second),
		CreatedAt: baseTime,
	}
	for _, opt := range opts {
		opt(&params)
	}
	f.election, err = election.New(f.config(), params)
	require.NoError(t, err)
	return f
}

func (f *fixture) config() election.Config {
	cfg := election.Config{
		Registry: f.registry,
		Token:    f.token,
		Metrics:  f.metrics,
		Now:      f.clock.Now,
	}
	if f.bus != nil {
		cfg.EventBus = f.bus
	}
	return cfg
}

func twoCandidates() []election.CandidateInput {
	return []election.CandidateInput{
		{Name: "Alice", Party: "Blue", Age: 40},
		{Name: "Bob", Party: "Green", Age: 35},
	}
}

// approvedVoter registers and approves a fresh voter
func (f *fixture) approvedVoter(t *testing.T, label string) common.Address {
	t.Helper()
	addr := testutil.Address(label)
	require.NoError(t, f.registry.RegisterVoter(addr, label, "Voter "+label, 30, kycH))
	require.NoError(t, f.registry.ApproveVoter(owner, addr))
	return addr
}

func (f *fixture) initPrivate(t *testing.T) {
	t.Helper()
	require.NoError(t, f.election.InitializeWithCandidates(creator, false, false, nil, twoCandidates()))
}

func (f *fixture) start() {
	f.clock.Set(baseTime.Add(100 * time.Second))
}

func requireTallyConsistent(t *testing.T, e *election.Election) {
	t.Helper()
	snap := e.Snapshot()
	var sum uint64
	for _, c := range snap.Candidates {
		sum += c.VoteCount
	}
	require.Equal(t, snap.TotalVotes, sum)
}

func TestNewElectionIsCreated(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, election.StateCreated, f.election.State())
	info := f.election.Info()
	assert.Equal(t, uint64(1), info.ID)
	assert.Equal(t, elAddr, info.Address)
	assert.False(t, info.Initialized)
}

func TestNewElectionValidation(t *testing.T) {
	_, err := election.New(election.Config{}, election.Params{Creator: creator})
	require.Error(t, err)
	_, err = election.New(election.Config{}, election.Params{ID: 1})
	require.Error(t, err)
	_, err = election.New(election.Config{}, election.Params{
		ID:        1,
		Creator:   creator,
		StartTime: baseTime,
		EndTime:   baseTime,
	})
	require.Error(t, err)
}

func TestScenarioAutoStartOnFirstVote(t *testing.T) {
	f := newFixture(t)
	f.initPrivate(t)
	v1 := f.approvedVoter(t, "V1")
	require.NoError(t, f.election.AddVoter(creator, v1))

	f.clock.Set(baseTime.Add(99 * time.Second))
	err := f.election.Vote(v1, 1, common.Hash{1})
	require.ErrorIs(t, err, election.ErrNotStarted)
	assert.ErrorIs(t, err, reject.ErrState)
	assert.Equal(t, election.StateCreated, f.election.State())

	f.start()
	require.NoError(t, f.election.Vote(v1, 1, common.Hash{1}))
	assert.Equal(t, election.StateOngoing, f.election.State())
	assert.True(t, f.election.HasVoted(v1))
	assert.Equal(t, uint64(1), f.election.Info().TotalVotes)
}

func TestAutoStartNotCommittedOnRejection(t *testing.T) {
	f := newFixture(t)
	f.initPrivate(t)
	stranger := f.approvedVoter(t, "stranger")
	f.start()
	require.ErrorIs(t, f.election.Vote(stranger, 1, common.Hash{}), election.ErrVoterNotRegistered)
	assert.Equal(t, election.StateCreated, f.election.State())
	// A successful management call commits the start
	require.NoError(t, f.election.Pause(creator))
	assert.Equal(t, election.StatePaused, f.election.State())
}

func TestScenarioPrivateElectionRejectsOutsiders(t *testing.T) {
	f := newFixture(t)
	f.initPrivate(t)
	outsider := f.approvedVoter(t, "outsider")
	err := f.election.RegisterPublic(outsider)
	require.ErrorIs(t, err, election.ErrPrivateElection)
	assert.ErrorIs(t, err, reject.ErrAuthorization)
	f.start()
	err = f.election.Vote(outsider, 1, common.Hash{})
	require.ErrorIs(t, err, election.ErrVoterNotRegistered)
	assert.ErrorIs(t, err, reject.ErrAuthorization)
}

func TestScenarioHigherCountWins(t *testing.T) {
	f := newFixture(t)
	f.initPrivate(t)
	v1 := f.approvedVoter(t, "V1")
	v2 := f.approvedVoter(t, "V2")
	v3 := f.approvedVoter(t, "V3")
	for _, v := range []common.Address{v1, v2, v3} {
		require.NoError(t, f.election.AddVoter(creator, v))
	}
	f.start()
	require.NoError(t, f.election.Vote(v1, 2, common.Hash{1}))
	require.NoError(t, f.election.Vote(v2, 1, common.Hash{2}))
	require.NoError(t, f.election.Vote(v3, 2, common.Hash{3}))
	require.NoError(t, f.election.End(creator))
	win, ok, err := f.election.Winner()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(2), win.ID)
	assert.Equal(t, uint64(2), win.VoteCount)
	requireTallyConsistent(t, f.election)
}

// Equal counts resolve to the lowest candidate id
func TestTieBreaksToLowestCandidateID(t *testing.T) {
	f := newFixture(t)
	f.initPrivate(t)
	v1 := f.approvedVoter(t, "V1")
	v2 := f.approvedVoter(t, "V2")
	require.NoError(t, f.election.AddVoter(creator, v1))
	require.NoError(t, f.election.AddVoter(creator, v2))
	f.start()
	require.NoError(t, f.election.Vote(v1, 2, common.Hash{1}))
	require.NoError(t, f.election.Vote(v2, 1, common.Hash{2}))
	require.NoError(t, f.election.End(owner))
	win, ok, err := f.election.Winner()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1), win.ID)
}

func TestNoVotesNoWinner(t *testing.T) {
	f := newFixture(t)
	f.initPrivate(t)
	f.start()
	require.NoError(t, f.election.End(creator))
	_, ok, err := f.election.Winner()
	require.NoError(t, err)
	assert.False(t, ok)
	res, err := f.election.Results()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), res.WinnerID)
	assert.True(t, res.Final)
}

func TestVoteOnlyOnce(t *testing.T) {
	f := newFixture(t)
	f.initPrivate(t)
	v1 := f.approvedVoter(t, "V1")
	require.NoError(t, f.election.AddVoter(creator, v1))
	f.start()
	require.NoError(t, f.election.Vote(v1, 1, common.Hash{1}))
	err := f.election.Vote(v1, 2, common.Hash{2})
	require.ErrorIs(t, err, election.ErrAlreadyVoted)
	assert.ErrorIs(t, err, reject.ErrState)
	status := f.election.VoterStatus(v1)
	assert.Equal(t, uint64(1), status.CandidateID)
	assert.Equal(t, common.Hash{1}, status.VoteHash)
	requireTallyConsistent(t, f.election)
}

func TestVoteCandidateChecks(t *testing.T) {
	f := newFixture(t)
	f.initPrivate(t)
	v1 := f.approvedVoter(t, "V1")
	require.NoError(t, f.election.AddVoter(creator, v1))
	f.start()
	require.ErrorIs(t, f.election.Vote(v1, 0, common.Hash{}), election.ErrInvalidCandidate)
	err := f.election.Vote(v1, 3, common.Hash{})
	require.ErrorIs(t, err, election.ErrInvalidCandidate)
	assert.ErrorIs(t, err, reject.ErrValidation)
	assert.False(t, f.election.HasVoted(v1))
}

func TestVoteRechecksEligibility(t *testing.T) {
	f := newFixture(t)
	f.initPrivate(t)
	v1 := f.approvedVoter(t, "V1")
	require.NoError(t, f.election.AddVoter(creator, v1))
	require.NoError(t, f.registry.BlockVoter(owner, v1, "investigation"))
	f.start()
	err := f.election.Vote(v1, 1, common.Hash{})
	require.ErrorIs(t, err, election.ErrVoterNotEligible)
	assert.ErrorIs(t, err, reject.ErrAuthorization)
	require.NoError(t, f.registry.UnblockVoter(owner, v1))
	require.NoError(t, f.election.Vote(v1, 1, common.Hash{}))
}

func TestVoteWindowClosed(t *testing.T) {
	f := newFixture(t)
	f.initPrivate(t)
	v1 := f.approvedVoter(t, "V1")
	require.NoError(t, f.election.AddVoter(creator, v1))
	f.clock.Set(baseTime.Add(200 * time.Second))
	err := f.election.Vote(v1, 1, common.Hash{})
	require.ErrorIs(t, err, election.ErrVotingWindowClosed)
	assert.ErrorIs(t, err, reject.ErrState)
}

func TestTokenGatedVoteBurnsCredit(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.election.InitializeWithCandidates(
		creator, false, true, uint256.NewInt(5), twoCandidates(),
	))
	v1 := f.approvedVoter(t, "V1")
	require.NoError(t, f.election.AddVoter(creator, v1))
	require.NoError(t, f.token.Mint(owner, v1, uint256.NewInt(7)))
	f.start()
	require.NoError(t, f.election.Vote(v1, 1, common.Hash{1}))
	assert.Equal(t, uint64(2), f.token.BalanceOf(v1).Uint64())
	assert.Equal(t, uint64(2), f.token.TotalSupply().Uint64())
}

func TestInsufficientCreditLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.election.InitializeWithCandidates(
		creator, false, true, uint256.NewInt(5), twoCandidates(),
	))
	v1 := f.approvedVoter(t, "V1")
	require.NoError(t, f.election.AddVoter(creator, v1))
	require.NoError(t, f.token.Mint(owner, v1, uint256.NewInt(4)))
	f.start()
	err := f.election.Vote(v1, 1, common.Hash{1})
	require.ErrorIs(t, err, election.ErrInsufficientCredit)
	assert.ErrorIs(t, err, reject.ErrInsufficientResource)
	assert.Equal(t, uint64(4), f.token.BalanceOf(v1).Uint64())
	assert.False(t, f.election.HasVoted(v1))
	assert.Equal(t, uint64(0), f.election.Info().TotalVotes)
	assert.Equal(t, election.StateCreated, f.election.State())

	// A second attempt after topping up burns exactly once
	require.NoError(t, f.token.Mint(owner, v1, uint256.NewInt(1)))
	require.NoError(t, f.election.Vote(v1, 1, common.Hash{1}))
	assert.True(t, f.token.BalanceOf(v1).IsZero())
	require.ErrorIs(t, f.election.Vote(v1, 1, common.Hash{1}), election.ErrAlreadyVoted)
	assert.True(t, f.token.BalanceOf(v1).IsZero())
}

func TestBurnWithoutMinterRoleFails(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.token.RemoveMinter(owner, elAddr))
	require.NoError(t, f.election.InitializeWithCandidates(
		creator, false, true, uint256.NewInt(1), twoCandidates(),
	))
	v1 := f.approvedVoter(t, "V1")
	require.NoError(t, f.election.AddVoter(creator, v1))
	require.NoError(t, f.token.Mint(owner, v1, uint256.NewInt(1)))
	f.start()
	err := f.election.Vote(v1, 1, common.Hash{})
	require.ErrorIs(t, err, credit.ErrNotMinter)
	assert.False(t, f.election.HasVoted(v1))
	assert.Equal(t, uint64(1), f.token.BalanceOf(v1).Uint64())
}

func TestInitializeValidation(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(
		t,
		f.election.InitializeWithCandidates(owner, false, false, nil, twoCandidates()),
		election.ErrNotCreator,
	)
	tests := []struct {
		name       string
		candidates []election.CandidateInput
		token      bool
		amount     *uint256.Int
		wantErr    error
	}{
		{"one candidate", twoCandidates()[:1], false, nil, election.ErrTooFewCandidates},
		{"empty name", []election.CandidateInput{{Party: "x", Age: 30}, twoCandidates()[1]}, false, nil, election.ErrEmptyCandidateName},
		{"empty party", []election.CandidateInput{{Name: "x", Age: 30}, twoCandidates()[1]}, false, nil, election.ErrEmptyCandidateParty},
		{"too young", []election.CandidateInput{{Name: "x", Party: "y", Age: 17}, twoCandidates()[1]}, false, nil, election.ErrCandidateTooYoung},
		{"zero token amount", twoCandidates(), true, uint256.NewInt(0), election.ErrZeroTokenAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.election.InitializeWithCandidates(creator, false, tt.token, tt.amount, tt.candidates)
			require.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, reject.ErrValidation)
		})
	}
	assert.False(t, f.election.Info().Initialized)

	f.initPrivate(t)
	cands := f.election.Candidates()
	require.Len(t, cands, 2)
	assert.Equal(t, uint64(1), cands[0].ID)
	assert.Equal(t, uint64(2), cands[1].ID)
	err := f.election.InitializeWithCandidates(creator, false, false, nil, twoCandidates())
	require.ErrorIs(t, err, election.ErrAlreadyInitialized)
	assert.ErrorIs(t, err, reject.ErrState)
}

func TestAddVoterRules(t *testing.T) {
	f := newFixture(t)
	v1 := f.approvedVoter(t, "V1")
	require.ErrorIs(t, f.election.AddVoter(creator, v1), election.ErrNotInitialized)
	f.initPrivate(t)
	require.ErrorIs(t, f.election.AddVoter(owner, v1), election.ErrNotCreator)
	pending := testutil.Address("pending")
	require.NoError(t, f.registry.RegisterVoter(pending, "P", "Pending", 30, kycH))
	require.ErrorIs(t, f.election.AddVoter(creator, pending), election.ErrVoterNotEligible)
	require.NoError(t, f.election.AddVoter(creator, v1))
	err := f.election.AddVoter(creator, v1)
	require.ErrorIs(t, err, election.ErrVoterAlreadyAdded)
	assert.ErrorIs(t, err, reject.ErrDuplicate)
	assert.Equal(t, uint64(1), f.election.Info().TotalVoters)
}

func TestPublicRegistration(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.election.InitializeWithCandidates(creator, true, false, nil, twoCandidates()))
	v1 := f.approvedVoter(t, "V1")
	require.ErrorIs(t, f.election.AddVoter(creator, v1), election.ErrPublicElection)
	unapproved := testutil.Address("unapproved")
	require.ErrorIs(t, f.election.RegisterPublic(unapproved), election.ErrVoterNotEligible)
	require.NoError(t, f.election.RegisterPublic(v1))
	require.ErrorIs(t, f.election.RegisterPublic(v1), election.ErrVoterAlreadyAdded)
	f.start()
	require.NoError(t, f.election.Vote(v1, 2, common.Hash{9}))
}

func TestStateMachine(t *testing.T) {
	f := newFixture(t)
	f.initPrivate(t)
	v1 := f.approvedVoter(t, "V1")
	require.NoError(t, f.election.AddVoter(creator, v1))

	require.ErrorIs(t, f.election.End(creator), election.ErrCannotEnd)
	require.ErrorIs(t, f.election.Pause(creator), election.ErrNotOngoing)
	require.ErrorIs(t, f.election.Resume(creator), election.ErrNotPaused)

	f.start()
	stranger := testutil.Address("stranger")
	require.ErrorIs(t, f.election.Pause(stranger), election.ErrNotManager)
	require.NoError(t, f.election.Pause(owner))
	require.ErrorIs(t, f.election.Pause(creator), election.ErrNotOngoing)
	require.ErrorIs(t, f.election.Vote(v1, 1, common.Hash{}), election.ErrElectionPaused)
	require.NoError(t, f.election.Resume(creator))
	require.NoError(t, f.election.Vote(v1, 1, common.Hash{}))
	require.NoError(t, f.election.Pause(creator))
	require.NoError(t, f.election.End(creator))
	assert.Equal(t, election.StateEnded, f.election.State())

	for _, err := range []error{
		f.election.Vote(v1, 1, common.Hash{}),
		f.election.Pause(creator),
		f.election.Resume(creator),
		f.election.End(creator),
		f.election.AddVoter(creator, v1),
	} {
		assert.ErrorIs(t, err, reject.ErrState)
	}
	require.NoError(t, f.election.Finalize(creator))
	assert.Equal(t, election.StateFinalized, f.election.State())
	require.ErrorIs(t, f.election.Finalize(creator), election.ErrNotEnded)
	require.ErrorIs(t, f.election.Vote(v1, 1, common.Hash{}), election.ErrElectionClosed)
	require.ErrorIs(t, f.election.Pause(owner), election.ErrNotOngoing)
}

func TestDeactivateCandidate(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.election.InitializeWithCandidates(creator, false, false, nil, append(
		twoCandidates(),
		election.CandidateInput{Name: "Carol", Party: "Red", Age: 50},
	)))
	require.ErrorIs(t, f.election.DeactivateCandidate(owner, 3), election.ErrNotCreator)
	require.ErrorIs(t, f.election.DeactivateCandidate(creator, 4), election.ErrInvalidCandidate)
	require.NoError(t, f.election.DeactivateCandidate(creator, 3))
	require.ErrorIs(t, f.election.DeactivateCandidate(creator, 3), election.ErrCandidateInactive)
	require.ErrorIs(t, f.election.DeactivateCandidate(creator, 2), election.ErrTooFewCandidates)

	v1 := f.approvedVoter(t, "V1")
	require.NoError(t, f.election.AddVoter(creator, v1))
	f.start()
	require.ErrorIs(t, f.election.DeactivateCandidate(creator, 1), election.ErrAlreadyStarted)
	require.ErrorIs(t, f.election.Vote(v1, 3, common.Hash{}), election.ErrCandidateInactive)
	require.NoError(t, f.election.Vote(v1, 2, common.Hash{}))
}

func TestResultsHiddenUntilEnded(t *testing.T) {
	f := newFixture(t)
	f.initPrivate(t)
	v1 := f.approvedVoter(t, "V1")
	require.NoError(t, f.election.AddVoter(creator, v1))
	f.start()
	require.NoError(t, f.election.Vote(v1, 1, common.Hash{}))
	_, err := f.election.Results()
	require.ErrorIs(t, err, election.ErrResultsHidden)
	for _, c := range f.election.Candidates() {
		assert.Equal(t, uint64(0), c.VoteCount)
	}
	_, _, err = f.election.Winner()
	require.ErrorIs(t, err, election.ErrNotEnded)
	require.NoError(t, f.election.End(creator))
	res, err := f.election.Results()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Candidates[0].VoteCount)
	assert.Equal(t, uint64(1), res.WinnerID)
}

func TestRealtimeResults(t *testing.T) {
	f := newFixture(t, withRealtimeResults)
	f.initPrivate(t)
	v1 := f.approvedVoter(t, "V1")
	require.NoError(t, f.election.AddVoter(creator, v1))
	f.start()
	require.NoError(t, f.election.Vote(v1, 2, common.Hash{}))
	res, err := f.election.Results()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Candidates[1].VoteCount)
	assert.Equal(t, uint64(0), res.WinnerID)
	assert.False(t, res.Final)
	assert.Equal(t, uint64(1), f.election.Candidates()[1].VoteCount)
}

func TestEventsOrder(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFixture(t)
	f.bus = event.NewEventBus(nil, nil)
	defer f.bus.Stop()
	var err error
	f.election, err = election.New(f.config(), f.election.Params())
	require.NoError(t, err)
	_, stateCh := f.bus.Subscribe(election.StateChangedEventType)
	_, voteCh := f.bus.Subscribe(election.VoteCastEventType)
	f.initPrivate(t)
	v1 := f.approvedVoter(t, "V1")
	require.NoError(t, f.election.AddVoter(creator, v1))
	f.start()
	require.NoError(t, f.election.Vote(v1, 1, common.Hash{7}))

	started := testutil.RequireReceive(t, stateCh, time.Second, "auto start")
	change := started.Data.(election.StateChangedEvent)
	assert.Equal(t, election.StateCreated, change.From)
	assert.Equal(t, election.StateOngoing, change.To)
	cast := testutil.RequireReceive(t, voteCh, time.Second, "vote cast")
	assert.Greater(t, cast.Sequence, started.Sequence)
	vote := cast.Data.(election.VoteCastEvent)
	assert.Equal(t, v1, vote.Voter)
	assert.Equal(t, common.Hash{7}, vote.VoteHash)
	assert.Nil(t, vote.CreditBurned)

	require.NoError(t, f.election.End(creator))
	ended := testutil.RequireReceive(t, stateCh, time.Second, "ended")
	change = ended.Data.(election.StateChangedEvent)
	assert.Equal(t, election.StateEnded, change.To)
	assert.Equal(t, uint64(1), change.WinnerID)
	assert.Equal(t, uint64(1), change.TotalVotes)
}

func TestMetricsTrackStates(t *testing.T) {
	f := newFixture(t)
	f.initPrivate(t)
	f.start()
	require.NoError(t, f.election.Pause(creator))
	count, err := promtest.GatherAndCount(f.promReg, "tally_elections")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	families, err := f.promReg.Gather()
	require.NoError(t, err)
	states := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "tally_elections" {
			continue
		}
		for _, m := range mf.GetMetric() {
			states[m.GetLabel()[0].GetValue()] = m.GetGauge().GetValue()
		}
	}
	assert.InDelta(t, 0.0, states["created"], 0)
	assert.InDelta(t, 0.0, states["ongoing"], 0)
	assert.InDelta(t, 1.0, states["paused"], 0)
}

func TestSnapshotRestore(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.election.InitializeWithCandidates(
		creator, false, true, uint256.NewInt(1), twoCandidates(),
	))
	v1 := f.approvedVoter(t, "V1")
	v2 := f.approvedVoter(t, "V2")
	require.NoError(t, f.election.AddVoter(creator, v1))
	require.NoError(t, f.election.AddVoter(creator, v2))
	require.NoError(t, f.token.Mint(owner, v1, uint256.NewInt(1)))
	f.start()
	require.NoError(t, f.election.Vote(v1, 2, common.Hash{3}))
	snap := f.election.Snapshot()

	restored, err := election.Restore(f.config(), snap)
	require.NoError(t, err)
	assert.Equal(t, f.election.Info(), restored.Info())
	assert.True(t, restored.HasVoted(v1))
	assert.Equal(t, f.election.VoterStatus(v1), restored.VoterStatus(v1))
	require.ErrorIs(t, restored.Vote(v1, 1, common.Hash{}), election.ErrAlreadyVoted)

	bad := snap
	bad.TotalVotes = 5
	_, err = election.Restore(f.config(), bad)
	require.Error(t, err)
}

func TestConcurrentVotesKeepTallyConsistent(t *testing.T) {
	f := newFixture(t, withRealtimeResults)
	f.initPrivate(t)
	const voters = 40
	addrs := make([]common.Address, 0, voters)
	for i := range voters {
		v := f.approvedVoter(t, fmt.Sprintf("voter-%d", i))
		require.NoError(t, f.election.AddVoter(creator, v))
		addrs = append(addrs, v)
	}
	f.start()
	var wg sync.WaitGroup
	for i, v := range addrs {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = f.election.Vote(v, uint64(i%2)+1, common.Hash{})
		}()
		go func() {
			defer wg.Done()
			// Duplicate attempt must never count
			_ = f.election.Vote(v, uint64(i%2)+1, common.Hash{})
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(voters), f.election.Info().TotalVotes)
	requireTallyConsistent(t, f.election)
}
