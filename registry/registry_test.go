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

package registry_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/blinklabs-io/tally/event"
	"github.com/blinklabs-io/tally/internal/test/testutil"
	"github.com/blinklabs-io/tally/registry"
	"github.com/blinklabs-io/tally/reject"
)

var (
	owner = testutil.Address("owner")
	chair = testutil.Address("chair")
	v1    = testutil.Address("v1")
	v2    = testutil.Address("v2")
	kycH  = crypto.Keccak256Hash([]byte("kyc-document"))
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r, err := registry.New(registry.RegistryConfig{Owner: owner})
	require.NoError(t, err)
	return r
}

func requireCountersConsistent(t *testing.T, r *registry.Registry) {
	t.Helper()
	state := r.Snapshot()
	var want registry.Stats
	for _, v := range state.Voters {
		want.TotalVoters++
		switch v.EffectiveStatus() {
		case registry.StatusApproved:
			want.TotalApproved++
		case registry.StatusBlocked:
			want.TotalBlocked++
		}
	}
	require.Equal(t, want, r.Stats())
}

func TestNewRequiresOwner(t *testing.T) {
	_, err := registry.New(registry.RegistryConfig{})
	require.Error(t, err)
}

func TestScenarioRegisterAndApprove(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.RegisterVoter(v1, "V1", "Voter One", 25, kycH))
	info := r.VoterInfo(v1)
	assert.Equal(t, registry.StatusRegistered, info.EffectiveStatus())
	assert.Equal(t, uint64(1), r.Stats().TotalVoters)
	assert.False(t, r.IsVoterEligible(v1))

	require.NoError(t, r.ApproveVoter(owner, v1))
	assert.True(t, r.IsVoterEligible(v1))
	assert.Equal(t, uint64(1), r.Stats().TotalApproved)
	requireCountersConsistent(t, r)
}

func TestRegisterValidation(t *testing.T) {
	r := newTestRegistry(t)
	tests := []struct {
		name    string
		caller  common.Address
		id      string
		voter   string
		age     uint32
		kyc     common.Hash
		wantErr error
	}{
		{"zero address", common.Address{}, "V1", "n", 30, kycH, registry.ErrZeroAddress},
		{"empty id", v1, "", "n", 30, kycH, registry.ErrEmptyVoterID},
		{"empty name", v1, "V1", "", 30, kycH, registry.ErrEmptyName},
		{"empty kyc", v1, "V1", "n", 30, common.Hash{}, registry.ErrEmptyKYCHash},
		{"too young", v1, "V1", "n", 17, kycH, registry.ErrBelowMinimumAge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.RegisterVoter(tt.caller, tt.id, tt.voter, tt.age, tt.kyc)
			require.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, reject.ErrValidation)
		})
	}
	assert.Equal(t, registry.Stats{}, r.Stats())
}

func TestRegisterDuplicate(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.RegisterVoter(v1, "V1", "Voter One", 25, kycH))
	err := r.RegisterVoter(v1, "V9", "Again", 25, kycH)
	require.ErrorIs(t, err, registry.ErrVoterAlreadyRegistered)
	assert.ErrorIs(t, err, reject.ErrDuplicate)
	err = r.RegisterVoter(v2, "V1", "Other", 25, kycH)
	require.ErrorIs(t, err, registry.ErrVoterIDTaken)
	assert.Equal(t, uint64(1), r.Stats().TotalVoters)
}

func TestReviewRequiresChairperson(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.RegisterVoter(v1, "V1", "Voter One", 25, kycH))
	err := r.ApproveVoter(chair, v1)
	require.ErrorIs(t, err, registry.ErrNotChairperson)
	assert.ErrorIs(t, err, reject.ErrAuthorization)

	require.NoError(t, r.AddChairperson(owner, chair))
	require.NoError(t, r.ApproveVoter(chair, v1))
	assert.True(t, r.IsVoterEligible(v1))
}

func TestApproveStateErrors(t *testing.T) {
	r := newTestRegistry(t)
	require.ErrorIs(t, r.ApproveVoter(owner, v1), registry.ErrVoterNotRegistered)
	require.NoError(t, r.RegisterVoter(v1, "V1", "Voter One", 25, kycH))
	require.NoError(t, r.ApproveVoter(owner, v1))
	err := r.ApproveVoter(owner, v1)
	require.ErrorIs(t, err, registry.ErrVoterAlreadyApproved)
	assert.ErrorIs(t, err, reject.ErrState)

	require.NoError(t, r.RegisterVoter(v2, "V2", "Voter Two", 40, kycH))
	require.NoError(t, r.BlockVoter(owner, v2, "fraud review"))
	require.ErrorIs(t, r.ApproveVoter(owner, v2), registry.ErrVoterBlocked)
	requireCountersConsistent(t, r)
}

func TestRejectVoter(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.RegisterVoter(v1, "V1", "Voter One", 25, kycH))
	require.ErrorIs(t, r.RejectVoter(owner, v1, ""), registry.ErrEmptyReason)
	require.NoError(t, r.RejectVoter(owner, v1, "document mismatch"))
	info := r.VoterInfo(v1)
	assert.Equal(t, registry.StatusRejected, info.Status)
	assert.Equal(t, "document mismatch", info.RejectionReason)
	assert.False(t, r.IsVoterEligible(v1))
	// Rejected is terminal
	require.ErrorIs(t, r.ApproveVoter(owner, v1), registry.ErrVoterNotPending)
	require.ErrorIs(t, r.RejectVoter(owner, v1, "again"), registry.ErrVoterNotPending)

	require.NoError(t, r.RegisterVoter(v2, "V2", "Voter Two", 25, kycH))
	require.NoError(t, r.ApproveVoter(owner, v2))
	require.ErrorIs(t, r.RejectVoter(owner, v2, "late"), registry.ErrVoterAlreadyApproved)
	requireCountersConsistent(t, r)
}

func TestBlockUnblockRestoresEligibility(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.RegisterVoter(v1, "V1", "Voter One", 25, kycH))
	require.NoError(t, r.ApproveVoter(owner, v1))
	before := r.Stats()

	require.NoError(t, r.BlockVoter(owner, v1, "suspicious activity"))
	assert.False(t, r.IsVoterEligible(v1))
	assert.Equal(t, registry.StatusBlocked, r.VoterInfo(v1).EffectiveStatus())
	assert.Equal(t, uint64(0), r.Stats().TotalApproved)
	assert.Equal(t, uint64(1), r.Stats().TotalBlocked)
	requireCountersConsistent(t, r)

	require.ErrorIs(t, r.BlockVoter(owner, v1, "again"), registry.ErrVoterAlreadyBlocked)

	require.NoError(t, r.UnblockVoter(owner, v1))
	assert.True(t, r.IsVoterEligible(v1))
	assert.Equal(t, registry.StatusApproved, r.VoterInfo(v1).EffectiveStatus())
	assert.Equal(t, before, r.Stats())
	require.ErrorIs(t, r.UnblockVoter(owner, v1), registry.ErrVoterNotBlocked)
}

func TestBlockRegisteredVoterKeepsStatus(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.RegisterVoter(v1, "V1", "Voter One", 25, kycH))
	require.ErrorIs(t, r.BlockVoter(owner, v1, ""), registry.ErrEmptyReason)
	require.NoError(t, r.BlockVoter(owner, v1, "pending investigation"))
	assert.Equal(t, uint64(0), r.Stats().TotalApproved)
	require.NoError(t, r.UnblockVoter(owner, v1))
	assert.Equal(t, registry.StatusRegistered, r.VoterInfo(v1).EffectiveStatus())
	requireCountersConsistent(t, r)
}

func TestChairpersonManagement(t *testing.T) {
	r := newTestRegistry(t)
	assert.True(t, r.IsChairperson(owner))
	require.ErrorIs(t, r.AddChairperson(chair, chair), registry.ErrNotOwner)
	require.ErrorIs(t, r.AddChairperson(owner, common.Address{}), registry.ErrZeroAddress)
	require.NoError(t, r.AddChairperson(owner, chair))
	err := r.AddChairperson(owner, chair)
	require.ErrorIs(t, err, registry.ErrAlreadyChairperson)
	assert.ErrorIs(t, err, reject.ErrDuplicate)
	require.ErrorIs(t, r.RemoveChairperson(owner, owner), registry.ErrCannotRemoveOwner)
	require.NoError(t, r.RemoveChairperson(owner, chair))
	require.ErrorIs(t, r.RemoveChairperson(owner, chair), registry.ErrNotAChairperson)
	assert.False(t, r.IsChairperson(chair))
}

func TestOwnerOperations(t *testing.T) {
	r := newTestRegistry(t)
	assert.Equal(t, uint32(registry.DefaultMinVotingAge), r.MinVotingAge())
	require.ErrorIs(t, r.UpdateMinVotingAge(chair, 21), registry.ErrNotOwner)
	require.ErrorIs(t, r.UpdateMinVotingAge(owner, 0), registry.ErrInvalidMinimumAge)
	require.NoError(t, r.UpdateMinVotingAge(owner, 21))
	require.ErrorIs(
		t,
		r.RegisterVoter(v1, "V1", "Voter One", 20, kycH),
		registry.ErrBelowMinimumAge,
	)

	require.ErrorIs(t, r.TransferOwnership(owner, common.Address{}), registry.ErrZeroAddress)
	require.NoError(t, r.TransferOwnership(owner, chair))
	assert.Equal(t, chair, r.Owner())
	assert.True(t, r.IsChairperson(chair))
	require.ErrorIs(t, r.UpdateMinVotingAge(owner, 30), registry.ErrNotOwner)
}

func TestVoterQueries(t *testing.T) {
	r := newTestRegistry(t)
	info := r.VoterInfo(v1)
	assert.Equal(t, registry.StatusUnregistered, info.Status)
	_, err := r.VoterByID("V1")
	require.ErrorIs(t, err, reject.ErrNotFound)
	require.NoError(t, r.RegisterVoter(v1, "V1", "Voter One", 25, kycH))
	v, err := r.VoterByID("V1")
	require.NoError(t, err)
	assert.Equal(t, v1, v.Address)
	assert.Equal(t, kycH, v.KYCHash)
}

func TestTimestampsUseClock(t *testing.T) {
	clock := testutil.NewFakeClock(time.Unix(1_700_000_000, 0))
	r, err := registry.New(registry.RegistryConfig{Owner: owner, Now: clock.Now})
	require.NoError(t, err)
	require.NoError(t, r.RegisterVoter(v1, "V1", "Voter One", 25, kycH))
	clock.Advance(time.Hour)
	require.NoError(t, r.ApproveVoter(owner, v1))
	info := r.VoterInfo(v1)
	assert.Equal(t, time.Unix(1_700_000_000, 0), info.RegisteredAt)
	assert.Equal(t, time.Unix(1_700_003_600, 0), info.ApprovedAt)
}

func TestEventsPublished(t *testing.T) {
	defer goleak.VerifyNone(t)
	bus := event.NewEventBus(nil, nil)
	defer bus.Stop()
	_, regCh := bus.Subscribe(registry.VoterRegisteredEventType)
	_, apprCh := bus.Subscribe(registry.VoterApprovedEventType)
	r, err := registry.New(registry.RegistryConfig{Owner: owner, EventBus: bus})
	require.NoError(t, err)
	require.NoError(t, r.RegisterVoter(v1, "V1", "Voter One", 25, kycH))
	require.NoError(t, r.ApproveVoter(owner, v1))
	evt := testutil.RequireReceive(t, regCh, time.Second, "voter registered")
	data := evt.Data.(registry.VoterEvent)
	assert.Equal(t, v1, data.Voter)
	assert.Equal(t, "V1", data.VoterID)
	evt = testutil.RequireReceive(t, apprCh, time.Second, "voter approved")
	assert.Equal(t, owner, evt.Data.(registry.VoterEvent).By)
	// Rejected operations publish nothing
	require.Error(t, r.ApproveVoter(owner, v1))
	testutil.RequireNoReceive(t, apprCh, 50*time.Millisecond, "no event on rejection")
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := registry.New(registry.RegistryConfig{Owner: owner, PromRegistry: reg})
	require.NoError(t, err)
	require.NoError(t, r.RegisterVoter(v1, "V1", "Voter One", 25, kycH))
	require.Error(t, r.RegisterVoter(v1, "V1", "Voter One", 25, kycH))
	require.NoError(t, r.ApproveVoter(owner, v1))
	count, err := promtest.GatherAndCount(reg, "tally_registry_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	families, err := reg.Gather()
	require.NoError(t, err)
	gauges := map[string]float64{}
	for _, mf := range families {
		if mf.GetType().String() == "GAUGE" {
			gauges[mf.GetName()] = mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	assert.InDelta(t, 1.0, gauges["tally_registry_voters"], 0)
	assert.InDelta(t, 1.0, gauges["tally_registry_voters_approved"], 0)
	assert.InDelta(t, 0.0, gauges["tally_registry_voters_blocked"], 0)
}

func TestStateRestore(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.AddChairperson(owner, chair))
	require.NoError(t, r.RegisterVoter(v1, "V1", "Voter One", 25, kycH))
	require.NoError(t, r.RegisterVoter(v2, "V2", "Voter Two", 30, kycH))
	require.NoError(t, r.ApproveVoter(chair, v1))
	require.NoError(t, r.ApproveVoter(chair, v2))
	require.NoError(t, r.BlockVoter(chair, v2, "sanctioned"))
	state := r.Snapshot()

	restored := newTestRegistry(t)
	require.NoError(t, restored.Restore(state))
	assert.Equal(t, r.Stats(), restored.Stats())
	assert.True(t, restored.IsVoterEligible(v1))
	assert.False(t, restored.IsVoterEligible(v2))
	assert.True(t, restored.IsChairperson(chair))
	_, err := restored.VoterByID("V2")
	require.NoError(t, err)

	state.Voters = append(state.Voters, state.Voters[0])
	require.Error(t, restored.Restore(state))
}
