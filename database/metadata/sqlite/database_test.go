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

package sqlite_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/tally/database/metadata/sqlite"
	"github.com/blinklabs-io/tally/database/models"
)

func newTestStore(t *testing.T) *sqlite.MetadataStoreSqlite {
	t.Helper()
	store, err := sqlite.New("", nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestInMemoryStoresAreIsolated(t *testing.T) {
	a := newTestStore(t)
	b := newTestStore(t)
	require.NoError(t, a.SetElection(models.Election{ID: 1, Title: "A", Address: []byte{1}}, nil))
	got, err := b.GetElection(1, nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCommitTimestamp(t *testing.T) {
	store := newTestStore(t)
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Zero(t, ts)
	require.NoError(t, store.SetCommitTimestamp(nil, 10))
	require.NoError(t, store.SetCommitTimestamp(nil, 20))
	ts, err = store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(20), ts)
}

func TestAuditEvents(t *testing.T) {
	store := newTestStore(t)
	now := time.Unix(1_700_000_000, 0).UTC()
	for i, typ := range []string{"registry.voter_registered", "election.vote_cast", "registry.voter_registered"} {
		require.NoError(t, store.AddAuditEvent(models.AuditEvent{
			EventID:   string(rune('a' + i)),
			Sequence:  uint64(i) + 1,
			Type:      typ,
			Timestamp: now,
			Data:      []byte(`{}`),
		}, nil))
	}
	// Same event id is stored once
	require.NoError(t, store.AddAuditEvent(models.AuditEvent{EventID: "a", Sequence: 1, Type: "x"}, nil))

	all, err := store.GetAuditEvents("", 0, 0, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "registry.voter_registered", all[0].Type)

	filtered, err := store.GetAuditEvents("registry.voter_registered", 1, 0, nil)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, uint64(3), filtered[0].Sequence)

	limited, err := store.GetAuditEvents("", 0, 2, nil)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestElectionIndex(t *testing.T) {
	store := newTestStore(t)
	start := time.Unix(1_700_000_100, 0).UTC()
	require.NoError(t, store.SetElection(models.Election{
		ID:        2,
		Title:     "Council",
		Address:   []byte{2},
		State:     "created",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}, nil))
	require.NoError(t, store.SetElection(models.Election{ID: 1, Title: "Board", Address: []byte{1}, State: "created"}, nil))
	for range 7 {
		require.NoError(t, store.IncrementElectionVotes(2, nil))
	}
	require.NoError(t, store.UpdateElectionState(2, "ended", nil))
	require.NoError(t, store.SetElectionResult(2, 1, 7, nil))
	// Unknown ids are ignored
	require.NoError(t, store.UpdateElectionState(9, "ended", nil))

	got, err := store.GetElection(2, nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ended", got.State)
	assert.Equal(t, uint64(1), got.WinnerID)
	assert.Equal(t, uint64(7), got.TotalVotes)
	assert.True(t, start.Equal(got.StartTime))

	all, err := store.GetElections(nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Board", all[0].Title)
}

func TestVoteCommitments(t *testing.T) {
	store := newTestStore(t)
	vote := models.VoteCommitment{ElectionID: 1, Voter: []byte{9}, CandidateID: 2, VoteHash: []byte{7}}
	added, err := store.AddVoteCommitment(vote, nil)
	require.NoError(t, err)
	assert.True(t, added)
	vote.CandidateID = 1
	added, err = store.AddVoteCommitment(vote, nil)
	require.NoError(t, err)
	assert.False(t, added)
	added, err = store.AddVoteCommitment(models.VoteCommitment{ElectionID: 2, Voter: []byte{9}}, nil)
	require.NoError(t, err)
	assert.True(t, added)
	votes, err := store.GetVoteCommitments(1, nil)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, uint64(2), votes[0].CandidateID)
}

func TestTransactionRollback(t *testing.T) {
	store := newTestStore(t)
	txn := store.Transaction()
	require.NoError(t, store.SetElection(models.Election{ID: 1, Title: "Board", Address: []byte{1}}, txn))
	require.NoError(t, txn.Rollback().Error)
	got, err := store.GetElection(1, nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRowsWrittenMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	store, err := sqlite.New(t.TempDir(), nil, reg)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.SetElection(models.Election{ID: 1, Address: []byte{1}}, nil))
	count, err := promtest.GatherAndCount(reg, "tally_database_metadata_rows_written_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
