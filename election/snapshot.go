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

package election

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type VoterSnapshot struct {
	RegisteredAt time.Time      `json:"registeredAt"`
	VotedAt      time.Time      `json:"votedAt"`
	Address      common.Address `json:"address"`
	VoteHash     common.Hash    `json:"voteHash"`
	CandidateID  uint64         `json:"candidateId"`
	HasVoted     bool           `json:"hasVoted"`
}

// Snapshot is the serializable form of an election
type Snapshot struct {
	EndedAt      time.Time       `json:"endedAt"`
	FinalizedAt  time.Time       `json:"finalizedAt"`
	TokenAmount  *uint256.Int    `json:"tokenAmount"`
	Candidates   []Candidate     `json:"candidates"`
	Voters       []VoterSnapshot `json:"voters"`
	Params       Params          `json:"params"`
	TotalVotes   uint64          `json:"totalVotes"`
	WinnerID     uint64          `json:"winnerId"`
	State        State           `json:"state"`
	Initialized  bool            `json:"initialized"`
	IsPublic     bool            `json:"isPublic"`
	RequireToken bool            `json:"requireToken"`
}

// Freeze takes the election read lock and returns the function that
// releases it
func (e *Election) Freeze() func() {
	e.mu.RLock()
	return e.mu.RUnlock
}

// FrozenSnapshot returns the election snapshot. The caller must hold Freeze.
func (e *Election) FrozenSnapshot() Snapshot {
	snap := Snapshot{
		Params:       e.params,
		State:        e.state,
		Initialized:  e.initialized,
		IsPublic:     e.isPublic,
		RequireToken: e.requireToken,
		TokenAmount:  e.tokenAmount.Clone(),
		Candidates:   e.copyCandidates(false),
		Voters:       make([]VoterSnapshot, 0, len(e.voters)),
		TotalVotes:   e.totalVotes,
		WinnerID:     e.winnerID,
		EndedAt:      e.endedAt,
		FinalizedAt:  e.finalizedAt,
	}
	for addr, rec := range e.voters {
		snap.Voters = append(snap.Voters, VoterSnapshot{
			Address:      addr,
			RegisteredAt: rec.registeredAt,
			VotedAt:      rec.votedAt,
			VoteHash:     rec.voteHash,
			CandidateID:  rec.candidateID,
			HasVoted:     rec.hasVoted,
		})
	}
	slices.SortFunc(snap.Voters, func(a, b VoterSnapshot) int {
		return bytes.Compare(a.Address[:], b.Address[:])
	})
	return snap
}

func (e *Election) Snapshot() Snapshot {
	defer e.Freeze()()
	return e.FrozenSnapshot()
}

// Restore rebuilds an election from a snapshot. The snapshot is rejected if
// its tally does not add up.
func Restore(config Config, snap Snapshot) (*Election, error) {
	if snap.Params.ID == 0 {
		return nil, errors.New("election: id must be positive")
	}
	if _, ok := stateNames[snap.State]; !ok {
		return nil, fmt.Errorf("election %d: invalid state %d", snap.Params.ID, snap.State)
	}
	var sum uint64
	for i, c := range snap.Candidates {
		if c.ID != uint64(i)+1 {
			return nil, fmt.Errorf("election %d: candidate ids out of order", snap.Params.ID)
		}
		sum += c.VoteCount
	}
	if sum != snap.TotalVotes {
		return nil, fmt.Errorf(
			"election %d: candidate votes %d do not match total %d",
			snap.Params.ID,
			sum,
			snap.TotalVotes,
		)
	}
	var voted uint64
	e := newElection(config, snap.Params)
	for _, v := range snap.Voters {
		if _, ok := e.voters[v.Address]; ok {
			return nil, fmt.Errorf("election %d: duplicate voter %s", snap.Params.ID, v.Address.Hex())
		}
		if v.HasVoted {
			if v.CandidateID == 0 || v.CandidateID > uint64(len(snap.Candidates)) {
				return nil, fmt.Errorf("election %d: vote for unknown candidate", snap.Params.ID)
			}
			voted++
		}
		e.voters[v.Address] = &voterRecord{
			registeredAt: v.RegisteredAt,
			votedAt:      v.VotedAt,
			voteHash:     v.VoteHash,
			candidateID:  v.CandidateID,
			hasVoted:     v.HasVoted,
		}
	}
	if voted != snap.TotalVotes {
		return nil, fmt.Errorf(
			"election %d: %d voters voted but total is %d",
			snap.Params.ID,
			voted,
			snap.TotalVotes,
		)
	}
	e.state = snap.State
	e.initialized = snap.Initialized
	e.isPublic = snap.IsPublic
	e.requireToken = snap.RequireToken
	if snap.TokenAmount != nil {
		e.tokenAmount = snap.TokenAmount.Clone()
	}
	e.candidates = make([]*Candidate, 0, len(snap.Candidates))
	for _, c := range snap.Candidates {
		cand := c
		e.candidates = append(e.candidates, &cand)
	}
	e.totalVotes = snap.TotalVotes
	e.winnerID = snap.WinnerID
	e.endedAt = snap.EndedAt
	e.finalizedAt = snap.FinalizedAt
	e.config.Metrics.elections.WithLabelValues(e.state.String()).Inc()
	return e, nil
}
