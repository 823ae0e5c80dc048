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
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type Info struct {
	StartTime            time.Time      `json:"startTime"`
	EndTime              time.Time      `json:"endTime"`
	CreatedAt            time.Time      `json:"createdAt"`
	TokenAmount          *uint256.Int   `json:"tokenAmount"`
	Title                string         `json:"title"`
	Description          string         `json:"description"`
	Type                 string         `json:"type"`
	MetadataRef          string         `json:"metadataRef"`
	ID                   uint64         `json:"id"`
	TotalCandidates      uint64         `json:"totalCandidates"`
	TotalVotes           uint64         `json:"totalVotes"`
	TotalVoters          uint64         `json:"totalVoters"`
	Address              common.Address `json:"address"`
	Creator              common.Address `json:"creator"`
	State                State          `json:"state"`
	Initialized          bool           `json:"initialized"`
	IsPublic             bool           `json:"isPublic"`
	RequireToken         bool           `json:"requireToken"`
	AllowRealtimeResults bool           `json:"allowRealtimeResults"`
}

type Results struct {
	Candidates []Candidate `json:"candidates"`
	ElectionID uint64      `json:"electionId"`
	TotalVotes uint64      `json:"totalVotes"`
	// WinnerID is set once the election has ended. Zero means no votes.
	WinnerID uint64 `json:"winnerId"`
	State    State  `json:"state"`
	Final    bool   `json:"final"`
}

// VoterStatus is a voter's participation in one election
type VoterStatus struct {
	RegisteredAt time.Time      `json:"registeredAt,omitzero"`
	VotedAt      time.Time      `json:"votedAt,omitzero"`
	Voter        common.Address `json:"voter"`
	VoteHash     common.Hash    `json:"voteHash"`
	CandidateID  uint64         `json:"candidateId"`
	Registered   bool           `json:"registered"`
	HasVoted     bool           `json:"hasVoted"`
}

func (e *Election) Params() Params {
	return e.params
}

// Info returns the election summary. State is the stored state; the
// automatic start is not applied by queries.
func (e *Election) Info() Info {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Info{
		ID:                   e.params.ID,
		Address:              e.params.Address,
		Creator:              e.params.Creator,
		Title:                e.params.Title,
		Description:          e.params.Description,
		Type:                 e.params.Type,
		MetadataRef:          e.params.MetadataRef,
		StartTime:            e.params.StartTime,
		EndTime:              e.params.EndTime,
		CreatedAt:            e.params.CreatedAt,
		State:                e.state,
		TotalCandidates:      uint64(len(e.candidates)),
		TotalVotes:           e.totalVotes,
		TotalVoters:          uint64(len(e.voters)),
		Initialized:          e.initialized,
		IsPublic:             e.isPublic,
		RequireToken:         e.requireToken,
		TokenAmount:          e.tokenAmount.Clone(),
		AllowRealtimeResults: e.params.AllowRealtimeResults,
	}
}

func (e *Election) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// resultsVisible must be called with the lock held
func (e *Election) resultsVisible() bool {
	return e.params.AllowRealtimeResults || e.state.Closed()
}

// copyCandidates must be called with the lock held
func (e *Election) copyCandidates(mask bool) []Candidate {
	ret := make([]Candidate, 0, len(e.candidates))
	for _, c := range e.candidates {
		cand := *c
		if mask {
			cand.VoteCount = 0
		}
		ret = append(ret, cand)
	}
	return ret
}

// Candidates returns every candidate in id order. Vote counts read as zero
// while results are hidden.
func (e *Election) Candidates() []Candidate {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.copyCandidates(!e.resultsVisible())
}

func (e *Election) Results() (Results, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.resultsVisible() {
		return Results{}, ErrResultsHidden
	}
	return Results{
		ElectionID: e.params.ID,
		State:      e.state,
		TotalVotes: e.totalVotes,
		Candidates: e.copyCandidates(false),
		WinnerID:   e.winnerID,
		Final:      e.state.Closed(),
	}, nil
}

// Winner returns the winning candidate of an ended election. The second
// result is false when no votes were cast.
func (e *Election) Winner() (Candidate, bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.state.Closed() {
		return Candidate{}, false, ErrNotEnded
	}
	if e.winnerID == 0 {
		return Candidate{}, false, nil
	}
	return *e.candidates[e.winnerID-1], true, nil
}

func (e *Election) VoterStatus(addr common.Address) VoterStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rec, ok := e.voters[addr]
	if !ok {
		return VoterStatus{Voter: addr}
	}
	return VoterStatus{
		Voter:        addr,
		Registered:   true,
		HasVoted:     rec.hasVoted,
		CandidateID:  rec.candidateID,
		VoteHash:     rec.voteHash,
		RegisteredAt: rec.registeredAt,
		VotedAt:      rec.votedAt,
	}
}

func (e *Election) HasVoted(addr common.Address) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rec, ok := e.voters[addr]
	return ok && rec.hasVoted
}
