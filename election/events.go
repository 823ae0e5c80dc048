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
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/blinklabs-io/tally/event"
)

const (
	StateChangedEventType         event.EventType = "election.state_changed"
	InitializedEventType          event.EventType = "election.initialized"
	VoterAddedEventType           event.EventType = "election.voter_added"
	VoteCastEventType             event.EventType = "election.vote_cast"
	CandidateDeactivatedEventType event.EventType = "election.candidate_deactivated"
)

// EventTypes lists every event type an election publishes
var EventTypes = []event.EventType{
	StateChangedEventType,
	InitializedEventType,
	VoterAddedEventType,
	VoteCastEventType,
	CandidateDeactivatedEventType,
}

// StateChangedEvent is published for every lifecycle transition. WinnerID
// and TotalVotes are set on the transition to Ended.
type StateChangedEvent struct {
	ElectionID uint64         `json:"electionId"`
	WinnerID   uint64         `json:"winnerId,omitempty"`
	TotalVotes uint64         `json:"totalVotes"`
	Address    common.Address `json:"address"`
	By         common.Address `json:"by"`
	From       State          `json:"from"`
	To         State          `json:"to"`
}

type InitializedEvent struct {
	TokenAmount  *uint256.Int   `json:"tokenAmount"`
	Candidates   []Candidate    `json:"candidates"`
	ElectionID   uint64         `json:"electionId"`
	Address      common.Address `json:"address"`
	IsPublic     bool           `json:"isPublic"`
	RequireToken bool           `json:"requireToken"`
}

// VoterAddedEvent is published when a voter joins an election, either by
// the creator or through public registration
type VoterAddedEvent struct {
	ElectionID uint64         `json:"electionId"`
	Voter      common.Address `json:"voter"`
	By         common.Address `json:"by"`
	Public     bool           `json:"public"`
}

type VoteCastEvent struct {
	CreditBurned *uint256.Int   `json:"creditBurned,omitempty"`
	ElectionID   uint64         `json:"electionId"`
	CandidateID  uint64         `json:"candidateId"`
	Address      common.Address `json:"address"`
	Voter        common.Address `json:"voter"`
	VoteHash     common.Hash    `json:"voteHash"`
}

type CandidateDeactivatedEvent struct {
	ElectionID  uint64         `json:"electionId"`
	CandidateID uint64         `json:"candidateId"`
	By          common.Address `json:"by"`
}
