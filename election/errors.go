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

import "github.com/blinklabs-io/tally/reject"

var (
	ErrNotCreator          = reject.Authorization("election: caller is not the creator")
	ErrNotManager          = reject.Authorization("election: caller is not the creator or owner")
	ErrPrivateElection     = reject.Authorization("election: election is private")
	ErrVoterNotEligible    = reject.Authorization("election: voter is not eligible")
	ErrVoterNotRegistered  = reject.Authorization("election: voter not registered for this election")
	ErrZeroAddress         = reject.Validation("election: zero address")
	ErrTooFewCandidates    = reject.Validation("election: at least two active candidates required")
	ErrEmptyCandidateName  = reject.Validation("election: candidate name is empty")
	ErrEmptyCandidateParty = reject.Validation("election: candidate party is empty")
	ErrCandidateTooYoung   = reject.Validation("election: candidate below minimum age")
	ErrZeroTokenAmount     = reject.Validation("election: token amount must be positive")
	ErrInvalidCandidate    = reject.Validation("election: no candidate with this id")
	ErrCandidateInactive   = reject.Validation("election: candidate is not active")
	ErrAlreadyInitialized  = reject.State("election: already initialized")
	ErrNotInitialized      = reject.State("election: not initialized")
	ErrPublicElection      = reject.State("election: voters cannot be added to a public election")
	ErrNotStarted          = reject.State("election: not started")
	ErrAlreadyStarted      = reject.State("election: already started")
	ErrNotOngoing          = reject.State("election: not ongoing")
	ErrNotPaused           = reject.State("election: not paused")
	ErrElectionPaused      = reject.State("election: paused")
	ErrElectionClosed      = reject.State("election: closed")
	ErrVotingWindowClosed  = reject.State("election: voting window closed")
	ErrAlreadyVoted        = reject.State("election: already voted")
	ErrCannotEnd           = reject.State("election: only an ongoing or paused election can end")
	ErrNotEnded            = reject.State("election: not ended")
	ErrResultsHidden       = reject.State("election: results hidden until the election ends")
	ErrVoterAlreadyAdded   = reject.Duplicate("election: voter already registered for this election")
	ErrInsufficientCredit  = reject.InsufficientResource("election: insufficient voting credit")
)
