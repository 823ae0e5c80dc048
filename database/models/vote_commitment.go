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

package models

import "time"

// VoteCommitment records the auditable commitment of one counted vote
type VoteCommitment struct {
	CastAt       time.Time
	CreditBurned string
	Voter        []byte `gorm:"size:20;uniqueIndex:idx_vote_election_voter"`
	VoteHash     []byte `gorm:"size:32"`
	ID           uint   `gorm:"primarykey"`
	ElectionID   uint64 `gorm:"uniqueIndex:idx_vote_election_voter"`
	CandidateID  uint64 `gorm:"index"`
}

func (VoteCommitment) TableName() string {
	return "vote_commitment"
}
