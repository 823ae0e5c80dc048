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

package api

import (
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type AuditEventResponse struct {
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
	EventID   string          `json:"eventId"`
	Type      string          `json:"type"`
	Sequence  uint64          `json:"sequence"`
}

type CommitmentResponse struct {
	CastAt       time.Time      `json:"castAt"`
	CreditBurned string         `json:"creditBurned,omitempty"`
	Voter        common.Address `json:"voter"`
	VoteHash     common.Hash    `json:"voteHash"`
	CandidateID  uint64         `json:"candidateId"`
}
