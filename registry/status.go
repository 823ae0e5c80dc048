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

package registry

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type Status uint8

const (
	StatusUnregistered Status = iota
	StatusRegistered
	StatusApproved
	StatusRejected
	StatusBlocked
)

var statusNames = map[Status]string{
	StatusUnregistered: "unregistered",
	StatusRegistered:   "registered",
	StatusApproved:     "approved",
	StatusRejected:     "rejected",
	StatusBlocked:      "blocked",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(data []byte) error {
	str := strings.ToLower(string(data))
	for k, v := range statusNames {
		if v == str {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown voter status: %s", data)
}

// Voter is a registry record. Status holds the review outcome and is never
// changed by blocking. Blocked is tracked separately so that unblocking
// restores the previous status.
type Voter struct {
	RegisteredAt    time.Time      `json:"registeredAt"`
	ApprovedAt      time.Time      `json:"approvedAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	RejectionReason string         `json:"rejectionReason,omitempty"`
	BlockReason     string         `json:"blockReason,omitempty"`
	Address         common.Address `json:"address"`
	KYCHash         common.Hash    `json:"kycHash"`
	Age             uint32         `json:"age"`
	Status          Status         `json:"status"`
	Blocked         bool           `json:"blocked"`
}

// EffectiveStatus is the status reported to callers
func (v Voter) EffectiveStatus() Status {
	if v.Blocked {
		return StatusBlocked
	}
	return v.Status
}

// Eligible reports whether the voter is approved and not blocked
func (v Voter) Eligible() bool {
	return v.Status == StatusApproved && !v.Blocked
}

// Stats are the aggregate voter counters
type Stats struct {
	TotalVoters   uint64 `json:"totalVoters"`
	TotalApproved uint64 `json:"totalApproved"`
	TotalBlocked  uint64 `json:"totalBlocked"`
}
