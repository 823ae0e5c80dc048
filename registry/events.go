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
	"github.com/ethereum/go-ethereum/common"

	"github.com/blinklabs-io/tally/event"
)

const (
	VoterRegisteredEventType      event.EventType = "registry.voter_registered"
	VoterApprovedEventType        event.EventType = "registry.voter_approved"
	VoterRejectedEventType        event.EventType = "registry.voter_rejected"
	VoterBlockedEventType         event.EventType = "registry.voter_blocked"
	VoterUnblockedEventType       event.EventType = "registry.voter_unblocked"
	ChairpersonAddedEventType     event.EventType = "registry.chairperson_added"
	ChairpersonRemovedEventType   event.EventType = "registry.chairperson_removed"
	MinVotingAgeUpdatedEventType  event.EventType = "registry.min_voting_age_updated"
	OwnershipTransferredEventType event.EventType = "registry.ownership_transferred"
)

// EventTypes lists every event type the registry publishes
var EventTypes = []event.EventType{
	VoterRegisteredEventType,
	VoterApprovedEventType,
	VoterRejectedEventType,
	VoterBlockedEventType,
	VoterUnblockedEventType,
	ChairpersonAddedEventType,
	ChairpersonRemovedEventType,
	MinVotingAgeUpdatedEventType,
	OwnershipTransferredEventType,
}

// VoterEvent is published for every voter status change. By is the zero
// address for self-registration.
type VoterEvent struct {
	VoterID string         `json:"voterId"`
	Reason  string         `json:"reason,omitempty"`
	Voter   common.Address `json:"voter"`
	By      common.Address `json:"by"`
	KYCHash common.Hash    `json:"kycHash"`
	Status  Status         `json:"status"`
}

type ChairpersonEvent struct {
	Account common.Address `json:"account"`
	By      common.Address `json:"by"`
}

type MinVotingAgeEvent struct {
	By  common.Address `json:"by"`
	Age uint32         `json:"age"`
}

type OwnershipTransferredEvent struct {
	Previous common.Address `json:"previous"`
	New      common.Address `json:"new"`
}
