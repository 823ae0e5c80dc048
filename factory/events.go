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

package factory

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blinklabs-io/tally/event"
)

const (
	ElectionCreatedEventType      event.EventType = "factory.election_created"
	CreatorAddedEventType         event.EventType = "factory.creator_added"
	CreatorRemovedEventType       event.EventType = "factory.creator_removed"
	PausedEventType               event.EventType = "factory.paused"
	UnpausedEventType             event.EventType = "factory.unpaused"
	OwnershipTransferredEventType event.EventType = "factory.ownership_transferred"
)

// EventTypes lists every event type the factory publishes
var EventTypes = []event.EventType{
	ElectionCreatedEventType,
	CreatorAddedEventType,
	CreatorRemovedEventType,
	PausedEventType,
	UnpausedEventType,
	OwnershipTransferredEventType,
}

type ElectionCreatedEvent struct {
	StartTime   time.Time      `json:"startTime"`
	EndTime     time.Time      `json:"endTime"`
	CreatedAt   time.Time      `json:"createdAt"`
	Title       string         `json:"title"`
	Type        string         `json:"type"`
	MetadataRef string         `json:"metadataRef"`
	ElectionID  uint64         `json:"electionId"`
	Address     common.Address `json:"address"`
	Creator     common.Address `json:"creator"`
}

type CreatorEvent struct {
	Account common.Address `json:"account"`
	By      common.Address `json:"by"`
}

// PauseEvent is published for both pause and unpause
type PauseEvent struct {
	By     common.Address `json:"by"`
	Paused bool           `json:"paused"`
}

type OwnershipTransferredEvent struct {
	Previous common.Address `json:"previous"`
	New      common.Address `json:"new"`
}
