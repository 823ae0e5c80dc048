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

package credit

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/blinklabs-io/tally/event"
)

const (
	TransferEventType             event.EventType = "credit.transfer"
	ApprovalEventType             event.EventType = "credit.approval"
	MinterAddedEventType          event.EventType = "credit.minter_added"
	MinterRemovedEventType        event.EventType = "credit.minter_removed"
	TransferableChangedEventType  event.EventType = "credit.transferable_changed"
	OwnershipTransferredEventType event.EventType = "credit.ownership_transferred"
)

// EventTypes lists every event type the token publishes
var EventTypes = []event.EventType{
	TransferEventType,
	ApprovalEventType,
	MinterAddedEventType,
	MinterRemovedEventType,
	TransferableChangedEventType,
	OwnershipTransferredEventType,
}

// TransferEvent is published for every balance movement. Mints come from
// the zero address and burns go to it.
type TransferEvent struct {
	Amount *uint256.Int   `json:"amount"`
	From   common.Address `json:"from"`
	To     common.Address `json:"to"`
}

type ApprovalEvent struct {
	Amount  *uint256.Int   `json:"amount"`
	Owner   common.Address `json:"owner"`
	Spender common.Address `json:"spender"`
}

type MinterEvent struct {
	Account common.Address `json:"account"`
	By      common.Address `json:"by"`
}

type TransferableEvent struct {
	By           common.Address `json:"by"`
	Transferable bool           `json:"transferable"`
}

type OwnershipTransferredEvent struct {
	Previous common.Address `json:"previous"`
	New      common.Address `json:"new"`
}
