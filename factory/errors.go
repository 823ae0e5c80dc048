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

import "github.com/blinklabs-io/tally/reject"

var (
	ErrNotOwner          = reject.Authorization("factory: caller is not owner")
	ErrNotCreator        = reject.Authorization("factory: caller is not an approved creator")
	ErrZeroAddress       = reject.Validation("factory: zero address")
	ErrEmptyTitle        = reject.Validation("factory: title is empty")
	ErrStartNotFuture    = reject.Validation("factory: start time must be in the future")
	ErrEndBeforeStart    = reject.Validation("factory: end time must be after start time")
	ErrCannotRemoveOwner = reject.Validation("factory: owner cannot be removed as creator")
	ErrNotACreator       = reject.Validation("factory: address is not a creator")
	ErrAlreadyCreator    = reject.Duplicate("factory: address is already a creator")
	ErrSystemPaused      = reject.State("factory: system is paused")
	ErrAlreadyPaused     = reject.State("factory: system already paused")
	ErrNotPaused         = reject.State("factory: system is not paused")
	ErrElectionNotFound  = reject.NotFound("factory: election not found")
)
