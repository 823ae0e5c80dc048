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

import "github.com/blinklabs-io/tally/reject"

var (
	ErrNotOwner               = reject.Authorization("registry: caller is not owner")
	ErrNotChairperson         = reject.Authorization("registry: caller is not chairperson")
	ErrZeroAddress            = reject.Validation("registry: zero address")
	ErrEmptyVoterID           = reject.Validation("registry: voter id is empty")
	ErrEmptyName              = reject.Validation("registry: name is empty")
	ErrEmptyKYCHash           = reject.Validation("registry: kyc hash is empty")
	ErrBelowMinimumAge        = reject.Validation("registry: age below minimum voting age")
	ErrEmptyReason            = reject.Validation("registry: reason is empty")
	ErrInvalidMinimumAge      = reject.Validation("registry: minimum voting age must be positive")
	ErrCannotRemoveOwner      = reject.Validation("registry: owner cannot be removed as chairperson")
	ErrNotAChairperson        = reject.Validation("registry: address is not a chairperson")
	ErrVoterAlreadyRegistered = reject.Duplicate("registry: voter already registered")
	ErrVoterIDTaken           = reject.Duplicate("registry: voter id already registered")
	ErrAlreadyChairperson     = reject.Duplicate("registry: address is already a chairperson")
	ErrVoterNotRegistered     = reject.State("registry: voter not registered")
	ErrVoterNotPending        = reject.State("registry: voter is not awaiting review")
	ErrVoterAlreadyApproved   = reject.State("registry: voter already approved")
	ErrVoterBlocked           = reject.State("registry: voter is blocked")
	ErrVoterAlreadyBlocked    = reject.State("registry: voter already blocked")
	ErrVoterNotBlocked        = reject.State("registry: voter is not blocked")
	ErrVoterNotFound          = reject.NotFound("registry: no voter with this id")
)
