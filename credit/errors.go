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

import "github.com/blinklabs-io/tally/reject"

var (
	ErrNotOwner              = reject.Authorization("credit: caller is not owner")
	ErrNotMinter             = reject.Authorization("credit: caller is not minter")
	ErrNotTransferable       = reject.Authorization("credit: transfers are disabled")
	ErrZeroAddress           = reject.Validation("credit: zero address")
	ErrZeroAmount            = reject.Validation("credit: amount must be positive")
	ErrSupplyOverflow        = reject.Validation("credit: total supply overflow")
	ErrCannotRemoveOwner     = reject.Validation("credit: owner cannot be removed as minter")
	ErrNotAMinter            = reject.Validation("credit: address is not a minter")
	ErrAlreadyMinter         = reject.Duplicate("credit: address is already a minter")
	ErrInsufficientBalance   = reject.InsufficientResource("credit: insufficient balance")
	ErrInsufficientAllowance = reject.InsufficientResource("credit: insufficient allowance")
)
