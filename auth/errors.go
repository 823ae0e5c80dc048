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

package auth

import "github.com/blinklabs-io/tally/reject"

var (
	ErrMalformedPayload   = reject.Validation("auth: malformed payload")
	ErrMissingMethod      = reject.Validation("auth: method must be set")
	ErrBadSignatureLength = reject.Validation("auth: signature must be 65 bytes")
	ErrBadRecoveryID      = reject.Validation("auth: invalid signature recovery id")
	ErrBadSignature       = reject.Validation("auth: signature does not recover a signer")
	ErrExpired            = reject.Validation("auth: payload expired")
	ErrExpiryTooFar       = reject.Validation("auth: expiry exceeds the allowed window")
	ErrNonceReused        = reject.Duplicate("auth: nonce already used")
)
