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

// Package reject defines the rejection taxonomy shared by the registry,
// credit, election and factory aggregates.
//
// Every operation validates its preconditions before mutating state and
// returns an *Error on the first violation. Aggregates publish their stable
// reasons as package-level values, so callers can match either the kind
// (errors.Is(err, reject.ErrState)) or the exact reason
// (errors.Is(err, election.ErrAlreadyVoted)).
package reject

import "errors"

// Kind classifies why an operation was refused
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is malformed or out-of-range input
	KindValidation
	// KindAuthorization is a caller without the required role or registration
	KindAuthorization
	// KindState is an operation that is invalid in the current lifecycle state
	KindState
	// KindDuplicate is an already registered, approved or granted entity
	KindDuplicate
	// KindInsufficientResource is a credit balance or allowance shortfall
	KindInsufficientResource
	// KindNotFound is a query for an unknown id or address
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation error"
	case KindAuthorization:
		return "authorization error"
	case KindState:
		return "state error"
	case KindDuplicate:
		return "duplicate error"
	case KindInsufficientResource:
		return "insufficient resource error"
	case KindNotFound:
		return "not found"
	default:
		return "unknown error"
	}
}

// Label returns a short metric/log friendly name for the kind
func (k Kind) Label() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindState:
		return "state"
	case KindDuplicate:
		return "duplicate"
	case KindInsufficientResource:
		return "insufficient_resource"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Kind sentinels. They match any Error of the same kind.
var (
	ErrValidation           = &Error{Kind: KindValidation}
	ErrAuthorization        = &Error{Kind: KindAuthorization}
	ErrState                = &Error{Kind: KindState}
	ErrDuplicate            = &Error{Kind: KindDuplicate}
	ErrInsufficientResource = &Error{Kind: KindInsufficientResource}
	ErrNotFound             = &Error{Kind: KindNotFound}
)

// Error is a rejected operation. Reason names the violated invariant.
type Error struct {
	Reason string
	Kind   Kind
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Reason
}

// Is reports whether target is the same kind sentinel or the same reason
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Reason == "" {
		return t.Kind == e.Kind
	}
	return t.Kind == e.Kind && t.Reason == e.Reason
}

// New returns a rejection of the given kind
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

func Validation(reason string) *Error {
	return New(KindValidation, reason)
}

func Authorization(reason string) *Error {
	return New(KindAuthorization, reason)
}

func State(reason string) *Error {
	return New(KindState, reason)
}

func Duplicate(reason string) *Error {
	return New(KindDuplicate, reason)
}

func InsufficientResource(reason string) *Error {
	return New(KindInsufficientResource, reason)
}

func NotFound(reason string) *Error {
	return New(KindNotFound, reason)
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindUnknown when err is not a rejection
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRejection reports whether err carries a rejection
func IsRejection(err error) bool {
	return KindOf(err) != KindUnknown
}

// Outcome is the metric label for an operation result: "accepted" for a nil
// error, otherwise the kind label
func Outcome(err error) string {
	if err == nil {
		return "accepted"
	}
	return KindOf(err).Label()
}
