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

// Package access provides permission sets: an owner plus the members of a
// single role (chairpersons, minters, creators). The owner is always a
// member and cannot be removed while it is the owner.
//
// A Set is not safe for concurrent use. It is owned by exactly one
// aggregate and guarded by that aggregate's lock.
package access

import (
	"bytes"
	"slices"

	"github.com/ethereum/go-ethereum/common"
)

type Set struct {
	members map[common.Address]struct{}
	owner   common.Address
}

// NewSet returns a set owned by owner, with owner as its first member
func NewSet(owner common.Address) *Set {
	s := &Set{
		owner:   owner,
		members: make(map[common.Address]struct{}),
	}
	s.members[owner] = struct{}{}
	return s
}

func (s *Set) Owner() common.Address {
	return s.owner
}

func (s *Set) IsOwner(addr common.Address) bool {
	return addr == s.owner
}

func (s *Set) Has(addr common.Address) bool {
	_, ok := s.members[addr]
	return ok
}

// Add inserts addr and reports whether it was absent
func (s *Set) Add(addr common.Address) bool {
	if s.Has(addr) {
		return false
	}
	s.members[addr] = struct{}{}
	return true
}

// Remove deletes addr and reports whether it was present. The owner is
// never removed.
func (s *Set) Remove(addr common.Address) bool {
	if addr == s.owner || !s.Has(addr) {
		return false
	}
	delete(s.members, addr)
	return true
}

// TransferOwnership makes newOwner the owner and a member. The previous
// owner keeps its membership.
func (s *Set) TransferOwnership(newOwner common.Address) {
	s.owner = newOwner
	s.members[newOwner] = struct{}{}
}

// Members returns the members in ascending address order
func (s *Set) Members() []common.Address {
	ret := make([]common.Address, 0, len(s.members))
	for addr := range s.members {
		ret = append(ret, addr)
	}
	slices.SortFunc(ret, func(a, b common.Address) int {
		return bytes.Compare(a[:], b[:])
	})
	return ret
}

func (s *Set) Len() int {
	return len(s.members)
}

// RequireOwner returns denied unless caller is the owner
func (s *Set) RequireOwner(caller common.Address, denied error) error {
	if !s.IsOwner(caller) {
		return denied
	}
	return nil
}

// RequireMember returns denied unless caller is a member
func (s *Set) RequireMember(caller common.Address, denied error) error {
	if !s.Has(caller) {
		return denied
	}
	return nil
}

// State is the serializable form of a Set
type State struct {
	Owner   common.Address   `json:"owner"`
	Members []common.Address `json:"members"`
}

func (s *Set) State() State {
	return State{
		Owner:   s.owner,
		Members: s.Members(),
	}
}

// FromState rebuilds a set. The owner is always restored as a member.
func FromState(state State) *Set {
	s := NewSet(state.Owner)
	for _, addr := range state.Members {
		s.members[addr] = struct{}{}
	}
	return s
}

// IsZero reports whether addr is the null address
func IsZero(addr common.Address) bool {
	return addr == (common.Address{})
}
