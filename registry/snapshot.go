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
	"bytes"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blinklabs-io/tally/access"
)

// Snapshot is the serializable form of the registry
type Snapshot struct {
	Chairpersons access.State `json:"chairpersons"`
	Voters       []Voter      `json:"voters"`
	MinVotingAge uint32       `json:"minVotingAge"`
}

// Freeze takes the registry read lock and returns the function that
// releases it. Mutations block until then.
func (r *Registry) Freeze() func() {
	r.mu.RLock()
	return r.mu.RUnlock
}

// FrozenSnapshot returns the registry snapshot. The caller must hold Freeze.
func (r *Registry) FrozenSnapshot() Snapshot {
	voters := make([]Voter, 0, len(r.voters))
	for _, v := range r.voters {
		voters = append(voters, *v)
	}
	slices.SortFunc(voters, func(a, b Voter) int {
		return bytes.Compare(a.Address[:], b.Address[:])
	})
	return Snapshot{
		Chairpersons: r.chairs.State(),
		Voters:       voters,
		MinVotingAge: r.minVotingAge,
	}
}

func (r *Registry) Snapshot() Snapshot {
	defer r.Freeze()()
	return r.FrozenSnapshot()
}

// Restore replaces the registry contents with state. Counters are
// recomputed from the voter records.
func (r *Registry) Restore(state Snapshot) error {
	voters := make(map[string]*Voter, len(state.Voters))
	byAddr := make(map[common.Address]*Voter, len(state.Voters))
	var stats Stats
	for i := range state.Voters {
		v := state.Voters[i]
		if _, ok := byAddr[v.Address]; ok {
			return fmt.Errorf("registry: duplicate voter address %s in state", v.Address.Hex())
		}
		if _, ok := voters[v.ID]; ok {
			return fmt.Errorf("registry: duplicate voter id %q in state", v.ID)
		}
		voters[v.ID] = &v
		byAddr[v.Address] = &v
		stats.TotalVoters++
		if v.Blocked {
			stats.TotalBlocked++
		} else if v.Status == StatusApproved {
			stats.TotalApproved++
		}
	}
	if state.MinVotingAge == 0 {
		return ErrInvalidMinimumAge
	}
	if access.IsZero(state.Chairpersons.Owner) {
		return ErrZeroAddress
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chairs = access.FromState(state.Chairpersons)
	r.voters = make(map[common.Address]*Voter, len(byAddr))
	r.byID = make(map[string]common.Address, len(voters))
	for addr, v := range byAddr {
		r.voters[addr] = v
		r.byID[v.ID] = addr
	}
	r.stats = stats
	r.minVotingAge = state.MinVotingAge
	r.updateGauges()
	r.logger.Info(
		"restored registry state",
		"voters", stats.TotalVoters,
		"approved", stats.TotalApproved,
		"blocked", stats.TotalBlocked,
	)
	return nil
}
