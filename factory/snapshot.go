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
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blinklabs-io/tally/access"
	"github.com/blinklabs-io/tally/election"
)

// Snapshot is the serializable form of the factory and its elections
type Snapshot struct {
	Creators  access.State        `json:"creators"`
	Elections []election.Snapshot `json:"elections"`
	Paused    bool                `json:"paused"`
}

// Freeze takes the factory read lock and then every election read lock in
// ascending id order. The returned function releases them in reverse.
func (f *Factory) Freeze() func() {
	f.mu.RLock()
	unlocks := make([]func(), 0, len(f.elections))
	for _, e := range f.elections {
		unlocks = append(unlocks, e.Freeze())
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
		f.mu.RUnlock()
	}
}

// FrozenSnapshot returns the factory snapshot. The caller must hold Freeze.
func (f *Factory) FrozenSnapshot() Snapshot {
	snap := Snapshot{
		Creators:  f.creators.State(),
		Paused:    f.paused,
		Elections: make([]election.Snapshot, 0, len(f.elections)),
	}
	for _, e := range f.elections {
		snap.Elections = append(snap.Elections, e.FrozenSnapshot())
	}
	return snap
}

func (f *Factory) Snapshot() Snapshot {
	defer f.Freeze()()
	return f.FrozenSnapshot()
}

// Restore loads a snapshot into a factory that has not created any
// elections yet
func (f *Factory) Restore(snap Snapshot) error {
	if access.IsZero(snap.Creators.Owner) {
		return ErrZeroAddress
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.elections) > 0 {
		return errors.New("factory: restore requires an empty factory")
	}
	elections := make([]*election.Election, 0, len(snap.Elections))
	byAddress := make(map[common.Address]uint64, len(snap.Elections))
	for i, es := range snap.Elections {
		id := uint64(i) + 1
		if es.Params.ID != id {
			return fmt.Errorf("factory: election %d found at position %d", es.Params.ID, id)
		}
		if es.Params.Address != f.ElectionAddress(id) {
			return fmt.Errorf("factory: election %d has unexpected address %s", id, es.Params.Address.Hex())
		}
		e, err := election.Restore(f.electionConfig(), es)
		if err != nil {
			return err
		}
		elections = append(elections, e)
		byAddress[es.Params.Address] = id
	}
	f.creators = access.FromState(snap.Creators)
	f.paused = snap.Paused
	f.elections = elections
	f.byAddress = byAddress
	f.updateGauges()
	f.logger.Info(
		"restored factory state",
		"elections", len(elections),
		"creators", f.creators.Len(),
		"paused", f.paused,
	)
	return nil
}
