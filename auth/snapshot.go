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

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
)

type NonceEntry struct {
	Address common.Address `json:"address"`
	Nonce   uint64         `json:"nonce"`
}

// Snapshot is the serializable nonce state
type Snapshot struct {
	Nonces []NonceEntry `json:"nonces"`
}

func (v *Verifier) Freeze() func() {
	v.mu.RLock()
	return v.mu.RUnlock
}

// FrozenSnapshot returns the nonce state. The caller must hold Freeze.
func (v *Verifier) FrozenSnapshot() Snapshot {
	snap := Snapshot{Nonces: make([]NonceEntry, 0, len(v.nonces))}
	for addr, n := range v.nonces {
		snap.Nonces = append(snap.Nonces, NonceEntry{Address: addr, Nonce: n})
	}
	slices.SortFunc(snap.Nonces, func(a, b NonceEntry) int {
		return bytes.Compare(a.Address[:], b.Address[:])
	})
	return snap
}

func (v *Verifier) Snapshot() Snapshot {
	defer v.Freeze()()
	return v.FrozenSnapshot()
}

func (v *Verifier) Restore(snap Snapshot) error {
	nonces := make(map[common.Address]uint64, len(snap.Nonces))
	for _, entry := range snap.Nonces {
		if _, ok := nonces[entry.Address]; ok {
			return fmt.Errorf("auth: duplicate nonce entry for %s", entry.Address.Hex())
		}
		nonces[entry.Address] = entry.Nonce
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nonces = nonces
	return nil
}
