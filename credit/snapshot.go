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
	"bytes"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/blinklabs-io/tally/access"
)

type Balance struct {
	Amount  *uint256.Int   `json:"amount"`
	Address common.Address `json:"address"`
}

type Allowance struct {
	Amount  *uint256.Int   `json:"amount"`
	Owner   common.Address `json:"owner"`
	Spender common.Address `json:"spender"`
}

// Snapshot is the serializable form of the token. Total supply is not stored;
// it is the sum of the balances.
type Snapshot struct {
	Minters      access.State `json:"minters"`
	Balances     []Balance    `json:"balances"`
	Allowances   []Allowance  `json:"allowances"`
	Transferable bool         `json:"transferable"`
}

func compareAddress(a, b common.Address) int {
	return bytes.Compare(a[:], b[:])
}

// Freeze takes the token read lock and returns the function that releases it
func (t *Token) Freeze() func() {
	t.mu.RLock()
	return t.mu.RUnlock
}

// FrozenSnapshot returns the token snapshot. The caller must hold Freeze.
func (t *Token) FrozenSnapshot() Snapshot {
	state := Snapshot{
		Minters:      t.minters.State(),
		Balances:     make([]Balance, 0, len(t.balances)),
		Transferable: t.transferable,
	}
	for addr, amount := range t.balances {
		state.Balances = append(state.Balances, Balance{Address: addr, Amount: amount.Clone()})
	}
	slices.SortFunc(state.Balances, func(a, b Balance) int {
		return compareAddress(a.Address, b.Address)
	})
	for owner, spenders := range t.allowances {
		for spender, amount := range spenders {
			state.Allowances = append(state.Allowances, Allowance{
				Owner:   owner,
				Spender: spender,
				Amount:  amount.Clone(),
			})
		}
	}
	slices.SortFunc(state.Allowances, func(a, b Allowance) int {
		if c := compareAddress(a.Owner, b.Owner); c != 0 {
			return c
		}
		return compareAddress(a.Spender, b.Spender)
	})
	return state
}

func (t *Token) Snapshot() Snapshot {
	defer t.Freeze()()
	return t.FrozenSnapshot()
}

// Restore replaces the token contents with state
func (t *Token) Restore(state Snapshot) error {
	if access.IsZero(state.Minters.Owner) {
		return ErrZeroAddress
	}
	balances := make(map[common.Address]*uint256.Int, len(state.Balances))
	supply := new(uint256.Int)
	for _, b := range state.Balances {
		if b.Amount == nil {
			return fmt.Errorf("credit: missing amount for %s in state", b.Address.Hex())
		}
		if _, ok := balances[b.Address]; ok {
			return fmt.Errorf("credit: duplicate balance for %s in state", b.Address.Hex())
		}
		var overflow bool
		supply, overflow = new(uint256.Int).AddOverflow(supply, b.Amount)
		if overflow {
			return ErrSupplyOverflow
		}
		balances[b.Address] = b.Amount.Clone()
	}
	allowances := make(map[common.Address]map[common.Address]*uint256.Int)
	for _, a := range state.Allowances {
		if a.Amount == nil {
			continue
		}
		if _, ok := allowances[a.Owner]; !ok {
			allowances[a.Owner] = make(map[common.Address]*uint256.Int)
		}
		allowances[a.Owner][a.Spender] = a.Amount.Clone()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.minters = access.FromState(state.Minters)
	t.balances = balances
	t.allowances = allowances
	t.totalSupply = supply
	t.transferable = state.Transferable
	t.updateGauges()
	t.logger.Info(
		"restored credit state",
		"holders", len(balances),
		"total_supply", supply.Dec(),
	)
	return nil
}
