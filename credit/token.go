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

// Package credit implements the voting credit token. Balances are fixed
// point integers with Decimals places. Minters create and destroy credit,
// and transfers between holders are disabled unless the owner enables them.
package credit

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/tally/access"
	"github.com/blinklabs-io/tally/event"
	"github.com/blinklabs-io/tally/reject"
)

const (
	Name     = "Voting Credit"
	Symbol   = "VCR"
	Decimals = 18
)

// Unit is one whole credit in base units
var Unit = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(Decimals))

type TokenConfig struct {
	PromRegistry prometheus.Registerer
	Logger       *slog.Logger
	EventBus     event.Publisher
	Now          func() time.Time
	Owner        common.Address
}

type Token struct {
	config       TokenConfig
	logger       *slog.Logger
	metrics      *tokenMetrics
	minters      *access.Set
	balances     map[common.Address]*uint256.Int
	allowances   map[common.Address]map[common.Address]*uint256.Int
	totalSupply  *uint256.Int
	mu           sync.RWMutex
	transferable bool
}

func New(config TokenConfig) (*Token, error) {
	if access.IsZero(config.Owner) {
		return nil, errors.New("credit: owner address must be set")
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	t := &Token{
		config:      config,
		minters:     access.NewSet(config.Owner),
		balances:    make(map[common.Address]*uint256.Int),
		allowances:  make(map[common.Address]map[common.Address]*uint256.Int),
		totalSupply: new(uint256.Int),
	}
	if config.Logger == nil {
		t.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		t.logger = config.Logger
	}
	t.logger = t.logger.With("component", "credit")
	t.initMetrics(config.PromRegistry)
	t.updateGauges()
	return t, nil
}

// finish must be called with the token lock held
func (t *Token) finish(op string, err error, args ...any) error {
	t.metrics.operations.WithLabelValues(op, reject.Outcome(err)).Inc()
	if err != nil {
		t.logger.Debug(
			"operation rejected",
			append([]any{"operation", op, "error", err}, args...)...,
		)
		return err
	}
	t.updateGauges()
	t.logger.Info("operation accepted", append([]any{"operation", op}, args...)...)
	return nil
}

func (t *Token) publish(eventType event.EventType, data any) {
	if t.config.EventBus == nil {
		return
	}
	t.config.EventBus.PublishAsync(
		eventType,
		event.NewEventAt(eventType, data, t.config.Now()),
	)
}

// balance returns the stored balance or zero. The result must not be
// modified.
func (t *Token) balance(addr common.Address) *uint256.Int {
	if b, ok := t.balances[addr]; ok {
		return b
	}
	return new(uint256.Int)
}

func (t *Token) allowance(owner, spender common.Address) *uint256.Int {
	if a, ok := t.allowances[owner][spender]; ok {
		return a
	}
	return new(uint256.Int)
}

func amountArg(amount *uint256.Int) string {
	if amount == nil {
		return "<nil>"
	}
	return amount.Dec()
}

func isZeroAmount(amount *uint256.Int) bool {
	return amount == nil || amount.IsZero()
}

// Mint creates amount credit for to
func (t *Token) Mint(caller, to common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.mint(caller, to, amount)
	return t.finish("mint", err, "to", to.Hex(), "amount", amountArg(amount))
}

func (t *Token) mint(caller, to common.Address, amount *uint256.Int) error {
	if err := t.minters.RequireMember(caller, ErrNotMinter); err != nil {
		return err
	}
	if access.IsZero(to) {
		return ErrZeroAddress
	}
	if isZeroAmount(amount) {
		return ErrZeroAmount
	}
	supply, overflow := new(uint256.Int).AddOverflow(t.totalSupply, amount)
	if overflow {
		return ErrSupplyOverflow
	}
	t.totalSupply = supply
	t.balances[to] = new(uint256.Int).Add(t.balance(to), amount)
	t.publish(TransferEventType, TransferEvent{
		To:     to,
		Amount: amount.Clone(),
	})
	return nil
}

// Burn destroys amount credit held by from
func (t *Token) Burn(caller, from common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.burn(caller, from, amount)
	return t.finish("burn", err, "from", from.Hex(), "amount", amountArg(amount))
}

func (t *Token) burn(caller, from common.Address, amount *uint256.Int) error {
	if err := t.minters.RequireMember(caller, ErrNotMinter); err != nil {
		return err
	}
	if access.IsZero(from) {
		return ErrZeroAddress
	}
	if isZeroAmount(amount) {
		return ErrZeroAmount
	}
	bal := t.balance(from)
	if bal.Lt(amount) {
		return ErrInsufficientBalance
	}
	t.balances[from] = new(uint256.Int).Sub(bal, amount)
	t.totalSupply = new(uint256.Int).Sub(t.totalSupply, amount)
	t.publish(TransferEventType, TransferEvent{
		From:   from,
		Amount: amount.Clone(),
	})
	return nil
}

func (t *Token) AddMinter(caller, addr common.Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.addMinter(caller, addr)
	return t.finish("addMinter", err, "account", addr.Hex())
}

func (t *Token) addMinter(caller, addr common.Address) error {
	if err := t.minters.RequireOwner(caller, ErrNotOwner); err != nil {
		return err
	}
	if access.IsZero(addr) {
		return ErrZeroAddress
	}
	if !t.minters.Add(addr) {
		return ErrAlreadyMinter
	}
	t.publish(MinterAddedEventType, MinterEvent{Account: addr, By: caller})
	return nil
}

func (t *Token) RemoveMinter(caller, addr common.Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.removeMinter(caller, addr)
	return t.finish("removeMinter", err, "account", addr.Hex())
}

func (t *Token) removeMinter(caller, addr common.Address) error {
	if err := t.minters.RequireOwner(caller, ErrNotOwner); err != nil {
		return err
	}
	if t.minters.IsOwner(addr) {
		return ErrCannotRemoveOwner
	}
	if !t.minters.Remove(addr) {
		return ErrNotAMinter
	}
	t.publish(MinterRemovedEventType, MinterEvent{Account: addr, By: caller})
	return nil
}

// SetTransferable enables or disables holder-to-holder movement of credit
func (t *Token) SetTransferable(caller common.Address, transferable bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.setTransferable(caller, transferable)
	return t.finish("setTransferable", err, "transferable", transferable)
}

func (t *Token) setTransferable(caller common.Address, transferable bool) error {
	if err := t.minters.RequireOwner(caller, ErrNotOwner); err != nil {
		return err
	}
	t.transferable = transferable
	t.publish(TransferableChangedEventType, TransferableEvent{
		Transferable: transferable,
		By:           caller,
	})
	return nil
}

// TransferOwnership hands the token to newOwner, who also becomes a minter
func (t *Token) TransferOwnership(caller, newOwner common.Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.transferOwnership(caller, newOwner)
	return t.finish("transferOwnership", err, "owner", newOwner.Hex())
}

func (t *Token) transferOwnership(caller, newOwner common.Address) error {
	if err := t.minters.RequireOwner(caller, ErrNotOwner); err != nil {
		return err
	}
	if access.IsZero(newOwner) {
		return ErrZeroAddress
	}
	prev := t.minters.Owner()
	t.minters.TransferOwnership(newOwner)
	t.publish(OwnershipTransferredEventType, OwnershipTransferredEvent{
		Previous: prev,
		New:      newOwner,
	})
	return nil
}

// Transfer moves amount from the caller to to
func (t *Token) Transfer(caller, to common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.transfer(caller, to, amount)
	return t.finish("transfer", err, "from", caller.Hex(), "to", to.Hex())
}

func (t *Token) transfer(from, to common.Address, amount *uint256.Int) error {
	if !t.transferable {
		return ErrNotTransferable
	}
	return t.move(from, to, amount)
}

// move performs the balance change shared by transfer and transferFrom
func (t *Token) move(from, to common.Address, amount *uint256.Int) error {
	if access.IsZero(from) || access.IsZero(to) {
		return ErrZeroAddress
	}
	if isZeroAmount(amount) {
		return ErrZeroAmount
	}
	fromBal := t.balance(from)
	if fromBal.Lt(amount) {
		return ErrInsufficientBalance
	}
	t.balances[from] = new(uint256.Int).Sub(fromBal, amount)
	t.balances[to] = new(uint256.Int).Add(t.balance(to), amount)
	t.publish(TransferEventType, TransferEvent{
		From:   from,
		To:     to,
		Amount: amount.Clone(),
	})
	return nil
}

// Approve sets the amount spender may move on the caller's behalf
func (t *Token) Approve(caller, spender common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.approve(caller, spender, amount)
	return t.finish("approve", err, "owner", caller.Hex(), "spender", spender.Hex())
}

func (t *Token) approve(owner, spender common.Address, amount *uint256.Int) error {
	if !t.transferable {
		return ErrNotTransferable
	}
	if access.IsZero(owner) || access.IsZero(spender) {
		return ErrZeroAddress
	}
	if amount == nil {
		amount = new(uint256.Int)
	}
	if _, ok := t.allowances[owner]; !ok {
		t.allowances[owner] = make(map[common.Address]*uint256.Int)
	}
	t.allowances[owner][spender] = amount.Clone()
	t.publish(ApprovalEventType, ApprovalEvent{
		Owner:   owner,
		Spender: spender,
		Amount:  amount.Clone(),
	})
	return nil
}

// TransferFrom moves amount from from to to using the caller's allowance
func (t *Token) TransferFrom(caller, from, to common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.transferFrom(caller, from, to, amount)
	return t.finish(
		"transferFrom",
		err,
		"spender", caller.Hex(),
		"from", from.Hex(),
		"to", to.Hex(),
	)
}

func (t *Token) transferFrom(spender, from, to common.Address, amount *uint256.Int) error {
	if !t.transferable {
		return ErrNotTransferable
	}
	if isZeroAmount(amount) {
		return ErrZeroAmount
	}
	allowed := t.allowance(from, spender)
	if allowed.Lt(amount) {
		return ErrInsufficientAllowance
	}
	if err := t.move(from, to, amount); err != nil {
		return err
	}
	t.allowances[from][spender] = new(uint256.Int).Sub(allowed, amount)
	return nil
}

// BalanceOf returns a copy of the balance of addr
func (t *Token) BalanceOf(addr common.Address) *uint256.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.balance(addr).Clone()
}

func (t *Token) Allowance(owner, spender common.Address) *uint256.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.allowance(owner, spender).Clone()
}

func (t *Token) TotalSupply() *uint256.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totalSupply.Clone()
}

func (t *Token) IsMinter(addr common.Address) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.minters.Has(addr)
}

func (t *Token) Minters() []common.Address {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.minters.Members()
}

func (t *Token) Owner() common.Address {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.minters.Owner()
}

func (t *Token) Transferable() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.transferable
}
