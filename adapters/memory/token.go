// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package memory implements the distributor capabilities in process, for
// local networks and tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/Juneo-io/epochminter/distributor"
)

var (
	_ distributor.Token = (*Token)(nil)

	ErrInsufficientBalance = errors.New("insufficient balance")
	errSupplyOverflow      = errors.New("total supply overflow")
)

// Token is an in-memory token. Transfers are paid by its owner.
type Token struct {
	address common.Address
	owner   common.Address

	lock     sync.RWMutex
	supply   uint256.Int
	balances map[common.Address]*uint256.Int
}

func NewToken(address common.Address, owner common.Address) *Token {
	return &Token{
		address:  address,
		owner:    owner,
		balances: make(map[common.Address]*uint256.Int),
	}
}

func (t *Token) Address() common.Address {
	return t.address
}

func (t *Token) Owner() common.Address {
	return t.owner
}

func (t *Token) Mint(_ context.Context, to common.Address, amount *uint256.Int) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	supply, overflow := new(uint256.Int).AddOverflow(&t.supply, amount)
	if overflow {
		return fmt.Errorf("%w: minting %s", errSupplyOverflow, amount.ToBig())
	}
	t.supply = *supply
	t.credit(to, amount)
	return nil
}

func (t *Token) Transfer(_ context.Context, to common.Address, amount *uint256.Int) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.transfer(t.owner, to, amount)
}

// transferFrom moves [amount] from [from] to [to].
func (t *Token) transferFrom(from common.Address, to common.Address, amount *uint256.Int) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.transfer(from, to, amount)
}

func (t *Token) transfer(from common.Address, to common.Address, amount *uint256.Int) error {
	balance := t.balanceOf(from)
	if balance.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s",
			ErrInsufficientBalance,
			from,
			balance.ToBig(),
			amount.ToBig(),
		)
	}
	t.balances[from] = new(uint256.Int).Sub(balance, amount)
	t.credit(to, amount)
	return nil
}

func (t *Token) credit(to common.Address, amount *uint256.Int) {
	t.balances[to] = new(uint256.Int).Add(t.balanceOf(to), amount)
}

func (t *Token) balanceOf(addr common.Address) *uint256.Int {
	if balance, ok := t.balances[addr]; ok {
		return balance
	}
	return new(uint256.Int)
}

func (t *Token) BalanceOf(addr common.Address) *uint256.Int {
	t.lock.RLock()
	defer t.lock.RUnlock()

	return t.balanceOf(addr).Clone()
}

func (t *Token) TotalSupply() *uint256.Int {
	t.lock.RLock()
	defer t.lock.RUnlock()

	return t.supply.Clone()
}
