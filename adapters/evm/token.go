// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package evm implements the distributor capabilities with contracts on an
// EVM chain.
package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/Juneo-io/epochminter/distributor"
)

var _ distributor.Token = (*Token)(nil)

// Token is a reward token contract. The signer must be allowed to mint and
// holds the minted rewards until they are paid out.
type Token struct {
	address  common.Address
	backend  Backend
	signer   *Signer
	contract *bind.BoundContract
}

func NewToken(address common.Address, backend Backend, signer *Signer) (*Token, error) {
	if backend == nil {
		return nil, errNilContract
	}
	parsed, err := abi.JSON(strings.NewReader(TokenABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token ABI: %w", err)
	}
	return &Token{
		address:  address,
		backend:  backend,
		signer:   signer,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

func (t *Token) Address() common.Address {
	return t.address
}

func (t *Token) Mint(ctx context.Context, to common.Address, amount *uint256.Int) error {
	_, err := t.signer.transact(ctx, t.backend, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return t.contract.Transact(opts, "mint", to, amount.ToBig())
	})
	if err != nil {
		return outcomeUnknown(fmt.Errorf("failed to mint: %w", err))
	}
	return nil
}

func (t *Token) Transfer(ctx context.Context, to common.Address, amount *uint256.Int) error {
	_, err := t.signer.transact(ctx, t.backend, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return t.contract.Transact(opts, "transfer", to, amount.ToBig())
	})
	if err != nil {
		return outcomeUnknown(fmt.Errorf("failed to transfer: %w", err))
	}
	return nil
}

// Approve allows [spender] to pull [amount] from the signer. An unconfirmed
// approval moved no funds, so it isn't reported as an unknown outcome.
func (t *Token) Approve(ctx context.Context, spender common.Address, amount *uint256.Int) error {
	_, err := t.signer.transact(ctx, t.backend, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return t.contract.Transact(opts, "approve", spender, amount.ToBig())
	})
	if err != nil {
		return fmt.Errorf("failed to approve: %w", err)
	}
	return nil
}

// BalanceOf returns the balance of [account] at the latest block.
func (t *Token) BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error) {
	var out []interface{}
	if err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", account); err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balance type %T", out[0])
	}
	result, overflow := uint256.FromBig(balance)
	if overflow {
		return nil, fmt.Errorf("balance %s overflows", balance)
	}
	return result, nil
}
