// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package evm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/Juneo-io/epochminter/distributor"
)

var _ distributor.RewardsSink = (*Sink)(nil)

// Sink is a staking rewards distribution contract. It pulls the rewards from
// the signer, so every distribution approves the amount first.
type Sink struct {
	address  common.Address
	backend  Backend
	signer   *Signer
	token    *Token
	contract *bind.BoundContract
}

func NewSink(address common.Address, backend Backend, signer *Signer, token *Token) (*Sink, error) {
	if backend == nil {
		return nil, errNilContract
	}
	parsed, err := abi.JSON(strings.NewReader(RewardsSinkABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rewards sink ABI: %w", err)
	}
	return &Sink{
		address:  address,
		backend:  backend,
		signer:   signer,
		token:    token,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

func (s *Sink) DistributeRewards(
	ctx context.Context,
	network common.Address,
	token common.Address,
	amount *uint256.Int,
	metadata []byte,
) error {
	if err := s.token.Approve(ctx, s.address, amount); err != nil {
		return err
	}
	_, err := s.signer.transact(ctx, s.backend, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return s.contract.Transact(opts, "distributeRewards", network, token, amount.ToBig(), metadata)
	})
	if err != nil {
		return outcomeUnknown(fmt.Errorf("failed to distribute rewards: %w", err))
	}
	return nil
}
