// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

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
	_ distributor.RewardsSink = (*Sink)(nil)

	errUnknownToken = errors.New("unknown token")
)

// Distribution is a push received by a Sink.
type Distribution struct {
	Network  common.Address
	Token    common.Address
	Amount   *uint256.Int
	Epoch    uint64
	Metadata []byte
}

// Sink pulls distributed rewards from the owner of its token into its own
// balance and records every distribution.
type Sink struct {
	address common.Address
	token   *Token

	lock          sync.RWMutex
	distributions []Distribution
}

func NewSink(address common.Address, token *Token) *Sink {
	return &Sink{
		address: address,
		token:   token,
	}
}

func (s *Sink) Address() common.Address {
	return s.address
}

func (s *Sink) DistributeRewards(
	_ context.Context,
	network common.Address,
	token common.Address,
	amount *uint256.Int,
	metadata []byte,
) error {
	if token != s.token.Address() {
		return fmt.Errorf("%w: %s", errUnknownToken, token)
	}
	epoch, err := distributor.DecodeMetadata(metadata)
	if err != nil {
		return err
	}
	if err := s.token.transferFrom(s.token.Owner(), s.address, amount); err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.distributions = append(s.distributions, Distribution{
		Network:  network,
		Token:    token,
		Amount:   amount.Clone(),
		Epoch:    epoch,
		Metadata: append([]byte(nil), metadata...),
	})
	return nil
}

// Distributions returns every distribution received, in order.
func (s *Sink) Distributions() []Distribution {
	s.lock.RLock()
	defer s.lock.RUnlock()

	distributions := make([]Distribution, len(s.distributions))
	copy(distributions, s.distributions)
	return distributions
}
