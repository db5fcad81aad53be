// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// MaxBps is the number of basis points in a whole.
const MaxBps = 10_000

var (
	errNilGenesis                 = errors.New("nil genesis")
	errZeroRewardTimestamp        = errors.New("genesis reward timestamp must be non-zero")
	errZeroOperatorRewardsManager = errors.New("operator rewards manager must be non-zero")
	errNilStakingShare            = errors.New("nil genesis staking share")
	errInvalidOperatorBps         = errors.New("invalid operator basis points")
)

// Genesis is the initial state of a distributor.
type Genesis struct {
	// RewardTimestamp is the start of the genesis epoch. Its reward is
	// considered minted.
	RewardTimestamp              uint64
	MintAllowedTimestamp         uint64
	DistributionAllowedTimestamp uint64
	DistributionDelay            uint64
	OperatorBps                  uint16
	OperatorRewardsManager       common.Address
	// StakingShare is the amount of the genesis reward awaiting distribution.
	StakingShare *uint256.Int
}

func (g *Genesis) Verify() error {
	switch {
	case g == nil:
		return errNilGenesis
	case g.RewardTimestamp == 0:
		return errZeroRewardTimestamp
	case g.OperatorBps >= MaxBps:
		return fmt.Errorf("%w: %d >= %d", errInvalidOperatorBps, g.OperatorBps, MaxBps)
	case g.OperatorRewardsManager == (common.Address{}):
		return errZeroOperatorRewardsManager
	case g.StakingShare == nil:
		return errNilStakingShare
	default:
		return nil
	}
}
