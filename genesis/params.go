// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package genesis

import (
	"errors"
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"github.com/Juneo-io/epochminter/utils/constants"
)

var (
	errInvalidEpochLength   = errors.New("epoch length must be a positive number of whole seconds")
	errInvalidDelayMaximum  = errors.New("distribution delay maximum must be a number of whole seconds")
	errInvalidMintAmount    = errors.New("mint amount must be positive")
	errDelayExceedsMaximum  = errors.New("distribution delay exceeds maximum")
	errUnknownOperatorBps   = errors.New("operator basis points out of range")
	errMissingRewardManager = errors.New("missing operator rewards manager")
)

// Params are the immutable parameters of a network's distributor. They are
// not persisted and must not change once a network is running.
type Params struct {
	// EpochLength is the duration between two reward epochs.
	EpochLength time.Duration `json:"epochLength"`
	// MintAmount is the amount of reward tokens, in the smallest
	// denomination, minted every epoch.
	MintAmount *uint256.Int `json:"-"`
	// DistributionDelayMaximum bounds the delay that can be set between the
	// end of an epoch and the distribution of its staking rewards.
	DistributionDelayMaximum time.Duration `json:"distributionDelayMaximum"`
}

func (p *Params) Verify() error {
	switch {
	case p.EpochLength < time.Second || p.EpochLength%time.Second != 0:
		return fmt.Errorf("%w: %s", errInvalidEpochLength, p.EpochLength)
	case p.DistributionDelayMaximum < 0 || p.DistributionDelayMaximum%time.Second != 0:
		return fmt.Errorf("%w: %s", errInvalidDelayMaximum, p.DistributionDelayMaximum)
	case p.MintAmount == nil || p.MintAmount.IsZero():
		return errInvalidMintAmount
	default:
		return nil
	}
}

// EpochLengthSeconds returns the epoch length in unix seconds.
func (p *Params) EpochLengthSeconds() uint64 {
	return uint64(p.EpochLength / time.Second)
}

// DistributionDelayMaximumSeconds returns the maximum distribution delay in
// unix seconds.
func (p *Params) DistributionDelayMaximumSeconds() uint64 {
	return uint64(p.DistributionDelayMaximum / time.Second)
}

// GetParams returns the params of the network with ID [networkID]. Unknown
// networks use the local params.
func GetParams(networkID uint32) Params {
	switch networkID {
	case constants.MainnetID:
		return MainnetParams
	case constants.TestnetID:
		return TestnetParams
	case constants.UnitTestID:
		return UnitTestParams
	default:
		return LocalParams
	}
}
