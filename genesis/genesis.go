// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package genesis defines the parameters and initial state of the
// distributor of every known network.
package genesis

import (
	"fmt"

	"github.com/Juneo-io/epochminter/distributor"
	"github.com/Juneo-io/epochminter/distributor/state"
)

// State returns the initial distributor state described by [config] under
// [params]. [now] is only used when the genesis epoch starts at first start,
// in which case it is rounded down to an epoch boundary.
func State(config *Config, params *Params, now uint64) (*state.Genesis, error) {
	if err := params.Verify(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if err := config.Verify(params); err != nil {
		return nil, fmt.Errorf("invalid genesis: %w", err)
	}

	rewardTime := config.RewardTime
	if rewardTime == 0 {
		epochLength := params.EpochLengthSeconds()
		rewardTime = now - now%epochLength
	}
	mintAllowedTime := config.MintAllowedTime
	if mintAllowedTime == 0 {
		mintAllowedTime = rewardTime
	}
	distributionAllowedTime := config.DistributionAllowedTime
	if distributionAllowedTime == 0 {
		distributionAllowedTime = rewardTime
	}

	_, stakingShare, err := distributor.Split(params.MintAmount, config.OperatorBps)
	if err != nil {
		return nil, fmt.Errorf("invalid genesis: %w", err)
	}
	genesis := &state.Genesis{
		RewardTimestamp:              rewardTime,
		MintAllowedTimestamp:         mintAllowedTime,
		DistributionAllowedTimestamp: distributionAllowedTime,
		DistributionDelay:            config.DistributionDelay,
		OperatorBps:                  config.OperatorBps,
		OperatorRewardsManager:       config.OperatorRewardsManager,
		StakingShare:                 stakingShare,
	}
	return genesis, genesis.Verify()
}
