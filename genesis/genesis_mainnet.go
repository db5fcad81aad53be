// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package genesis

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Juneo-io/epochminter/utils/constants"
	"github.com/Juneo-io/epochminter/utils/units"
)

var (
	mainnetRewardTime = uint64(time.Date(2024, time.July, 15, 0, 0, 0, 0, time.UTC).Unix())

	// MainnetParams are the params used for mainnet
	MainnetParams = Params{
		EpochLength:              24 * time.Hour,
		MintAmount:               units.Tokens(666_667),
		DistributionDelayMaximum: 7 * 24 * time.Hour,
	}

	// MainnetConfig is the genesis used for mainnet
	MainnetConfig = Config{
		NetworkID:               constants.MainnetID,
		RewardTime:              mainnetRewardTime,
		MintAllowedTime:         mainnetRewardTime,
		DistributionAllowedTime: mainnetRewardTime + 7*24*60*60,
		DistributionDelay:       24 * 60 * 60,
		OperatorBps:             1_000, // 10%
		OperatorRewardsManager:  common.HexToAddress("0x3B2d1c6E8c2b5c4F5C3F1f0b1F4D5a7e2B9c8A61"),
		Admins: []common.Address{
			common.HexToAddress("0x9A0d1B0C3F5e7a2D4c6B8e0F1a3C5d7E9f2B4c6D"),
		},
	}
)
