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
	testnetRewardTime = uint64(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC).Unix())

	// TestnetParams are the params used for the test network
	TestnetParams = Params{
		EpochLength:              time.Hour,
		MintAmount:               units.Tokens(1_000),
		DistributionDelayMaximum: 24 * time.Hour,
	}

	// TestnetConfig is the genesis used for the test network
	TestnetConfig = Config{
		NetworkID:               constants.TestnetID,
		RewardTime:              testnetRewardTime,
		MintAllowedTime:         testnetRewardTime,
		DistributionAllowedTime: testnetRewardTime,
		DistributionDelay:       10 * 60,
		OperatorBps:             1_000, // 10%
		OperatorRewardsManager:  common.HexToAddress("0x5e1F3a2b7C9d0E4f6A8b1C3d5E7f9A0b2C4d6E8F"),
		Admins: []common.Address{
			common.HexToAddress("0xb4a56D9dBaB331eF6983dE1E7702d650D0154A53"),
		},
	}
)
