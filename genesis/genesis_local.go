// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package genesis

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Juneo-io/epochminter/utils/constants"
	"github.com/Juneo-io/epochminter/utils/units"
)

// 4a51d8e8baff7fb8d08ea07ff1e8a62f60f490d46e4f917433cfd43cd280315e => 0xb4a56D9dBaB331eF6983dE1E7702d650D0154A53
const LocalAdminKey = "4a51d8e8baff7fb8d08ea07ff1e8a62f60f490d46e4f917433cfd43cd280315e"

var (
	// LocalAdmin holds every privileged role on local networks.
	LocalAdmin = common.HexToAddress("0xb4a56D9dBaB331eF6983dE1E7702d650D0154A53")

	// LocalParams are the params used for local networks
	LocalParams = Params{
		EpochLength:              time.Minute,
		MintAmount:               units.Tokens(100),
		DistributionDelayMaximum: time.Hour,
	}

	// UnitTestParams are the params used in unit tests
	UnitTestParams = Params{
		EpochLength:              24 * time.Hour,
		MintAmount:               units.Tokens(666_667),
		DistributionDelayMaximum: 7 * 24 * time.Hour,
	}

	// LocalConfig starts the genesis epoch when the node first starts.
	LocalConfig = Config{
		NetworkID:              constants.LocalID,
		DistributionDelay:      30,
		OperatorBps:            1_000, // 10%
		OperatorRewardsManager: common.HexToAddress("0x8db97C7cEcE249c2b98bDC0226Cc4C2A57BF52FC"),
		Admins:                 []common.Address{LocalAdmin},
	}
)
