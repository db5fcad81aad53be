// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package distributor

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var _ Schedule = FixedSchedule(0)

// Token mints and transfers the reward token. Both operations either fully
// succeed or fail without effect, unless the error wraps ErrOutcomeUnknown.
type Token interface {
	// Address of the token, forwarded to the rewards sink.
	Address() common.Address
	Mint(ctx context.Context, to common.Address, amount *uint256.Int) error
	Transfer(ctx context.Context, to common.Address, amount *uint256.Int) error
}

// RewardsSink receives the staking share of every distributed epoch. A
// failed distribution had no effect, unless the error wraps
// ErrOutcomeUnknown.
type RewardsSink interface {
	// DistributeRewards pushes [amount] of [token] to the rewards of
	// [network]. [metadata] is opaque to the caller.
	DistributeRewards(
		ctx context.Context,
		network common.Address,
		token common.Address,
		amount *uint256.Int,
		metadata []byte,
	) error
}

// Authorizer decides whether a caller may perform a privileged action.
type Authorizer interface {
	Authorized(caller common.Address, action Action) bool
}

// Schedule returns the length, in seconds, of the epoch starting at
// [timestamp].
type Schedule interface {
	EpochLength(timestamp uint64) uint64
}

// FixedSchedule is a schedule where every epoch has the same length.
type FixedSchedule uint64

func (s FixedSchedule) EpochLength(uint64) uint64 {
	return uint64(s)
}
