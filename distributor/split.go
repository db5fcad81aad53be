// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package distributor

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/Juneo-io/epochminter/distributor/state"
)

// MaxBps is the number of basis points in a whole.
const MaxBps = state.MaxBps

var maxBps = uint256.NewInt(MaxBps)

// Split divides [amount] between the operator and staking shares. The
// operator share is rounded down so any remainder goes to staking.
//
// Invariant: operatorShare + stakingShare == amount.
func Split(amount *uint256.Int, bps uint16) (operatorShare *uint256.Int, stakingShare *uint256.Int, err error) {
	if bps >= MaxBps {
		return nil, nil, fmt.Errorf("%w: %d must be less than %d", ErrInvalidBps, bps, MaxBps)
	}
	// The quotient never exceeds [amount], so it can't overflow.
	operatorShare, _ = new(uint256.Int).MulDivOverflow(amount, uint256.NewInt(uint64(bps)), maxBps)
	stakingShare = new(uint256.Int).Sub(amount, operatorShare)
	return operatorShare, stakingShare, nil
}
