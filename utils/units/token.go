// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package units

import "github.com/holiman/uint256"

// Denominations of value for an 18 decimal reward token
const (
	Atto  uint64 = 1
	Femto uint64 = 1000 * Atto
	Pico  uint64 = 1000 * Femto
	Nano  uint64 = 1000 * Pico
	Micro uint64 = 1000 * Nano
	Milli uint64 = 1000 * Micro
	Token uint64 = 1000 * Milli
)

var tokenDenomination = uint256.NewInt(Token)

// Tokens returns [n] whole tokens expressed in the smallest denomination.
func Tokens(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), tokenDenomination)
}
