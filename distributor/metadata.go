// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package distributor

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/math"
)

// maxEpoch is the largest epoch timestamp representable as a uint48.
const maxEpoch = 1<<48 - 1

var (
	errEpochTooLarge   = errors.New("epoch timestamp does not fit in 48 bits")
	errInvalidMetadata = errors.New("invalid distribution metadata")

	// Metadata layout expected by the rewards sink: the epoch, the maximum
	// number of epochs the rewards may be spread over, and two extension
	// fields.
	metadataArguments = abi.Arguments{
		{Name: "epoch", Type: mustNewType("uint48")},
		{Name: "maxEpochs", Type: mustNewType("uint256")},
		{Name: "extraData", Type: mustNewType("bytes")},
		{Name: "extension", Type: mustNewType("bytes")},
	}
)

func mustNewType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// EncodeMetadata returns the metadata forwarded to the rewards sink when
// distributing [epoch].
func EncodeMetadata(epoch uint64) ([]byte, error) {
	if epoch > maxEpoch {
		return nil, fmt.Errorf("%w: %d", errEpochTooLarge, epoch)
	}
	return metadataArguments.Pack(
		new(big.Int).SetUint64(epoch),
		math.MaxBig256,
		[]byte{},
		[]byte{},
	)
}

// DecodeMetadata returns the epoch encoded in [metadata].
func DecodeMetadata(metadata []byte) (uint64, error) {
	values, err := metadataArguments.Unpack(metadata)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errInvalidMetadata, err)
	}
	if len(values) != len(metadataArguments) {
		return 0, fmt.Errorf("%w: expected %d values but got %d", errInvalidMetadata, len(metadataArguments), len(values))
	}
	epoch, ok := values[0].(*big.Int)
	if !ok || !epoch.IsUint64() {
		return 0, fmt.Errorf("%w: malformed epoch", errInvalidMetadata)
	}
	return epoch.Uint64(), nil
}
