// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package distributor

import "errors"

var (
	ErrNotStarted                       = errors.New("minting has not started")
	ErrEpochNotReady                    = errors.New("epoch has not elapsed")
	ErrEpochAlreadyMinted               = errors.New("epoch already minted")
	ErrDistributionNotAllowedYet        = errors.New("distribution is not allowed yet")
	ErrDistributionDelayNotElapsed      = errors.New("distribution delay has not elapsed")
	ErrEpochNotAvailableForDistribution = errors.New("epoch is not available for distribution")
	ErrInvalidBps                       = errors.New("invalid basis points")
	ErrInvalidManager                   = errors.New("invalid operator rewards manager")
	ErrDelayTooLarge                    = errors.New("distribution delay is too large")
	ErrUnauthorized                     = errors.New("unauthorized")
	ErrReentrantCall                    = errors.New("reentrant call")
	// ErrOutcomeUnknown is wrapped by capabilities that can't tell whether a
	// failed call took effect. The distributor never repeats such a call.
	ErrOutcomeUnknown = errors.New("capability call outcome unknown")
	// ErrNotPersisted is returned when the effects of a call happened but
	// could not be written to disk. The next call retries the write.
	ErrNotPersisted = errors.New("state not persisted")

	errNilMintAmount     = errors.New("nil mint amount")
	errZeroMintAmount    = errors.New("mint amount must be non-zero")
	errZeroEpochLength   = errors.New("epoch length must be non-zero")
	errMissingCapability = errors.New("missing capability")
	errTimestampOverflow = errors.New("timestamp overflow")
)
