// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package keeper drives a distributor: it mints every epoch as soon as it
// elapses and distributes every epoch once its delay elapsed.
package keeper

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Juneo-io/epochminter/distributor"
)

var (
	errNonPositiveInterval = errors.New("interval must be positive")
	errNonPositiveMints    = errors.New("max mints per tick must be positive")
	errNonPositiveBurst    = errors.New("call burst must be positive for a finite call rate")

	// Failures that only mean it is too early to call again.
	expectedErrors = []error{
		distributor.ErrNotStarted,
		distributor.ErrEpochNotReady,
		distributor.ErrDistributionNotAllowedYet,
		distributor.ErrDistributionDelayNotElapsed,
		distributor.ErrEpochNotAvailableForDistribution,
	}
)

type Config struct {
	// Interval between two ticks.
	Interval time.Duration `json:"interval"`
	// MaxMintsPerTick bounds how many missed epochs are caught up per tick.
	MaxMintsPerTick int `json:"maxMintsPerTick"`
	// CallRate limits the number of distributor calls per second.
	CallRate rate.Limit `json:"callRate"`
	CallBurst int       `json:"callBurst"`
}

func (c Config) Verify() error {
	switch {
	case c.Interval <= 0:
		return errNonPositiveInterval
	case c.MaxMintsPerTick <= 0:
		return errNonPositiveMints
	case c.CallRate != rate.Inf && c.CallBurst <= 0:
		return errNonPositiveBurst
	default:
		return nil
	}
}

// Keeper calls a distributor on a schedule. Every call holds [lock], which
// must be the lock serializing every other user of the distributor.
type Keeper struct {
	config      Config
	log         *zap.Logger
	lock        sync.Locker
	distributor distributor.Distributor
	clock       clockwork.Clock
	limiter     *rate.Limiter
}

func New(
	config Config,
	log *zap.Logger,
	lock sync.Locker,
	d distributor.Distributor,
	clock clockwork.Clock,
) (*Keeper, error) {
	if err := config.Verify(); err != nil {
		return nil, err
	}
	return &Keeper{
		config:      config,
		log:         log,
		lock:        lock,
		distributor: d,
		clock:       clock,
		limiter:     rate.NewLimiter(config.CallRate, config.CallBurst),
	}, nil
}

// Run ticks until [ctx] is cancelled.
func (k *Keeper) Run(ctx context.Context) error {
	ticker := k.clock.NewTicker(k.config.Interval)
	defer ticker.Stop()

	k.log.Info("keeper started",
		zap.Duration("interval", k.config.Interval),
	)
	for {
		if _, _, err := k.Tick(ctx); err != nil && ctx.Err() == nil {
			return err
		}

		select {
		case <-ctx.Done():
			k.log.Info("keeper stopped")
			return nil
		case <-ticker.Chan():
		}
	}
}

// Tick pays the owed operator shares, mints every elapsed epoch, up to
// MaxMintsPerTick, then distributes every distributable epoch. It only
// returns an error if [ctx] is done.
func (k *Keeper) Tick(ctx context.Context) (int, int, error) {
	if err := k.payOwed(ctx); err != nil {
		return 0, 0, err
	}

	minted := 0
	for minted < k.config.MaxMintsPerTick {
		if err := k.limiter.Wait(ctx); err != nil {
			return minted, 0, err
		}

		k.lock.Lock()
		result, err := k.distributor.Mint(ctx)
		k.lock.Unlock()
		if err != nil {
			k.logFailure("mint", 0, err)
			break
		}
		k.log.Debug("keeper minted epoch",
			zap.Uint64("epoch", result.Epoch),
		)
		minted++
	}

	k.lock.Lock()
	epochs := k.distributor.DistributableEpochs()
	k.lock.Unlock()

	distributed := 0
	for _, epoch := range epochs {
		if err := k.limiter.Wait(ctx); err != nil {
			return minted, distributed, err
		}

		k.lock.Lock()
		err := k.distributor.Distribute(ctx, epoch)
		k.lock.Unlock()
		if err != nil {
			k.logFailure("distribute", epoch, err)
			continue
		}
		k.log.Debug("keeper distributed epoch",
			zap.Uint64("epoch", epoch),
		)
		distributed++
	}
	return minted, distributed, nil
}

func (k *Keeper) payOwed(ctx context.Context) error {
	k.lock.Lock()
	owed := len(k.distributor.OwedPayouts())
	k.lock.Unlock()
	if owed == 0 {
		return nil
	}

	if err := k.limiter.Wait(ctx); err != nil {
		return err
	}
	k.lock.Lock()
	paid, err := k.distributor.PayOwedOperatorShares(ctx)
	k.lock.Unlock()
	if err != nil {
		k.logFailure("payOwedOperatorShares", 0, err)
	}
	if paid > 0 {
		k.log.Debug("keeper paid owed operator shares",
			zap.Int("paid", paid),
			zap.Int("owed", owed),
		)
	}
	return nil
}

func (k *Keeper) logFailure(op string, epoch uint64, err error) {
	if errors.Is(err, distributor.ErrOutcomeUnknown) {
		k.log.Error("keeper call outcome unknown",
			zap.String("op", op),
			zap.Uint64("epoch", epoch),
			zap.Error(err),
		)
		return
	}
	for _, expected := range expectedErrors {
		if errors.Is(err, expected) {
			k.log.Debug("keeper call skipped",
				zap.String("op", op),
				zap.Uint64("epoch", epoch),
				zap.Error(err),
			)
			return
		}
	}
	k.log.Warn("keeper call failed",
		zap.String("op", op),
		zap.Uint64("epoch", epoch),
		zap.Error(err),
	)
}
