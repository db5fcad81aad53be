// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Juneo-io/epochminter/distributor"
)

var _ distributor.Distributor = (*meteredDistributor)(nil)

type meteredDistributor struct {
	distributor.Distributor
	metrics Metrics
}

// NewDistributor records the outcome of every mutating call of [d] and the
// resulting ledger gauges.
func NewDistributor(d distributor.Distributor, metrics Metrics) distributor.Distributor {
	m := &meteredDistributor{
		Distributor: d,
		metrics:     metrics,
	}
	m.updateGauges()
	return m
}

func (m *meteredDistributor) Mint(ctx context.Context) (distributor.MintResult, error) {
	start := time.Now()
	result, err := m.Distributor.Mint(ctx)
	m.observe("mint", start, err)
	return result, err
}

func (m *meteredDistributor) Distribute(ctx context.Context, epoch uint64) error {
	start := time.Now()
	err := m.Distributor.Distribute(ctx, epoch)
	m.observe("distribute", start, err)
	return err
}

func (m *meteredDistributor) PayOwedOperatorShares(ctx context.Context) (int, error) {
	start := time.Now()
	paid, err := m.Distributor.PayOwedOperatorShares(ctx)
	m.observe("payOwedOperatorShares", start, err)
	return paid, err
}

func (m *meteredDistributor) SetOperatorBps(ctx context.Context, caller common.Address, bps uint16) error {
	start := time.Now()
	err := m.Distributor.SetOperatorBps(ctx, caller, bps)
	m.observe("setOperatorBps", start, err)
	return err
}

func (m *meteredDistributor) SetOperatorRewardsManager(ctx context.Context, caller common.Address, manager common.Address) error {
	start := time.Now()
	err := m.Distributor.SetOperatorRewardsManager(ctx, caller, manager)
	m.observe("setOperatorRewardsManager", start, err)
	return err
}

func (m *meteredDistributor) SetDistributionDelay(ctx context.Context, caller common.Address, delay uint64) error {
	start := time.Now()
	err := m.Distributor.SetDistributionDelay(ctx, caller, delay)
	m.observe("setDistributionDelay", start, err)
	return err
}

func (m *meteredDistributor) observe(op string, start time.Time, err error) {
	m.metrics.ObserveCall(op, time.Since(start), err)
	m.updateGauges()
}

func (m *meteredDistributor) updateGauges() {
	m.metrics.SetLastRewardTimestamp(m.Distributor.Clock().LastRewardTimestamp)
	m.metrics.SetPendingEpochs(len(m.Distributor.PendingEpochs()))
	m.metrics.SetOwedPayouts(len(m.Distributor.OwedPayouts()))
}
