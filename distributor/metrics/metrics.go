// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"errors"
	"math/big"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Juneo-io/epochminter/distributor"
	"github.com/Juneo-io/epochminter/utils/units"
)

var (
	_ Metrics = (*metrics)(nil)

	reasons = []struct {
		err    error
		reason string
	}{
		{distributor.ErrNotStarted, "not_started"},
		{distributor.ErrEpochNotReady, "epoch_not_ready"},
		{distributor.ErrEpochAlreadyMinted, "epoch_already_minted"},
		{distributor.ErrDistributionNotAllowedYet, "distribution_not_allowed_yet"},
		{distributor.ErrDistributionDelayNotElapsed, "distribution_delay_not_elapsed"},
		{distributor.ErrEpochNotAvailableForDistribution, "epoch_not_available"},
		{distributor.ErrInvalidBps, "invalid_bps"},
		{distributor.ErrInvalidManager, "invalid_manager"},
		{distributor.ErrDelayTooLarge, "delay_too_large"},
		{distributor.ErrUnauthorized, "unauthorized"},
		{distributor.ErrReentrantCall, "reentrant_call"},
		{distributor.ErrOutcomeUnknown, "outcome_unknown"},
		{distributor.ErrNotPersisted, "not_persisted"},
	}
)

type Metrics interface {
	APIInterceptor
	distributor.Listener

	// ObserveCall records the duration and outcome of a distributor call.
	ObserveCall(op string, duration time.Duration, err error)
	// SetLastRewardTimestamp records the most recently minted epoch.
	SetLastRewardTimestamp(timestamp uint64)
	// SetPendingEpochs records the number of minted, undistributed epochs.
	SetPendingEpochs(count int)
	// SetOwedPayouts records the number of operator shares held in custody.
	SetOwedPayouts(count int)
}

func New(namespace string, registerer prometheus.Registerer) (Metrics, error) {
	m := &metrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "calls",
				Help:      "Number of distributor calls by operation and result",
			},
			[]string{"op", "result"},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "call_duration_seconds",
				Help:      "Duration of distributor calls in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events",
				Help:      "Number of events emitted by type",
			},
			[]string{"type"},
		),
		minted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "minted",
			Help:      "Amount (in whole tokens) minted",
		}),
		operatorPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operator_paid",
			Help:      "Amount (in whole tokens) paid to the operator",
		}),
		distributed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "distributed",
			Help:      "Amount (in whole tokens) pushed to the rewards sink",
		}),
		operatorBps: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "operator_bps",
			Help:      "Operator share in basis points",
		}),
		distributionDelay: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "distribution_delay_seconds",
			Help:      "Delay before an epoch can be distributed",
		}),
		lastRewardTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_reward_timestamp",
			Help:      "Unix timestamp of the most recently minted epoch",
		}),
		pendingEpochs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_epochs",
			Help:      "Number of minted epochs awaiting distribution",
		}),
		owedPayouts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "owed_payouts",
			Help:      "Number of operator shares held in custody",
		}),
	}

	apiRequestMetrics, err := newAPIInterceptor(namespace, registerer)
	m.APIInterceptor = apiRequestMetrics
	return m, errors.Join(
		err,

		registerer.Register(m.calls),
		registerer.Register(m.callDuration),
		registerer.Register(m.events),

		registerer.Register(m.minted),
		registerer.Register(m.operatorPaid),
		registerer.Register(m.distributed),

		registerer.Register(m.operatorBps),
		registerer.Register(m.distributionDelay),
		registerer.Register(m.lastRewardTimestamp),
		registerer.Register(m.pendingEpochs),
		registerer.Register(m.owedPayouts),
	)
}

type metrics struct {
	APIInterceptor

	calls        *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	events       *prometheus.CounterVec

	minted, operatorPaid, distributed prometheus.Counter

	operatorBps         prometheus.Gauge
	distributionDelay   prometheus.Gauge
	lastRewardTimestamp prometheus.Gauge
	pendingEpochs       prometheus.Gauge
	owedPayouts         prometheus.Gauge
}

func (m *metrics) OnEvent(e distributor.Event) {
	m.events.WithLabelValues(e.Type.String()).Inc()

	switch e.Type {
	case distributor.EventMinted:
		m.minted.Add(tokens(e.Amount))
		if !e.OperatorShareOwed {
			m.operatorPaid.Add(tokens(e.OperatorShare))
		}
		m.lastRewardTimestamp.Set(float64(e.Epoch))
		m.operatorBps.Set(float64(e.OperatorBps))
	case distributor.EventOperatorSharePaid:
		m.operatorPaid.Add(tokens(e.OperatorShare))
	case distributor.EventDistributed:
		m.distributed.Add(tokens(e.Amount))
		m.operatorBps.Set(float64(e.OperatorBps))
	case distributor.EventOperatorBpsChanged:
		m.operatorBps.Set(float64(e.OperatorBps))
	case distributor.EventDistributionDelayChanged:
		m.distributionDelay.Set(float64(e.DistributionDelay))
	}
}

func (m *metrics) ObserveCall(op string, duration time.Duration, err error) {
	m.calls.WithLabelValues(op, Result(err)).Inc()
	m.callDuration.WithLabelValues(op).Observe(duration.Seconds())
}

func (m *metrics) SetLastRewardTimestamp(timestamp uint64) {
	m.lastRewardTimestamp.Set(float64(timestamp))
}

func (m *metrics) SetPendingEpochs(count int) {
	m.pendingEpochs.Set(float64(count))
}

func (m *metrics) SetOwedPayouts(count int) {
	m.owedPayouts.Set(float64(count))
}

// Result returns the label describing the outcome of a call.
func Result(err error) string {
	if err == nil {
		return "success"
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "capability_error"
}

var oneToken = new(big.Float).SetUint64(units.Token)

// tokens converts an amount with 18 decimals to whole tokens.
func tokens(amount *big.Int) float64 {
	if amount == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(amount), oneToken).Float64()
	return f
}
