// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package distributor

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var _ Listener = (*logger)(nil)

type logger struct {
	log     *zap.Logger
	enabled *atomic.Bool
}

// NewLogger returns a listener that will log every event while [enabled] is
// set.
func NewLogger(log *zap.Logger, enabled *atomic.Bool) Listener {
	return &logger{
		log:     log,
		enabled: enabled,
	}
}

func (l *logger) OnEvent(e Event) {
	if !l.enabled.Load() {
		return
	}

	switch e.Type {
	case EventMinted:
		l.log.Info("epoch minted",
			zap.Stringer("eventID", e.ID),
			zap.Uint64("epoch", e.Epoch),
			zap.Stringer("amount", e.Amount),
			zap.Stringer("operatorShare", e.OperatorShare),
			zap.Stringer("stakingShare", e.StakingShare),
			zap.Uint16("operatorBps", e.OperatorBps),
			zap.Stringer("manager", e.Manager),
			zap.Bool("operatorShareOwed", e.OperatorShareOwed),
		)
	case EventOperatorSharePaid:
		l.log.Info("owed operator share paid",
			zap.Stringer("eventID", e.ID),
			zap.Uint64("epoch", e.Epoch),
			zap.Stringer("operatorShare", e.OperatorShare),
			zap.Stringer("manager", e.Manager),
		)
	case EventDistributed:
		l.log.Info("epoch distributed",
			zap.Stringer("eventID", e.ID),
			zap.Uint64("epoch", e.Epoch),
			zap.Stringer("amount", e.Amount),
			zap.Uint16("operatorBps", e.OperatorBps),
		)
	case EventOperatorBpsChanged:
		l.log.Info("operator bps changed",
			zap.Stringer("eventID", e.ID),
			zap.Uint16("operatorBps", e.OperatorBps),
		)
	case EventOperatorRewardsManagerChanged:
		l.log.Info("operator rewards manager changed",
			zap.Stringer("eventID", e.ID),
			zap.Stringer("manager", e.Manager),
		)
	case EventDistributionDelayChanged:
		l.log.Info("distribution delay changed",
			zap.Stringer("eventID", e.ID),
			zap.Uint64("distributionDelay", e.DistributionDelay),
		)
	default:
		l.log.Warn("unknown event",
			zap.Stringer("eventID", e.ID),
			zap.Stringer("type", e.Type),
		)
	}
}
