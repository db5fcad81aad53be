// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package traced wraps a distributor and its capabilities with tracing
// spans.
package traced

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/Juneo-io/epochminter/distributor"
	"github.com/Juneo-io/epochminter/trace"
)

var _ distributor.Distributor = (*tracedDistributor)(nil)

type tracedDistributor struct {
	distributor.Distributor
	tracer trace.Tracer
}

func NewDistributor(d distributor.Distributor, tracer trace.Tracer) distributor.Distributor {
	return &tracedDistributor{
		Distributor: d,
		tracer:      tracer,
	}
}

func (t *tracedDistributor) Mint(ctx context.Context) (distributor.MintResult, error) {
	ctx, span := t.tracer.Start(ctx, "distributor.Mint")
	defer span.End()

	result, err := t.Distributor.Mint(ctx)
	if err == nil {
		span.SetAttributes(
			attribute.Int64("epoch", int64(result.Epoch)),
			attribute.String("amount", result.Amount.ToBig().String()),
			attribute.String("operatorShare", result.OperatorShare.ToBig().String()),
			attribute.Int("operatorBps", int(result.OperatorBps)),
		)
	}
	recordError(span, err)
	return result, err
}

func (t *tracedDistributor) Distribute(ctx context.Context, epoch uint64) error {
	ctx, span := t.tracer.Start(ctx, "distributor.Distribute", oteltrace.WithAttributes(
		attribute.Int64("epoch", int64(epoch)),
	))
	defer span.End()

	err := t.Distributor.Distribute(ctx, epoch)
	recordError(span, err)
	return err
}

func (t *tracedDistributor) PayOwedOperatorShares(ctx context.Context) (int, error) {
	ctx, span := t.tracer.Start(ctx, "distributor.PayOwedOperatorShares")
	defer span.End()

	paid, err := t.Distributor.PayOwedOperatorShares(ctx)
	span.SetAttributes(attribute.Int("paid", paid))
	recordError(span, err)
	return paid, err
}

func (t *tracedDistributor) SetOperatorBps(ctx context.Context, caller common.Address, bps uint16) error {
	ctx, span := t.tracer.Start(ctx, "distributor.SetOperatorBps", oteltrace.WithAttributes(
		attribute.Stringer("caller", caller),
		attribute.Int("bps", int(bps)),
	))
	defer span.End()

	err := t.Distributor.SetOperatorBps(ctx, caller, bps)
	recordError(span, err)
	return err
}

func (t *tracedDistributor) SetOperatorRewardsManager(ctx context.Context, caller common.Address, manager common.Address) error {
	ctx, span := t.tracer.Start(ctx, "distributor.SetOperatorRewardsManager", oteltrace.WithAttributes(
		attribute.Stringer("caller", caller),
		attribute.Stringer("manager", manager),
	))
	defer span.End()

	err := t.Distributor.SetOperatorRewardsManager(ctx, caller, manager)
	recordError(span, err)
	return err
}

func (t *tracedDistributor) SetDistributionDelay(ctx context.Context, caller common.Address, delay uint64) error {
	ctx, span := t.tracer.Start(ctx, "distributor.SetDistributionDelay", oteltrace.WithAttributes(
		attribute.Stringer("caller", caller),
		attribute.Int64("delay", int64(delay)),
	))
	defer span.End()

	err := t.Distributor.SetDistributionDelay(ctx, caller, delay)
	recordError(span, err)
	return err
}

func recordError(span oteltrace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
