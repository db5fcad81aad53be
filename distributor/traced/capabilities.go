// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package traced

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel/attribute"

	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/Juneo-io/epochminter/distributor"
	"github.com/Juneo-io/epochminter/trace"
)

var (
	_ distributor.Token       = (*tracedToken)(nil)
	_ distributor.RewardsSink = (*tracedSink)(nil)
)

type tracedToken struct {
	distributor.Token
	tracer trace.Tracer
}

func NewToken(token distributor.Token, tracer trace.Tracer) distributor.Token {
	return &tracedToken{
		Token:  token,
		tracer: tracer,
	}
}

func (t *tracedToken) Mint(ctx context.Context, to common.Address, amount *uint256.Int) error {
	ctx, span := t.tracer.Start(ctx, "token.Mint", oteltrace.WithAttributes(
		attribute.Stringer("to", to),
		attribute.String("amount", amount.ToBig().String()),
	))
	defer span.End()

	err := t.Token.Mint(ctx, to, amount)
	recordError(span, err)
	return err
}

func (t *tracedToken) Transfer(ctx context.Context, to common.Address, amount *uint256.Int) error {
	ctx, span := t.tracer.Start(ctx, "token.Transfer", oteltrace.WithAttributes(
		attribute.Stringer("to", to),
		attribute.String("amount", amount.ToBig().String()),
	))
	defer span.End()

	err := t.Token.Transfer(ctx, to, amount)
	recordError(span, err)
	return err
}

type tracedSink struct {
	sink   distributor.RewardsSink
	tracer trace.Tracer
}

func NewRewardsSink(sink distributor.RewardsSink, tracer trace.Tracer) distributor.RewardsSink {
	return &tracedSink{
		sink:   sink,
		tracer: tracer,
	}
}

func (t *tracedSink) DistributeRewards(
	ctx context.Context,
	network common.Address,
	token common.Address,
	amount *uint256.Int,
	metadata []byte,
) error {
	ctx, span := t.tracer.Start(ctx, "sink.DistributeRewards", oteltrace.WithAttributes(
		attribute.Stringer("network", network),
		attribute.Stringer("token", token),
		attribute.String("amount", amount.ToBig().String()),
		attribute.Int("metadataLen", len(metadata)),
	))
	defer span.End()

	err := t.sink.DistributeRewards(ctx, network, token, amount, metadata)
	recordError(span, err)
	return err
}
