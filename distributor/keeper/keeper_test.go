// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package keeper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Juneo-io/epochminter/database/memdb"
	"github.com/Juneo-io/epochminter/distributor"
	"github.com/Juneo-io/epochminter/distributor/state"
	"github.com/Juneo-io/epochminter/distributor/status"
)

const (
	genesisTimestamp = 1_000_000
	epochLength      = 600
	delay            = 60
)

var (
	errSinkDown = errors.New("sink down")

	manager = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock interface {
	clockwork.Clock
	Advance(time.Duration)
	BlockUntilContext(ctx context.Context, n int) error
}

type env struct {
	keeper      *Keeper
	distributor distributor.Distributor
	clock       fakeClock
	token       *distributor.MockToken
	sink        *distributor.MockRewardsSink
}

func newEnv(t *testing.T, config Config) *env {
	require := require.New(t)
	ctrl := gomock.NewController(t)

	db := memdb.New()
	t.Cleanup(func() {
		require.NoError(db.Close())
	})

	s, err := state.New(db, &state.Genesis{
		RewardTimestamp:        genesisTimestamp,
		MintAllowedTimestamp:   genesisTimestamp,
		DistributionDelay:      delay,
		OperatorBps:            2_500,
		OperatorRewardsManager: manager,
		StakingShare:           uint256.NewInt(75),
	}, epochLength, zap.NewNop())
	require.NoError(err)

	e := &env{
		clock: clockwork.NewFakeClockAt(time.Unix(genesisTimestamp, 0)),
		token: distributor.NewMockToken(ctrl),
		sink:  distributor.NewMockRewardsSink(ctrl),
	}
	e.token.EXPECT().Address().Return(common.Address{}).AnyTimes()

	e.distributor, err = distributor.New(distributor.Backend{
		Config: distributor.Config{
			MintAmount:               uint256.NewInt(100),
			DistributionDelayMaximum: epochLength,
		},
		State:      s,
		Token:      e.token,
		Sink:       e.sink,
		Authorizer: distributor.NewMockAuthorizer(ctrl),
		Schedule:   distributor.FixedSchedule(epochLength),
		Clock:      e.clock,
	})
	require.NoError(err)

	e.keeper, err = New(config, zap.NewNop(), &sync.Mutex{}, e.distributor, e.clock)
	require.NoError(err)
	return e
}

func testConfig() Config {
	return Config{
		Interval:        time.Minute,
		MaxMintsPerTick: 2,
		CallRate:        rate.Inf,
	}
}

func (e *env) expectMints(n int) {
	e.token.EXPECT().Mint(gomock.Any(), gomock.Any(), uint256.NewInt(100)).Return(nil).Times(n)
	e.token.EXPECT().Transfer(gomock.Any(), manager, uint256.NewInt(25)).Return(nil).Times(n)
}

func TestConfigVerify(t *testing.T) {
	require := require.New(t)

	config := testConfig()
	require.NoError(config.Verify())

	config.Interval = 0
	require.ErrorIs(config.Verify(), errNonPositiveInterval)

	config = testConfig()
	config.MaxMintsPerTick = 0
	require.ErrorIs(config.Verify(), errNonPositiveMints)

	config = testConfig()
	config.CallRate = 10
	require.ErrorIs(config.Verify(), errNonPositiveBurst)
}

func TestTickNothingToDo(t *testing.T) {
	require := require.New(t)

	e := newEnv(t, testConfig())

	minted, distributed, err := e.keeper.Tick(context.Background())
	require.NoError(err)
	require.Zero(minted)
	require.Zero(distributed)
}

func TestTickCatchesUpBounded(t *testing.T) {
	require := require.New(t)

	e := newEnv(t, testConfig())
	e.clock.Advance(3 * epochLength * time.Second)

	// Two mints per tick, then the genesis epoch is distributable.
	e.expectMints(2)
	e.sink.EXPECT().DistributeRewards(gomock.Any(), gomock.Any(), gomock.Any(), uint256.NewInt(75), gomock.Any()).Return(nil).Times(3)

	minted, distributed, err := e.keeper.Tick(context.Background())
	require.NoError(err)
	require.Equal(2, minted)
	require.Equal(3, distributed)

	e.expectMints(1)
	minted, distributed, err = e.keeper.Tick(context.Background())
	require.NoError(err)
	require.Equal(1, minted)
	require.Zero(distributed)

	require.Equal(status.Minted, e.distributor.EpochStatus(genesisTimestamp+3*epochLength))
	require.Equal([]uint64{genesisTimestamp + 3*epochLength}, e.distributor.PendingEpochs())
}

func TestTickContinuesAfterDistributeFailure(t *testing.T) {
	require := require.New(t)

	e := newEnv(t, testConfig())
	e.clock.Advance((epochLength + delay) * time.Second)

	e.expectMints(1)
	gomock.InOrder(
		e.sink.EXPECT().DistributeRewards(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errSinkDown),
		e.sink.EXPECT().DistributeRewards(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil),
	)

	minted, distributed, err := e.keeper.Tick(context.Background())
	require.NoError(err)
	require.Equal(1, minted)
	require.Equal(1, distributed)
	require.Equal(status.Minted, e.distributor.EpochStatus(genesisTimestamp))
	require.Equal(status.Distributed, e.distributor.EpochStatus(genesisTimestamp+epochLength))
}

func TestTickPaysOwedOperatorShare(t *testing.T) {
	require := require.New(t)

	e := newEnv(t, testConfig())
	e.clock.Advance(epochLength * time.Second)

	gomock.InOrder(
		e.token.EXPECT().Mint(gomock.Any(), gomock.Any(), uint256.NewInt(100)).Return(nil),
		e.token.EXPECT().Transfer(gomock.Any(), manager, uint256.NewInt(25)).Return(errSinkDown),
		e.token.EXPECT().Transfer(gomock.Any(), manager, uint256.NewInt(25)).Return(nil),
	)
	e.sink.EXPECT().DistributeRewards(gomock.Any(), gomock.Any(), gomock.Any(), uint256.NewInt(75), gomock.Any()).Return(nil)

	minted, distributed, err := e.keeper.Tick(context.Background())
	require.NoError(err)
	require.Equal(1, minted)
	require.Equal(1, distributed)
	require.Len(e.distributor.OwedPayouts(), 1)

	// The next tick pays the owed share without minting again.
	minted, distributed, err = e.keeper.Tick(context.Background())
	require.NoError(err)
	require.Zero(minted)
	require.Zero(distributed)
	require.Empty(e.distributor.OwedPayouts())
}

func TestTickDistributeOutcomeUnknown(t *testing.T) {
	require := require.New(t)

	e := newEnv(t, testConfig())
	e.clock.Advance(delay * time.Second)

	e.sink.EXPECT().DistributeRewards(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(
		fmt.Errorf("%w: %w", distributor.ErrOutcomeUnknown, context.DeadlineExceeded),
	).Times(1)

	_, distributed, err := e.keeper.Tick(context.Background())
	require.NoError(err)
	require.Zero(distributed)
	require.Equal(status.Distributed, e.distributor.EpochStatus(genesisTimestamp))

	_, distributed, err = e.keeper.Tick(context.Background())
	require.NoError(err)
	require.Zero(distributed)
}

func TestTickCancelled(t *testing.T) {
	require := require.New(t)

	config := testConfig()
	config.CallRate = 1
	config.CallBurst = 1
	e := newEnv(t, config)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := e.keeper.Tick(ctx)
	require.ErrorIs(err, context.Canceled)
}

func TestRun(t *testing.T) {
	require := require.New(t)

	e := newEnv(t, testConfig())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error)
	go func() {
		done <- e.keeper.Run(ctx)
	}()

	// Wait for the first tick to finish and the ticker to be waiting.
	require.NoError(e.clock.BlockUntilContext(ctx, 1))

	minted := make(chan struct{})
	e.token.EXPECT().Mint(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	e.token.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, common.Address, *uint256.Int) error {
			close(minted)
			return nil
		},
	)
	e.sink.EXPECT().DistributeRewards(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).MaxTimes(1)
	e.clock.Advance(epochLength * time.Second)

	select {
	case <-minted:
	case <-time.After(10 * time.Second):
		require.FailNow("keeper did not mint")
	}

	cancel()
	require.NoError(<-done)
}
