// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package distributor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/Juneo-io/epochminter/database"
	"github.com/Juneo-io/epochminter/database/memdb"
	"github.com/Juneo-io/epochminter/distributor/state"
	"github.com/Juneo-io/epochminter/distributor/status"
)

const (
	testGenesis           = 1_700_000_000
	testEpochLength       = 86_400
	testDistributionDelay = 3_600
	testMaxDelay          = 7 * 86_400
	testOperatorBps       = 1_000
)

var (
	errTestCapability = errors.New("capability failed")
	errTestCommit     = errors.New("commit failed")

	testMintAmount = uint256.NewInt(666_667)
	testAdmin      = common.HexToAddress("0x00000000000000000000000000000000000000ad")
	testManager    = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testNetwork    = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	testCustody    = common.HexToAddress("0x00000000000000000000000000000000000000cc")
	testToken      = common.HexToAddress("0x00000000000000000000000000000000000000ff")
)

type fakeClock interface {
	clockwork.Clock
	Advance(time.Duration)
}

type recorder struct {
	events []Event
}

func (r *recorder) OnEvent(e Event) {
	r.events = append(r.events, e)
}

func (r *recorder) types() []EventType {
	types := make([]EventType, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}

// failingState fails every Commit while fail is set.
type failingState struct {
	state.State
	fail bool
}

func (s *failingState) Commit() error {
	if s.fail {
		return errTestCommit
	}
	return s.State.Commit()
}

type testEnv struct {
	d        Distributor
	db       database.Database
	state    *failingState
	clock    fakeClock
	token    *MockToken
	sink     *MockRewardsSink
	recorder *recorder
}

func newTestEnv(t *testing.T, mutate func(*state.Genesis)) *testEnv {
	require := require.New(t)
	ctrl := gomock.NewController(t)

	_, genesisStakingShare, err := Split(testMintAmount, testOperatorBps)
	require.NoError(err)
	genesis := &state.Genesis{
		RewardTimestamp:              testGenesis,
		MintAllowedTimestamp:         testGenesis,
		DistributionAllowedTimestamp: testGenesis,
		DistributionDelay:            testDistributionDelay,
		OperatorBps:                  testOperatorBps,
		OperatorRewardsManager:       testManager,
		StakingShare:                 genesisStakingShare,
	}
	if mutate != nil {
		mutate(genesis)
	}
	db := memdb.New()
	s, err := state.New(db, genesis, testEpochLength, zap.NewNop())
	require.NoError(err)

	authorizer := NewMockAuthorizer(ctrl)
	authorizer.EXPECT().Authorized(gomock.Any(), gomock.Any()).DoAndReturn(
		func(caller common.Address, _ Action) bool {
			return caller == testAdmin
		},
	).AnyTimes()

	env := &testEnv{
		db:       db,
		state:    &failingState{State: s},
		clock:    clockwork.NewFakeClockAt(time.Unix(testGenesis, 0)),
		token:    NewMockToken(ctrl),
		sink:     NewMockRewardsSink(ctrl),
		recorder: &recorder{},
	}
	env.token.EXPECT().Address().Return(testToken).AnyTimes()

	env.d, err = New(Backend{
		Config: Config{
			MintAmount:               testMintAmount,
			DistributionDelayMaximum: testMaxDelay,
			Network:                  testNetwork,
			Custody:                  testCustody,
		},
		State:      env.state,
		Token:      env.token,
		Sink:       env.sink,
		Authorizer: authorizer,
		Schedule:   FixedSchedule(testEpochLength),
		Clock:      env.clock,
		Listener:   env.recorder,
		Log:        zap.NewNop(),
	})
	require.NoError(err)
	return env
}

func (e *testEnv) advanceTo(timestamp uint64) {
	now := uint64(e.clock.Now().Unix())
	e.clock.Advance(time.Duration(timestamp-now) * time.Second)
}

func (e *testEnv) expectMint(operatorShare *uint256.Int) {
	gomock.InOrder(
		e.token.EXPECT().Mint(gomock.Any(), testCustody, testMintAmount).Return(nil),
		e.token.EXPECT().Transfer(gomock.Any(), testManager, operatorShare).Return(nil),
	)
}

func (e *testEnv) expectDistribute(epoch uint64, amount *uint256.Int) {
	metadata, err := EncodeMetadata(epoch)
	if err != nil {
		panic(err)
	}
	e.sink.EXPECT().DistributeRewards(gomock.Any(), testNetwork, testToken, amount, metadata).Return(nil)
}

func TestNewInvalidBackend(t *testing.T) {
	require := require.New(t)

	s, err := state.New(memdb.New(), &state.Genesis{
		RewardTimestamp:        testGenesis,
		DistributionDelay:      testMaxDelay + 1,
		OperatorRewardsManager: testManager,
		StakingShare:           uint256.NewInt(0),
	}, testEpochLength, zap.NewNop())
	require.NoError(err)

	backend := Backend{
		Config: Config{
			MintAmount:               testMintAmount,
			DistributionDelayMaximum: testMaxDelay,
		},
		State:      s,
		Token:      NewMockToken(gomock.NewController(t)),
		Sink:       NewMockRewardsSink(gomock.NewController(t)),
		Authorizer: NewMockAuthorizer(gomock.NewController(t)),
		Schedule:   FixedSchedule(testEpochLength),
	}
	_, err = New(backend)
	require.ErrorIs(err, ErrDelayTooLarge)

	backend.Config.MintAmount = nil
	_, err = New(backend)
	require.ErrorIs(err, errNilMintAmount)

	backend.Config.MintAmount = uint256.NewInt(0)
	_, err = New(backend)
	require.ErrorIs(err, errZeroMintAmount)

	backend.Config.MintAmount = testMintAmount
	backend.Sink = nil
	_, err = New(backend)
	require.ErrorIs(err, errMissingCapability)
}

func TestMintNotStarted(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, func(g *state.Genesis) {
		g.MintAllowedTimestamp = testGenesis + 10*testEpochLength
	})
	env.advanceTo(testGenesis + 10*testEpochLength - 1)

	_, err := env.d.Mint(context.Background())
	require.ErrorIs(err, ErrNotStarted)
	require.Equal(uint64(testGenesis), env.state.GetLastRewardTimestamp())
	require.Empty(env.recorder.events)
}

func TestMintEpochNotReady(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, nil)
	env.advanceTo(testGenesis + testEpochLength - 1)

	_, err := env.d.Mint(context.Background())
	require.ErrorIs(err, ErrEpochNotReady)
	require.Equal(status.NotMinted, env.d.EpochStatus(testGenesis+testEpochLength))
	require.Empty(env.recorder.events)
}

func TestMint(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, nil)
	next := uint64(testGenesis + testEpochLength)
	env.advanceTo(next)
	env.expectMint(uint256.NewInt(66_666))

	result, err := env.d.Mint(context.Background())
	require.NoError(err)
	require.Equal(MintResult{
		Epoch:         next,
		Amount:        testMintAmount,
		OperatorShare: uint256.NewInt(66_666),
		StakingShare:  uint256.NewInt(600_001),
		OperatorBps:   testOperatorBps,
		Manager:       testManager,
	}, result)

	require.Equal(status.Minted, env.d.EpochStatus(next))
	require.Equal(next, env.d.Clock().LastRewardTimestamp)
	require.Equal(next+testEpochLength, env.d.NextEpochTimestamp())
	require.Equal([]uint64{testGenesis, next}, env.d.PendingEpochs())

	require.Len(env.recorder.events, 1)
	event := env.recorder.events[0]
	require.Equal(EventMinted, event.Type)
	require.Equal(next, event.Epoch)
	require.Equal(int64(666_667), event.Amount.Int64())
	require.Equal(int64(66_666), event.OperatorShare.Int64())
	require.Equal(int64(600_001), event.StakingShare.Int64())
	require.Equal(testManager, *event.Manager)

	// The same epoch can't be minted twice.
	_, err = env.d.Mint(context.Background())
	require.ErrorIs(err, ErrEpochNotReady)
}

func TestMintZeroOperatorShareSkipsTransfer(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, func(g *state.Genesis) {
		g.OperatorBps = 0
	})
	env.advanceTo(testGenesis + testEpochLength)
	env.token.EXPECT().Mint(gomock.Any(), testCustody, testMintAmount).Return(nil)

	result, err := env.d.Mint(context.Background())
	require.NoError(err)
	require.True(result.OperatorShare.IsZero())
	require.Equal(testMintAmount, result.StakingShare)
}

func TestMintCatchesUp(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, nil)
	env.advanceTo(testGenesis + 3*testEpochLength + 17)
	for i := uint64(1); i <= 3; i++ {
		env.expectMint(uint256.NewInt(66_666))

		result, err := env.d.Mint(context.Background())
		require.NoError(err)
		require.Equal(testGenesis+i*testEpochLength, result.Epoch)
	}

	_, err := env.d.Mint(context.Background())
	require.ErrorIs(err, ErrEpochNotReady)
}

func TestMintCapabilityFailureRollsBack(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, nil)
	next := uint64(testGenesis + testEpochLength)
	env.advanceTo(next)
	env.token.EXPECT().Mint(gomock.Any(), gomock.Any(), gomock.Any()).Return(errTestCapability)

	_, err := env.d.Mint(context.Background())
	require.ErrorIs(err, errTestCapability)
	require.Equal(uint64(testGenesis), env.d.Clock().LastRewardTimestamp)
	require.Equal(status.NotMinted, env.d.EpochStatus(next))
	require.Equal([]uint64{testGenesis}, env.d.PendingEpochs())
	require.Empty(env.recorder.events)

	// The caller can simply try again.
	env.expectMint(uint256.NewInt(66_666))
	_, err = env.d.Mint(context.Background())
	require.NoError(err)
	require.Equal(status.Minted, env.d.EpochStatus(next))
}

// trackCustody returns the balance of the custody account. Successive
// transfers fail with [transferErrs].
func (e *testEnv) trackCustody(transferErrs ...error) *uint256.Int {
	custody := new(uint256.Int)
	e.token.EXPECT().Mint(gomock.Any(), testCustody, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ common.Address, amount *uint256.Int) error {
			custody.Add(custody, amount)
			return nil
		},
	).AnyTimes()
	calls := 0
	e.token.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ common.Address, amount *uint256.Int) error {
			var err error
			if calls < len(transferErrs) {
				err = transferErrs[calls]
			}
			calls++
			if err == nil {
				custody.Sub(custody, amount)
			}
			return err
		},
	).AnyTimes()
	return custody
}

func TestMintOperatorTransferFailureOwesShare(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, nil)
	ctx := context.Background()
	next := uint64(testGenesis + testEpochLength)
	env.advanceTo(next)
	custody := env.trackCustody(errTestCapability, errTestCapability)

	result, err := env.d.Mint(ctx)
	require.NoError(err)
	require.True(result.OperatorShareOwed)
	require.Equal(next, result.Epoch)
	require.Equal(status.Minted, env.d.EpochStatus(next))
	require.Equal(next, env.d.Clock().LastRewardTimestamp)
	require.Equal(testMintAmount, custody)
	require.Equal([]state.Payout{
		{Epoch: next, Manager: testManager, Amount: uint256.NewInt(66_666)},
	}, env.d.OwedPayouts())

	require.Len(env.recorder.events, 1)
	require.Equal(EventMinted, env.recorder.events[0].Type)
	require.True(env.recorder.events[0].OperatorShareOwed)

	// The epoch was minted exactly once.
	_, err = env.d.Mint(ctx)
	require.ErrorIs(err, ErrEpochNotReady)
	require.Equal(testMintAmount, custody)

	// A failed retry keeps the share owed.
	paid, err := env.d.PayOwedOperatorShares(ctx)
	require.ErrorIs(err, errTestCapability)
	require.Zero(paid)
	require.Len(env.d.OwedPayouts(), 1)

	paid, err = env.d.PayOwedOperatorShares(ctx)
	require.NoError(err)
	require.Equal(1, paid)
	require.Empty(env.d.OwedPayouts())
	require.Equal(uint256.NewInt(600_001), custody)
	require.Equal([]EventType{EventMinted, EventOperatorSharePaid}, env.recorder.types())

	// Nothing is left to pay.
	paid, err = env.d.PayOwedOperatorShares(ctx)
	require.NoError(err)
	require.Zero(paid)
}

func TestOwedPayoutsArePersisted(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, nil)
	next := uint64(testGenesis + testEpochLength)
	env.advanceTo(next)
	gomock.InOrder(
		env.token.EXPECT().Mint(gomock.Any(), testCustody, testMintAmount).Return(nil),
		env.token.EXPECT().Transfer(gomock.Any(), testManager, uint256.NewInt(66_666)).Return(errTestCapability),
	)
	result, err := env.d.Mint(context.Background())
	require.NoError(err)
	require.True(result.OperatorShareOwed)

	reopened, err := state.New(env.db, nil, testEpochLength, zap.NewNop())
	require.NoError(err)
	require.Equal(status.Minted, reopened.GetEpochStatus(next))
	require.Equal([]state.Payout{
		{Epoch: next, Manager: testManager, Amount: uint256.NewInt(66_666)},
	}, reopened.OwedPayouts())
}

func TestMintOutcomeUnknownIsNotRepeated(t *testing.T) {
	tests := []struct {
		name         string
		expect       func(*testEnv)
		expectedOwed []state.Payout
	}{
		{
			name: "mint unconfirmed",
			expect: func(env *testEnv) {
				env.token.EXPECT().Mint(gomock.Any(), testCustody, testMintAmount).Return(
					fmt.Errorf("%w: timed out", ErrOutcomeUnknown),
				)
			},
		},
		{
			name: "operator transfer unconfirmed",
			expect: func(env *testEnv) {
				gomock.InOrder(
					env.token.EXPECT().Mint(gomock.Any(), testCustody, testMintAmount).Return(nil),
					env.token.EXPECT().Transfer(gomock.Any(), testManager, uint256.NewInt(66_666)).Return(
						fmt.Errorf("%w: timed out", ErrOutcomeUnknown),
					),
				)
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			env := newTestEnv(t, nil)
			ctx := context.Background()
			next := uint64(testGenesis + testEpochLength)
			env.advanceTo(next)
			test.expect(env)

			_, err := env.d.Mint(ctx)
			require.ErrorIs(err, ErrOutcomeUnknown)
			require.NotErrorIs(err, ErrNotPersisted)
			require.Equal(status.Minted, env.d.EpochStatus(next))
			require.Equal(next, env.d.Clock().LastRewardTimestamp)
			require.Empty(env.d.OwedPayouts())

			// The token is not called again for the same epoch.
			_, err = env.d.Mint(ctx)
			require.ErrorIs(err, ErrEpochNotReady)
			paid, err := env.d.PayOwedOperatorShares(ctx)
			require.NoError(err)
			require.Zero(paid)
		})
	}
}

func TestPayOwedOperatorSharesOutcomeUnknown(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.advanceTo(testGenesis + 2*testEpochLength)
	custody := env.trackCustody(
		errTestCapability,
		errTestCapability,
		fmt.Errorf("%w: timed out", ErrOutcomeUnknown),
	)

	for i := 0; i < 2; i++ {
		result, err := env.d.Mint(ctx)
		require.NoError(err)
		require.True(result.OperatorShareOwed)
	}
	require.Len(env.d.OwedPayouts(), 2)

	// The unconfirmed payout is forgotten and the next one waits.
	paid, err := env.d.PayOwedOperatorShares(ctx)
	require.ErrorIs(err, ErrOutcomeUnknown)
	require.Zero(paid)
	require.Equal([]state.Payout{
		{Epoch: testGenesis + 2*testEpochLength, Manager: testManager, Amount: uint256.NewInt(66_666)},
	}, env.d.OwedPayouts())

	paid, err = env.d.PayOwedOperatorShares(ctx)
	require.NoError(err)
	require.Equal(1, paid)
	require.Empty(env.d.OwedPayouts())
	require.Equal(new(uint256.Int).Mul(uint256.NewInt(2), testMintAmount), new(uint256.Int).Add(custody, uint256.NewInt(66_666)))
}

func TestScenarioGenesisDistributedOnce(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, nil)
	ctx := context.Background()

	env.advanceTo(testGenesis + testDistributionDelay)
	env.expectDistribute(testGenesis, uint256.NewInt(600_001))
	require.NoError(env.d.Distribute(ctx, testGenesis))
	require.Equal(status.Distributed, env.d.EpochStatus(testGenesis))

	err := env.d.Distribute(ctx, testGenesis)
	require.ErrorIs(err, ErrEpochNotAvailableForDistribution)

	require.Equal([]EventType{EventDistributed}, env.recorder.types())
	require.Equal(uint64(testGenesis), env.recorder.events[0].Epoch)
	require.Equal(int64(600_001), env.recorder.events[0].Amount.Int64())
}

func TestDistributeGating(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, func(g *state.Genesis) {
		g.DistributionAllowedTimestamp = testGenesis + 2*testDistributionDelay
	})
	ctx := context.Background()

	env.advanceTo(testGenesis + 2*testDistributionDelay - 1)
	err := env.d.Distribute(ctx, testGenesis)
	require.ErrorIs(err, ErrDistributionNotAllowedYet)
	require.Empty(env.d.DistributableEpochs())

	env.advanceTo(testGenesis + 2*testDistributionDelay)
	err = env.d.Distribute(ctx, testGenesis+testEpochLength)
	require.ErrorIs(err, ErrDistributionDelayNotElapsed)

	// Unminted epochs can't be distributed once their delay elapsed either.
	err = env.d.Distribute(ctx, testGenesis-testEpochLength)
	require.ErrorIs(err, ErrEpochNotAvailableForDistribution)

	require.Equal([]uint64{testGenesis}, env.d.DistributableEpochs())
	require.Equal(status.Minted, env.d.EpochStatus(testGenesis))
}

func TestDistributeDelayBoundary(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, nil)
	ctx := context.Background()
	next := uint64(testGenesis + testEpochLength)

	env.advanceTo(next)
	env.expectMint(uint256.NewInt(66_666))
	_, err := env.d.Mint(ctx)
	require.NoError(err)

	env.advanceTo(next + testDistributionDelay - 1)
	err = env.d.Distribute(ctx, next)
	require.ErrorIs(err, ErrDistributionDelayNotElapsed)
	require.Equal(status.Minted, env.d.EpochStatus(next))

	env.advanceTo(next + testDistributionDelay)
	env.expectDistribute(next, uint256.NewInt(600_001))
	require.NoError(env.d.Distribute(ctx, next))
	require.Equal(status.Distributed, env.d.EpochStatus(next))
}

func TestScenarioThreeMintsFourDistributions(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, nil)
	ctx := context.Background()

	epochs := []uint64{testGenesis}
	for i := uint64(1); i <= 3; i++ {
		epoch := testGenesis + i*testEpochLength
		env.advanceTo(epoch)
		env.expectMint(uint256.NewInt(66_666))
		result, err := env.d.Mint(ctx)
		require.NoError(err)
		require.Equal(epoch, result.Epoch)
		epochs = append(epochs, epoch)
	}

	env.advanceTo(epochs[3] + testDistributionDelay)
	require.Equal(epochs, env.d.DistributableEpochs())
	for _, epoch := range epochs {
		env.expectDistribute(epoch, uint256.NewInt(600_001))
		require.NoError(env.d.Distribute(ctx, epoch))
	}
	for _, epoch := range epochs {
		require.Equal(status.Distributed, env.d.EpochStatus(epoch))
		err := env.d.Distribute(ctx, epoch)
		require.ErrorIs(err, ErrEpochNotAvailableForDistribution)
	}
	require.Empty(env.d.PendingEpochs())
	require.Equal([]EventType{
		EventMinted,
		EventMinted,
		EventMinted,
		EventDistributed,
		EventDistributed,
		EventDistributed,
		EventDistributed,
	}, env.recorder.types())
}

func TestOperatorBpsCapturedAtMint(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, nil)
	ctx := context.Background()
	next := uint64(testGenesis + testEpochLength)

	env.advanceTo(next)
	env.expectMint(uint256.NewInt(66_666))
	_, err := env.d.Mint(ctx)
	require.NoError(err)

	require.NoError(env.d.SetOperatorBps(ctx, testAdmin, 5_000))
	operatorShare, err := env.d.OperatorShare(testMintAmount)
	require.NoError(err)
	require.Equal(uint256.NewInt(333_333), operatorShare)
	stakingShare, err := env.d.StakingShare(testMintAmount)
	require.NoError(err)
	require.Equal(uint256.NewInt(333_334), stakingShare)

	// The staking share retained at mint time is what gets distributed.
	env.advanceTo(next + testDistributionDelay)
	env.expectDistribute(next, uint256.NewInt(600_001))
	require.NoError(env.d.Distribute(ctx, next))

	last := env.recorder.events[len(env.recorder.events)-1]
	require.Equal(EventDistributed, last.Type)
	require.Equal(uint16(5_000), last.OperatorBps)
}

func TestDistributeSinkFailureRollsBack(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, nil)
	ctx := context.Background()

	env.advanceTo(testGenesis + testDistributionDelay)
	env.sink.EXPECT().DistributeRewards(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errTestCapability)

	err := env.d.Distribute(ctx, testGenesis)
	require.ErrorIs(err, errTestCapability)
	require.Equal(status.Minted, env.d.EpochStatus(testGenesis))
	require.Equal([]uint64{testGenesis}, env.d.PendingEpochs())
	require.Empty(env.recorder.events)

	env.expectDistribute(testGenesis, uint256.NewInt(600_001))
	require.NoError(env.d.Distribute(ctx, testGenesis))
}

func TestDistributeOutcomeUnknownIsNotRolledBack(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, nil)
	ctx := context.Background()

	env.advanceTo(testGenesis + testDistributionDelay)
	metadata, err := EncodeMetadata(testGenesis)
	require.NoError(err)

	// The sink received the rewards but the confirmation timed out.
	var pushed []*uint256.Int
	env.sink.EXPECT().DistributeRewards(gomock.Any(), testNetwork, testToken, uint256.NewInt(600_001), metadata).DoAndReturn(
		func(_ context.Context, _, _ common.Address, amount *uint256.Int, _ []byte) error {
			pushed = append(pushed, amount.Clone())
			return fmt.Errorf("%w: %w", ErrOutcomeUnknown, context.DeadlineExceeded)
		},
	)

	err = env.d.Distribute(ctx, testGenesis)
	require.ErrorIs(err, ErrOutcomeUnknown)
	require.ErrorIs(err, context.DeadlineExceeded)
	require.NotErrorIs(err, ErrNotPersisted)
	require.Equal(status.Distributed, env.d.EpochStatus(testGenesis))
	require.Empty(env.d.PendingEpochs())
	require.Empty(env.recorder.events)

	// A retry must not push the rewards a second time.
	err = env.d.Distribute(ctx, testGenesis)
	require.ErrorIs(err, ErrEpochNotAvailableForDistribution)
	require.Len(pushed, 1)

	// The settled epoch was written to disk.
	reopened, err := state.New(env.db, nil, testEpochLength, zap.NewNop())
	require.NoError(err)
	require.Equal(status.Distributed, reopened.GetEpochStatus(testGenesis))
}

func TestReentrantCalls(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, nil)
	ctx := context.Background()
	next := uint64(testGenesis + testEpochLength)

	env.advanceTo(next)
	env.expectMint(uint256.NewInt(66_666))
	_, err := env.d.Mint(ctx)
	require.NoError(err)
	env.advanceTo(next + testDistributionDelay)

	env.sink.EXPECT().DistributeRewards(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _, _ common.Address, _ *uint256.Int, _ []byte) error {
			err := env.d.Distribute(ctx, testGenesis)
			require.ErrorIs(err, ErrEpochNotAvailableForDistribution)

			err = env.d.Distribute(ctx, next)
			require.ErrorIs(err, ErrReentrantCall)

			err = env.d.SetOperatorBps(ctx, testAdmin, 0)
			require.ErrorIs(err, ErrReentrantCall)
			return nil
		},
	)
	require.NoError(env.d.Distribute(ctx, testGenesis))

	require.Equal(status.Distributed, env.d.EpochStatus(testGenesis))
	require.Equal(status.Minted, env.d.EpochStatus(next))
	require.Equal(uint16(testOperatorBps), env.d.OperatorBps())
}

func TestSetOperatorBps(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, nil)
	ctx := context.Background()

	err := env.d.SetOperatorBps(ctx, testManager, 2_000)
	require.ErrorIs(err, ErrUnauthorized)

	err = env.d.SetOperatorBps(ctx, testAdmin, MaxBps)
	require.ErrorIs(err, ErrInvalidBps)
	require.Equal(uint16(testOperatorBps), env.d.OperatorBps())

	require.NoError(env.d.SetOperatorBps(ctx, testAdmin, MaxBps-1))
	require.Equal(uint16(MaxBps-1), env.d.OperatorBps())

	require.NoError(env.d.SetOperatorBps(ctx, testAdmin, 0))
	require.Equal(uint16(0), env.d.OperatorBps())

	require.Equal([]EventType{EventOperatorBpsChanged, EventOperatorBpsChanged}, env.recorder.types())
}

func TestSetOperatorRewardsManager(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, nil)
	ctx := context.Background()
	newManager := common.HexToAddress("0x0000000000000000000000000000000000000bee")

	err := env.d.SetOperatorRewardsManager(ctx, testManager, newManager)
	require.ErrorIs(err, ErrUnauthorized)

	err = env.d.SetOperatorRewardsManager(ctx, testAdmin, common.Address{})
	require.ErrorIs(err, ErrInvalidManager)

	require.NoError(env.d.SetOperatorRewardsManager(ctx, testAdmin, newManager))
	require.Equal(newManager, env.d.OperatorRewardsManager())

	// Future mints pay the new manager.
	env.advanceTo(testGenesis + testEpochLength)
	gomock.InOrder(
		env.token.EXPECT().Mint(gomock.Any(), testCustody, testMintAmount).Return(nil),
		env.token.EXPECT().Transfer(gomock.Any(), newManager, uint256.NewInt(66_666)).Return(nil),
	)
	result, err := env.d.Mint(ctx)
	require.NoError(err)
	require.Equal(newManager, result.Manager)
}

func TestSetDistributionDelay(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, nil)
	ctx := context.Background()

	err := env.d.SetDistributionDelay(ctx, testManager, 0)
	require.ErrorIs(err, ErrUnauthorized)

	err = env.d.SetDistributionDelay(ctx, testAdmin, testMaxDelay+1)
	require.ErrorIs(err, ErrDelayTooLarge)
	require.Equal(uint64(testDistributionDelay), env.d.Clock().DistributionDelay)

	require.NoError(env.d.SetDistributionDelay(ctx, testAdmin, testMaxDelay))
	require.Equal(uint64(testMaxDelay), env.d.Clock().DistributionDelay)

	require.Equal([]EventType{EventDistributionDelayChanged}, env.recorder.types())
	require.Equal(uint64(testMaxDelay), env.recorder.events[0].DistributionDelay)
}

func TestDistributionDelayAppliesRetroactively(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, nil)
	ctx := context.Background()

	require.NoError(env.d.SetDistributionDelay(ctx, testAdmin, 2*testDistributionDelay))

	env.advanceTo(testGenesis + testDistributionDelay)
	err := env.d.Distribute(ctx, testGenesis)
	require.ErrorIs(err, ErrDistributionDelayNotElapsed)

	env.advanceTo(testGenesis + 2*testDistributionDelay)
	env.expectDistribute(testGenesis, uint256.NewInt(600_001))
	require.NoError(env.d.Distribute(ctx, testGenesis))
}

func TestCommitFailure(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, nil)
	ctx := context.Background()
	next := uint64(testGenesis + testEpochLength)

	// A setter has no external effect so it is reverted.
	env.state.fail = true
	err := env.d.SetOperatorBps(ctx, testAdmin, 0)
	require.ErrorIs(err, errTestCommit)
	require.Equal(uint16(testOperatorBps), env.d.OperatorBps())

	// A mint already reached the token so it is kept in memory.
	env.advanceTo(next)
	env.expectMint(uint256.NewInt(66_666))
	_, err = env.d.Mint(ctx)
	require.ErrorIs(err, ErrNotPersisted)
	require.Equal(status.Minted, env.d.EpochStatus(next))
	require.Equal([]EventType{EventMinted}, env.recorder.types())

	// Mutations are refused until the mint is persisted.
	err = env.d.SetOperatorBps(ctx, testAdmin, 0)
	require.ErrorIs(err, ErrNotPersisted)

	env.state.fail = false
	require.NoError(env.d.SetOperatorBps(ctx, testAdmin, 0))
	require.Equal(status.Minted, env.d.EpochStatus(next))
	require.Equal(next, env.d.Clock().LastRewardTimestamp)
}
