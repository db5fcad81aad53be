// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package distributor

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/Juneo-io/epochminter/distributor/state"
	"github.com/Juneo-io/epochminter/distributor/status"
)

var _ Distributor = (*distributor)(nil)

// Distributor mints a fixed reward every epoch and splits it between the
// operator and the staking rewards sink.
//
// A Distributor is not safe for concurrent use. Callers must serialize every
// call, including reads.
type Distributor interface {
	// Mint mints the reward of the epoch following the last minted one and
	// pays the operator share immediately. An operator share that can't be
	// transferred stays in custody and is owed until PayOwedOperatorShares
	// succeeds.
	Mint(ctx context.Context) (MintResult, error)
	// Distribute pushes the staking share of [epoch] to the rewards sink.
	Distribute(ctx context.Context, epoch uint64) error
	// PayOwedOperatorShares transfers the owed operator shares, oldest first,
	// and returns how many were paid. It stops at the first failure.
	PayOwedOperatorShares(ctx context.Context) (int, error)

	SetOperatorBps(ctx context.Context, caller common.Address, bps uint16) error
	SetOperatorRewardsManager(ctx context.Context, caller common.Address, manager common.Address) error
	SetDistributionDelay(ctx context.Context, caller common.Address, delay uint64) error

	EpochStatus(epoch uint64) status.Status
	Clock() Clock
	NextEpochTimestamp() uint64
	MintAmount() *uint256.Int
	OperatorBps() uint16
	OperatorRewardsManager() common.Address
	// OperatorShare of [amount] at the current operator bps.
	OperatorShare(amount *uint256.Int) (*uint256.Int, error)
	// StakingShare of [amount] at the current operator bps.
	StakingShare(amount *uint256.Int) (*uint256.Int, error)
	// PendingEpochs returns the minted but undistributed epochs, ascending.
	PendingEpochs() []uint64
	// DistributableEpochs returns the pending epochs that can be distributed
	// now.
	DistributableEpochs() []uint64
	// OwedPayouts returns the operator shares held in custody, ascending by
	// epoch.
	OwedPayouts() []state.Payout
}

type Config struct {
	// MintAmount is minted every epoch.
	MintAmount *uint256.Int
	// DistributionDelayMaximum bounds the distribution delay for the
	// lifetime of the distributor.
	DistributionDelayMaximum uint64
	// Network is forwarded to the rewards sink with every distribution.
	Network common.Address
	// Custody receives the minted rewards until they are paid out.
	Custody common.Address
}

// Backend is everything a distributor depends on.
type Backend struct {
	Config     Config
	State      state.State
	Token      Token
	Sink       RewardsSink
	Authorizer Authorizer
	Schedule   Schedule
	Clock      clockwork.Clock
	// Listener is optional.
	Listener Listener
	Log      *zap.Logger
}

// Clock is a snapshot of the timing state of a distributor.
type Clock struct {
	Now                          uint64
	LastRewardTimestamp          uint64
	NextEpochTimestamp           uint64
	MintAllowedTimestamp         uint64
	DistributionAllowedTimestamp uint64
	EpochLength                  uint64
	DistributionDelay            uint64
	DistributionDelayMaximum     uint64
}

// MintResult describes a successful mint.
type MintResult struct {
	Epoch         uint64
	Amount        *uint256.Int
	OperatorShare *uint256.Int
	StakingShare  *uint256.Int
	OperatorBps   uint16
	Manager       common.Address

	// OperatorShareOwed is set when the operator share could not be
	// transferred and is kept in custody.
	OperatorShareOwed bool
}

type distributor struct {
	config     Config
	state      state.State
	token      Token
	sink       RewardsSink
	authorizer Authorizer
	schedule   Schedule
	clock      clockwork.Clock
	listener   Listener
	log        *zap.Logger

	// inFlight is set while a capability is being called.
	inFlight bool
	// unpersisted is set when the effects of a call are in memory but were
	// not written to disk.
	unpersisted bool
}

func New(backend Backend) (Distributor, error) {
	switch {
	case backend.Config.MintAmount == nil:
		return nil, errNilMintAmount
	case backend.Config.MintAmount.IsZero():
		return nil, errZeroMintAmount
	case backend.State == nil:
		return nil, fmt.Errorf("%w: state", errMissingCapability)
	case backend.Token == nil:
		return nil, fmt.Errorf("%w: token", errMissingCapability)
	case backend.Sink == nil:
		return nil, fmt.Errorf("%w: rewards sink", errMissingCapability)
	case backend.Authorizer == nil:
		return nil, fmt.Errorf("%w: authorizer", errMissingCapability)
	case backend.Schedule == nil:
		return nil, fmt.Errorf("%w: schedule", errMissingCapability)
	}
	if delay := backend.State.GetDistributionDelay(); delay > backend.Config.DistributionDelayMaximum {
		return nil, fmt.Errorf("%w: %d > %d", ErrDelayTooLarge, delay, backend.Config.DistributionDelayMaximum)
	}

	d := &distributor{
		config:     backend.Config,
		state:      backend.State,
		token:      backend.Token,
		sink:       backend.Sink,
		authorizer: backend.Authorizer,
		schedule:   backend.Schedule,
		clock:      backend.Clock,
		listener:   backend.Listener,
		log:        backend.Log,
	}
	d.config.MintAmount = backend.Config.MintAmount.Clone()
	if d.clock == nil {
		d.clock = clockwork.NewRealClock()
	}
	if d.listener == nil {
		d.listener = noopListener{}
	}
	if d.log == nil {
		d.log = zap.NewNop()
	}
	return d, nil
}

func (d *distributor) Mint(ctx context.Context) (MintResult, error) {
	now := d.now()
	if allowed := d.state.GetMintAllowedTimestamp(); now < allowed {
		return MintResult{}, fmt.Errorf("%w: minting starts at %d, now is %d", ErrNotStarted, allowed, now)
	}
	last := d.state.GetLastRewardTimestamp()
	next, err := d.nextEpoch(last)
	if err != nil {
		return MintResult{}, err
	}
	if now < next {
		return MintResult{}, fmt.Errorf("%w: epoch %d ends at %d, now is %d", ErrEpochNotReady, last, next, now)
	}
	if epochStatus := d.state.GetEpochStatus(next); epochStatus != status.NotMinted {
		d.log.Error("next epoch is already in the ledger",
			zap.Uint64("lastRewardTimestamp", last),
			zap.Uint64("epoch", next),
			zap.Stringer("status", epochStatus),
		)
		return MintResult{}, fmt.Errorf("%w: epoch %d is %s", ErrEpochAlreadyMinted, next, epochStatus)
	}
	if err := d.enter(); err != nil {
		return MintResult{}, err
	}

	result := MintResult{
		Epoch:       next,
		Amount:      d.config.MintAmount.Clone(),
		OperatorBps: d.state.GetOperatorBps(),
		Manager:     d.state.GetOperatorRewardsManager(),
	}
	result.OperatorShare, result.StakingShare, err = Split(result.Amount, result.OperatorBps)
	if err != nil {
		return MintResult{}, err
	}

	if err := d.state.AddMintedEpoch(next, result.StakingShare); err != nil {
		d.state.Abort()
		return MintResult{}, err
	}
	d.state.SetLastRewardTimestamp(next)

	d.inFlight = true
	mintErr := d.token.Mint(ctx, d.config.Custody, result.Amount)
	var transferErr error
	if mintErr == nil && !result.OperatorShare.IsZero() {
		transferErr = d.token.Transfer(ctx, result.Manager, result.OperatorShare)
	}
	d.inFlight = false

	switch {
	case mintErr == nil:
	case errors.Is(mintErr, ErrOutcomeUnknown):
		// The reward may exist already. The epoch stays minted so it is never
		// minted twice.
		d.log.Error("reward of epoch may not have been minted",
			zap.Uint64("epoch", next),
			zap.Stringer("amount", result.Amount),
			zap.Error(mintErr),
		)
		return MintResult{}, errors.Join(
			fmt.Errorf("failed to confirm mint of epoch %d: %w", next, mintErr),
			d.commit(),
		)
	default:
		d.state.Abort()
		return MintResult{}, fmt.Errorf("failed to mint reward of epoch %d: %w", next, mintErr)
	}

	var payoutErr error
	switch {
	case transferErr == nil:
	case errors.Is(transferErr, ErrOutcomeUnknown):
		d.log.Error("operator share of epoch may not have been paid",
			zap.Uint64("epoch", next),
			zap.Stringer("manager", result.Manager),
			zap.Stringer("operatorShare", result.OperatorShare),
			zap.Error(transferErr),
		)
		payoutErr = fmt.Errorf("failed to confirm payment of operator share of epoch %d: %w", next, transferErr)
	default:
		d.log.Warn("operator share of epoch is owed",
			zap.Uint64("epoch", next),
			zap.Stringer("manager", result.Manager),
			zap.Stringer("operatorShare", result.OperatorShare),
			zap.Error(transferErr),
		)
		payoutErr = d.state.AddOwedPayout(state.Payout{
			Epoch:   next,
			Manager: result.Manager,
			Amount:  result.OperatorShare,
		})
		result.OperatorShareOwed = payoutErr == nil
	}

	manager := result.Manager
	persistErr := d.commit()
	d.emit(Event{
		Type:              EventMinted,
		Epoch:             next,
		Amount:            result.Amount.ToBig(),
		OperatorShare:     result.OperatorShare.ToBig(),
		StakingShare:      result.StakingShare.ToBig(),
		OperatorBps:       result.OperatorBps,
		Manager:           &manager,
		OperatorShareOwed: result.OperatorShareOwed,
	})
	if err := errors.Join(payoutErr, persistErr); err != nil {
		return MintResult{}, err
	}
	return result, nil
}

func (d *distributor) Distribute(ctx context.Context, epoch uint64) error {
	now := d.now()
	if allowed := d.state.GetDistributionAllowedTimestamp(); now < allowed {
		return fmt.Errorf("%w: distribution starts at %d, now is %d", ErrDistributionNotAllowedYet, allowed, now)
	}
	delay := d.state.GetDistributionDelay()
	if eligible := saturatingAdd(epoch, delay); now < eligible {
		return fmt.Errorf("%w: epoch %d can be distributed at %d, now is %d", ErrDistributionDelayNotElapsed, epoch, eligible, now)
	}
	entry, ok := d.state.GetEpoch(epoch)
	if !ok || entry.Status != status.Minted {
		return fmt.Errorf("%w: epoch %d is %s", ErrEpochNotAvailableForDistribution, epoch, d.state.GetEpochStatus(epoch))
	}
	metadata, err := EncodeMetadata(epoch)
	if err != nil {
		return err
	}
	if err := d.enter(); err != nil {
		return err
	}

	// The epoch is settled before the sink is called so that it can't be
	// distributed twice.
	if err := d.state.MarkDistributed(epoch); err != nil {
		d.state.Abort()
		return err
	}

	d.inFlight = true
	err = d.sink.DistributeRewards(ctx, d.config.Network, d.token.Address(), entry.StakingShare, metadata)
	d.inFlight = false
	switch {
	case err == nil:
	case errors.Is(err, ErrOutcomeUnknown):
		// The rewards may have reached the sink. The epoch stays distributed so
		// they are never pushed twice.
		d.log.Error("distribution of epoch may not have completed",
			zap.Uint64("epoch", epoch),
			zap.Stringer("amount", entry.StakingShare),
			zap.Error(err),
		)
		return errors.Join(
			fmt.Errorf("failed to confirm distribution of epoch %d: %w", epoch, err),
			d.commit(),
		)
	default:
		d.state.Abort()
		return fmt.Errorf("failed to distribute rewards of epoch %d: %w", epoch, err)
	}

	persistErr := d.commit()
	d.emit(Event{
		Type:        EventDistributed,
		Epoch:       epoch,
		Amount:      entry.StakingShare.ToBig(),
		OperatorBps: d.state.GetOperatorBps(),
	})
	return persistErr
}

func (d *distributor) PayOwedOperatorShares(ctx context.Context) (int, error) {
	payouts := d.state.OwedPayouts()
	if len(payouts) == 0 {
		return 0, nil
	}
	if err := d.enter(); err != nil {
		return 0, err
	}

	var (
		paid   []state.Payout
		payErr error
	)
	for _, payout := range payouts {
		d.inFlight = true
		err := d.token.Transfer(ctx, payout.Manager, payout.Amount)
		d.inFlight = false
		if err != nil && !errors.Is(err, ErrOutcomeUnknown) {
			payErr = fmt.Errorf("failed to pay operator share of epoch %d: %w", payout.Epoch, err)
			break
		}
		// A transfer that may have happened is never retried.
		if removeErr := d.state.RemoveOwedPayout(payout.Epoch); removeErr != nil {
			payErr = removeErr
			break
		}
		if err != nil {
			d.log.Error("owed operator share may not have been paid",
				zap.Uint64("epoch", payout.Epoch),
				zap.Stringer("manager", payout.Manager),
				zap.Stringer("operatorShare", payout.Amount),
				zap.Error(err),
			)
			payErr = fmt.Errorf("failed to confirm payment of operator share of epoch %d: %w", payout.Epoch, err)
			break
		}
		paid = append(paid, payout)
	}

	persistErr := d.commit()
	for _, payout := range paid {
		manager := payout.Manager
		d.emit(Event{
			Type:          EventOperatorSharePaid,
			Epoch:         payout.Epoch,
			OperatorShare: payout.Amount.ToBig(),
			OperatorBps:   d.state.GetOperatorBps(),
			Manager:       &manager,
		})
	}
	return len(paid), errors.Join(payErr, persistErr)
}

func (d *distributor) SetOperatorBps(_ context.Context, caller common.Address, bps uint16) error {
	if err := d.authorize(caller, ActionSetOperatorBps); err != nil {
		return err
	}
	if bps >= MaxBps {
		return fmt.Errorf("%w: %d must be less than %d", ErrInvalidBps, bps, MaxBps)
	}
	if err := d.enter(); err != nil {
		return err
	}

	d.state.SetOperatorBps(bps)
	if err := d.commitOrAbort(); err != nil {
		return err
	}
	d.emit(Event{
		Type:        EventOperatorBpsChanged,
		OperatorBps: bps,
	})
	return nil
}

func (d *distributor) SetOperatorRewardsManager(_ context.Context, caller common.Address, manager common.Address) error {
	if err := d.authorize(caller, ActionSetOperatorRewardsManager); err != nil {
		return err
	}
	if manager == (common.Address{}) {
		return fmt.Errorf("%w: zero address", ErrInvalidManager)
	}
	if err := d.enter(); err != nil {
		return err
	}

	d.state.SetOperatorRewardsManager(manager)
	if err := d.commitOrAbort(); err != nil {
		return err
	}
	d.emit(Event{
		Type:        EventOperatorRewardsManagerChanged,
		OperatorBps: d.state.GetOperatorBps(),
		Manager:     &manager,
	})
	return nil
}

func (d *distributor) SetDistributionDelay(_ context.Context, caller common.Address, delay uint64) error {
	if err := d.authorize(caller, ActionSetDistributionDelay); err != nil {
		return err
	}
	if delay > d.config.DistributionDelayMaximum {
		return fmt.Errorf("%w: %d > %d", ErrDelayTooLarge, delay, d.config.DistributionDelayMaximum)
	}
	if err := d.enter(); err != nil {
		return err
	}

	d.state.SetDistributionDelay(delay)
	if err := d.commitOrAbort(); err != nil {
		return err
	}
	d.emit(Event{
		Type:              EventDistributionDelayChanged,
		OperatorBps:       d.state.GetOperatorBps(),
		DistributionDelay: delay,
	})
	return nil
}

func (d *distributor) EpochStatus(epoch uint64) status.Status {
	return d.state.GetEpochStatus(epoch)
}

func (d *distributor) Clock() Clock {
	last := d.state.GetLastRewardTimestamp()
	epochLength := d.schedule.EpochLength(last)
	return Clock{
		Now:                          d.now(),
		LastRewardTimestamp:          last,
		NextEpochTimestamp:           saturatingAdd(last, epochLength),
		MintAllowedTimestamp:         d.state.GetMintAllowedTimestamp(),
		DistributionAllowedTimestamp: d.state.GetDistributionAllowedTimestamp(),
		EpochLength:                  epochLength,
		DistributionDelay:            d.state.GetDistributionDelay(),
		DistributionDelayMaximum:     d.config.DistributionDelayMaximum,
	}
}

func (d *distributor) NextEpochTimestamp() uint64 {
	last := d.state.GetLastRewardTimestamp()
	return saturatingAdd(last, d.schedule.EpochLength(last))
}

func (d *distributor) MintAmount() *uint256.Int {
	return d.config.MintAmount.Clone()
}

func (d *distributor) OperatorBps() uint16 {
	return d.state.GetOperatorBps()
}

func (d *distributor) OperatorRewardsManager() common.Address {
	return d.state.GetOperatorRewardsManager()
}

func (d *distributor) OperatorShare(amount *uint256.Int) (*uint256.Int, error) {
	operatorShare, _, err := Split(amount, d.state.GetOperatorBps())
	return operatorShare, err
}

func (d *distributor) StakingShare(amount *uint256.Int) (*uint256.Int, error) {
	_, stakingShare, err := Split(amount, d.state.GetOperatorBps())
	return stakingShare, err
}

func (d *distributor) PendingEpochs() []uint64 {
	return d.state.PendingEpochs()
}

func (d *distributor) DistributableEpochs() []uint64 {
	now := d.now()
	if now < d.state.GetDistributionAllowedTimestamp() {
		return nil
	}
	delay := d.state.GetDistributionDelay()
	pending := d.state.PendingEpochs()
	for i, epoch := range pending {
		if now < saturatingAdd(epoch, delay) {
			return pending[:i]
		}
	}
	return pending
}

func (d *distributor) OwedPayouts() []state.Payout {
	return d.state.OwedPayouts()
}

func (d *distributor) now() uint64 {
	unix := d.clock.Now().Unix()
	if unix < 0 {
		return 0
	}
	return uint64(unix)
}

func (d *distributor) nextEpoch(last uint64) (uint64, error) {
	epochLength := d.schedule.EpochLength(last)
	if epochLength == 0 {
		return 0, fmt.Errorf("%w: epoch %d", errZeroEpochLength, last)
	}
	if last > math.MaxUint64-epochLength {
		return 0, fmt.Errorf("%w: %d + %d", errTimestampOverflow, last, epochLength)
	}
	return last + epochLength, nil
}

func (d *distributor) authorize(caller common.Address, action Action) error {
	if !d.authorizer.Authorized(caller, action) {
		return fmt.Errorf("%w: %s may not %s", ErrUnauthorized, caller, action)
	}
	return nil
}

// enter fails if a capability call is in progress and retries writing the
// effects of a previous call that could not be persisted.
func (d *distributor) enter() error {
	if d.inFlight {
		return ErrReentrantCall
	}
	if !d.unpersisted {
		return nil
	}
	if err := d.state.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrNotPersisted, err)
	}
	d.unpersisted = false
	return nil
}

// commit persists the effects of a call that already reached external
// capabilities. A failure keeps the effects in memory.
func (d *distributor) commit() error {
	if err := d.state.Commit(); err != nil {
		d.unpersisted = true
		d.log.Error("failed to persist distributor state",
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrNotPersisted, err)
	}
	return nil
}

func (d *distributor) commitOrAbort() error {
	if err := d.state.Commit(); err != nil {
		d.state.Abort()
		return err
	}
	return nil
}

func (d *distributor) emit(e Event) {
	e.ID = uuid.New()
	e.Time = d.now()
	d.listener.OnEvent(e)
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}
