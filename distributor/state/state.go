// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/btree"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/Juneo-io/epochminter/database"
	"github.com/Juneo-io/epochminter/distributor/status"
)

const (
	entrySize      = database.Uint64Size + 1 + 32
	payoutSize     = common.AddressLength + 32
	pendingDegree  = 32
	operatorBpsLen = 2
)

var (
	_ State = (*state)(nil)

	ErrInvalidTransition  = errors.New("invalid epoch status transition")
	ErrNonMonotonicEpoch  = errors.New("epoch does not extend the ledger")
	ErrUnknownEpoch       = errors.New("unknown epoch")
	ErrPayoutAlreadyOwed  = errors.New("payout already owed")
	ErrUnknownPayout      = errors.New("unknown payout")
	errCorruptedLedger    = errors.New("corrupted ledger")
	errInvalidEntryLength = errors.New("invalid ledger entry length")

	singletonPrefix = []byte("singleton")
	ledgerPrefix    = []byte("ledger")
	owedPrefix      = []byte("owed")

	initializedKey                  = []byte("initialized")
	lastRewardTimestampKey          = []byte("last reward timestamp")
	mintAllowedTimestampKey         = []byte("mint allowed timestamp")
	distributionAllowedTimestampKey = []byte("distribution allowed timestamp")
	distributionDelayKey            = []byte("distribution delay")
	operatorBpsKey                  = []byte("operator bps")
	operatorRewardsManagerKey       = []byte("operator rewards manager")
)

// Entry is a single epoch of the ledger.
type Entry struct {
	Timestamp uint64
	Status    status.Status
	// StakingShare is the amount retained for the rewards sink when the epoch
	// was minted.
	StakingShare *uint256.Int
}

// Payout is an operator share that was minted into custody but could not be
// transferred to the operator.
type Payout struct {
	Epoch   uint64
	Manager common.Address
	Amount  *uint256.Int
}

// State is the persisted surface of the distributor. Setters only modify the
// in-memory view; they are written to disk by Commit or reverted by Abort.
type State interface {
	GetLastRewardTimestamp() uint64
	SetLastRewardTimestamp(timestamp uint64)

	GetMintAllowedTimestamp() uint64
	GetDistributionAllowedTimestamp() uint64

	GetDistributionDelay() uint64
	SetDistributionDelay(delay uint64)

	GetOperatorBps() uint16
	SetOperatorBps(bps uint16)

	GetOperatorRewardsManager() common.Address
	SetOperatorRewardsManager(manager common.Address)

	// GetEpoch returns the ledger entry of the epoch at [timestamp]. Epochs
	// that were never minted are not part of the ledger.
	GetEpoch(timestamp uint64) (Entry, bool)
	// GetEpochStatus returns NotMinted for epochs missing from the ledger.
	GetEpochStatus(timestamp uint64) status.Status
	// EpochAt returns the [index]-th epoch of the ledger.
	EpochAt(index uint64) (Entry, bool)
	// NumEpochs returns the number of epochs in the ledger.
	NumEpochs() uint64

	// AddMintedEpoch appends the epoch at [timestamp] with status Minted.
	// [timestamp] must be strictly greater than every epoch in the ledger.
	AddMintedEpoch(timestamp uint64, stakingShare *uint256.Int) error
	// MarkDistributed moves the epoch at [timestamp] from Minted to
	// Distributed.
	MarkDistributed(timestamp uint64) error

	// PendingEpochs returns the Minted epochs, in ascending order.
	PendingEpochs() []uint64

	// AddOwedPayout records that the operator share of [payout.Epoch] is
	// still held in custody.
	AddOwedPayout(payout Payout) error
	// RemoveOwedPayout forgets the owed payout of [epoch].
	RemoveOwedPayout(epoch uint64) error
	// OwedPayouts returns the owed payouts, ascending by epoch.
	OwedPayouts() []Payout

	// Commit writes every modification since the last successful Commit or
	// Abort atomically. If the write fails the modifications are kept so a
	// later Commit can retry them.
	Commit() error
	// Abort reverts every modification since the last successful Commit.
	Abort()
}

/*
 * DB
 * |-. singletons
 * | |-- initializedKey -> nil
 * | |-- lastRewardTimestampKey -> timestamp
 * | |-- mintAllowedTimestampKey -> timestamp
 * | |-- distributionAllowedTimestampKey -> timestamp
 * | |-- distributionDelayKey -> seconds
 * | |-- operatorBpsKey -> bps
 * | '-- operatorRewardsManagerKey -> address
 * |-. ledger
 * | '-- epoch index -> timestamp | status | staking share
 * '-. owed
 *   '-- epoch -> manager | operator share
 */
type state struct {
	log *zap.Logger
	db  database.Database

	// epochLength is used to derive ledger indices from timestamps. A value
	// that doesn't match the ledger only costs a binary search.
	epochLength uint64

	lastRewardTimestamp          uint64
	mintAllowedTimestamp         uint64
	distributionAllowedTimestamp uint64
	distributionDelay            uint64
	operatorBps                  uint16
	operatorRewardsManager       common.Address

	ledger  []Entry
	pending *btree.BTreeG[uint64]
	owed    map[uint64]Payout

	undo         []func()
	dirtyEntries map[int]struct{}
	dirtyPayouts map[uint64]struct{}
}

// New loads the state from [db], initializing it from [genesis] when [db]
// has never been initialized.
func New(
	db database.Database,
	genesis *Genesis,
	epochLength uint64,
	log *zap.Logger,
) (State, error) {
	s := &state{
		log:          log,
		db:           db,
		epochLength:  epochLength,
		pending:      btree.NewG[uint64](pendingDegree, func(a, b uint64) bool { return a < b }),
		owed:         make(map[uint64]Payout),
		dirtyEntries: make(map[int]struct{}),
		dirtyPayouts: make(map[uint64]struct{}),
	}

	initialized, err := db.Has(database.Prefix(singletonPrefix, initializedKey))
	if err != nil {
		return nil, err
	}
	if initialized {
		if err := s.load(); err != nil {
			return nil, fmt.Errorf("failed to load state: %w", err)
		}
		return s, nil
	}

	if err := s.initFromGenesis(genesis); err != nil {
		return nil, fmt.Errorf("failed to initialize state from genesis: %w", err)
	}
	return s, nil
}

func (s *state) initFromGenesis(genesis *Genesis) error {
	if err := genesis.Verify(); err != nil {
		return err
	}

	s.lastRewardTimestamp = genesis.RewardTimestamp
	s.mintAllowedTimestamp = genesis.MintAllowedTimestamp
	s.distributionAllowedTimestamp = genesis.DistributionAllowedTimestamp
	s.distributionDelay = genesis.DistributionDelay
	s.operatorBps = genesis.OperatorBps
	s.operatorRewardsManager = genesis.OperatorRewardsManager

	// The genesis epoch predates this deployment: its reward already exists.
	if err := s.AddMintedEpoch(genesis.RewardTimestamp, genesis.StakingShare); err != nil {
		return err
	}
	batch, err := s.newBatch()
	if err != nil {
		return err
	}
	if err := batch.Put(database.Prefix(singletonPrefix, initializedKey), nil); err != nil {
		return err
	}
	if err := s.write(batch); err != nil {
		return err
	}

	s.log.Info("initialized distributor state from genesis",
		zap.Uint64("genesisRewardTimestamp", genesis.RewardTimestamp),
		zap.Uint64("mintAllowedTimestamp", genesis.MintAllowedTimestamp),
		zap.Uint64("distributionAllowedTimestamp", genesis.DistributionAllowedTimestamp),
	)
	return nil
}

func (s *state) load() error {
	if err := s.loadSingletons(); err != nil {
		return err
	}
	if err := s.loadLedger(); err != nil {
		return err
	}
	if err := s.loadOwedPayouts(); err != nil {
		return err
	}
	s.log.Info("loaded distributor state",
		zap.Uint64("lastRewardTimestamp", s.lastRewardTimestamp),
		zap.Int("numEpochs", len(s.ledger)),
		zap.Int("numPendingEpochs", s.pending.Len()),
		zap.Int("numOwedPayouts", len(s.owed)),
	)
	return nil
}

func (s *state) loadSingletons() error {
	var err error
	if s.lastRewardTimestamp, err = s.getSingletonUInt64(lastRewardTimestampKey); err != nil {
		return err
	}
	if s.mintAllowedTimestamp, err = s.getSingletonUInt64(mintAllowedTimestampKey); err != nil {
		return err
	}
	if s.distributionAllowedTimestamp, err = s.getSingletonUInt64(distributionAllowedTimestampKey); err != nil {
		return err
	}
	if s.distributionDelay, err = s.getSingletonUInt64(distributionDelayKey); err != nil {
		return err
	}

	bpsBytes, err := s.db.Get(database.Prefix(singletonPrefix, operatorBpsKey))
	if err != nil {
		return err
	}
	if len(bpsBytes) != operatorBpsLen {
		return fmt.Errorf("%w: operator bps has length %d", errCorruptedLedger, len(bpsBytes))
	}
	s.operatorBps = uint16(bpsBytes[0])<<8 | uint16(bpsBytes[1])

	managerBytes, err := s.db.Get(database.Prefix(singletonPrefix, operatorRewardsManagerKey))
	if err != nil {
		return err
	}
	if len(managerBytes) != common.AddressLength {
		return fmt.Errorf("%w: operator rewards manager has length %d", errCorruptedLedger, len(managerBytes))
	}
	s.operatorRewardsManager = common.BytesToAddress(managerBytes)
	return nil
}

func (s *state) getSingletonUInt64(key []byte) (uint64, error) {
	return database.GetUInt64(s.db, database.Prefix(singletonPrefix, key))
}

func (s *state) loadLedger() error {
	it := s.db.NewIteratorWithPrefix(ledgerPrefix)
	defer it.Release()

	for it.Next() {
		index, err := database.ParseUInt64(it.Key()[len(ledgerPrefix):])
		if err != nil {
			return err
		}
		if index != uint64(len(s.ledger)) {
			return fmt.Errorf("%w: expected index %d but found %d", errCorruptedLedger, len(s.ledger), index)
		}
		entry, err := parseEntry(it.Value())
		if err != nil {
			return err
		}
		if n := len(s.ledger); n > 0 && entry.Timestamp <= s.ledger[n-1].Timestamp {
			return fmt.Errorf("%w: epoch %d stored after epoch %d", errCorruptedLedger, entry.Timestamp, s.ledger[n-1].Timestamp)
		}
		s.ledger = append(s.ledger, entry)
		if entry.Status == status.Minted {
			s.pending.ReplaceOrInsert(entry.Timestamp)
		}
	}
	if err := it.Error(); err != nil {
		return err
	}
	if len(s.ledger) == 0 {
		return fmt.Errorf("%w: missing genesis epoch", errCorruptedLedger)
	}
	return nil
}

func (s *state) loadOwedPayouts() error {
	it := s.db.NewIteratorWithPrefix(owedPrefix)
	defer it.Release()

	for it.Next() {
		epoch, err := database.ParseUInt64(it.Key()[len(owedPrefix):])
		if err != nil {
			return err
		}
		if _, ok := s.indexOf(epoch); !ok {
			return fmt.Errorf("%w: payout owed for unknown epoch %d", errCorruptedLedger, epoch)
		}
		payout, err := parsePayout(epoch, it.Value())
		if err != nil {
			return err
		}
		s.owed[epoch] = payout
	}
	return it.Error()
}

func (s *state) GetLastRewardTimestamp() uint64 {
	return s.lastRewardTimestamp
}

func (s *state) SetLastRewardTimestamp(timestamp uint64) {
	prev := s.lastRewardTimestamp
	s.undo = append(s.undo, func() { s.lastRewardTimestamp = prev })
	s.lastRewardTimestamp = timestamp
}

func (s *state) GetMintAllowedTimestamp() uint64 {
	return s.mintAllowedTimestamp
}

func (s *state) GetDistributionAllowedTimestamp() uint64 {
	return s.distributionAllowedTimestamp
}

func (s *state) GetDistributionDelay() uint64 {
	return s.distributionDelay
}

func (s *state) SetDistributionDelay(delay uint64) {
	prev := s.distributionDelay
	s.undo = append(s.undo, func() { s.distributionDelay = prev })
	s.distributionDelay = delay
}

func (s *state) GetOperatorBps() uint16 {
	return s.operatorBps
}

func (s *state) SetOperatorBps(bps uint16) {
	prev := s.operatorBps
	s.undo = append(s.undo, func() { s.operatorBps = prev })
	s.operatorBps = bps
}

func (s *state) GetOperatorRewardsManager() common.Address {
	return s.operatorRewardsManager
}

func (s *state) SetOperatorRewardsManager(manager common.Address) {
	prev := s.operatorRewardsManager
	s.undo = append(s.undo, func() { s.operatorRewardsManager = prev })
	s.operatorRewardsManager = manager
}

func (s *state) GetEpoch(timestamp uint64) (Entry, bool) {
	index, ok := s.indexOf(timestamp)
	if !ok {
		return Entry{}, false
	}
	return s.entryAt(index), true
}

func (s *state) GetEpochStatus(timestamp uint64) status.Status {
	index, ok := s.indexOf(timestamp)
	if !ok {
		return status.NotMinted
	}
	return s.ledger[index].Status
}

func (s *state) EpochAt(index uint64) (Entry, bool) {
	if index >= uint64(len(s.ledger)) {
		return Entry{}, false
	}
	return s.entryAt(int(index)), true
}

func (s *state) NumEpochs() uint64 {
	return uint64(len(s.ledger))
}

func (s *state) entryAt(index int) Entry {
	entry := s.ledger[index]
	entry.StakingShare = entry.StakingShare.Clone()
	return entry
}

// indexOf returns the ledger index of [timestamp]. The index is derived
// arithmetically from the genesis epoch and the epoch length, falling back to
// a binary search over the ascending ledger.
func (s *state) indexOf(timestamp uint64) (int, bool) {
	n := len(s.ledger)
	if n == 0 {
		return 0, false
	}
	genesis := s.ledger[0].Timestamp
	if s.epochLength > 0 && timestamp >= genesis && (timestamp-genesis)%s.epochLength == 0 {
		index := (timestamp - genesis) / s.epochLength
		if index < uint64(n) && s.ledger[index].Timestamp == timestamp {
			return int(index), true
		}
	}
	return slices.BinarySearchFunc(s.ledger, timestamp, func(e Entry, t uint64) int {
		return cmp.Compare(e.Timestamp, t)
	})
}

func (s *state) AddMintedEpoch(timestamp uint64, stakingShare *uint256.Int) error {
	if n := len(s.ledger); n > 0 {
		if last := s.ledger[n-1].Timestamp; timestamp <= last {
			if _, exists := s.indexOf(timestamp); exists {
				return fmt.Errorf("%w: epoch %d is already %s",
					ErrInvalidTransition,
					timestamp,
					s.GetEpochStatus(timestamp),
				)
			}
			return fmt.Errorf("%w: epoch %d is not after epoch %d", ErrNonMonotonicEpoch, timestamp, last)
		}
	}

	index := len(s.ledger)
	s.ledger = append(s.ledger, Entry{
		Timestamp:    timestamp,
		Status:       status.Minted,
		StakingShare: stakingShare.Clone(),
	})
	s.pending.ReplaceOrInsert(timestamp)
	_, wasDirty := s.dirtyEntries[index]
	s.dirtyEntries[index] = struct{}{}

	s.undo = append(s.undo, func() {
		s.ledger = s.ledger[:index]
		s.pending.Delete(timestamp)
		if !wasDirty {
			delete(s.dirtyEntries, index)
		}
	})
	return nil
}

func (s *state) MarkDistributed(timestamp uint64) error {
	index, ok := s.indexOf(timestamp)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownEpoch, timestamp)
	}
	prev := s.ledger[index].Status
	if !prev.CanTransitionTo(status.Distributed) {
		return fmt.Errorf("%w: epoch %d is %s", ErrInvalidTransition, timestamp, prev)
	}

	s.ledger[index].Status = status.Distributed
	s.pending.Delete(timestamp)
	_, wasDirty := s.dirtyEntries[index]
	s.dirtyEntries[index] = struct{}{}

	s.undo = append(s.undo, func() {
		s.ledger[index].Status = prev
		s.pending.ReplaceOrInsert(timestamp)
		if !wasDirty {
			delete(s.dirtyEntries, index)
		}
	})
	return nil
}

func (s *state) PendingEpochs() []uint64 {
	epochs := make([]uint64, 0, s.pending.Len())
	s.pending.Ascend(func(timestamp uint64) bool {
		epochs = append(epochs, timestamp)
		return true
	})
	return epochs
}

func (s *state) AddOwedPayout(payout Payout) error {
	if _, ok := s.indexOf(payout.Epoch); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownEpoch, payout.Epoch)
	}
	if _, ok := s.owed[payout.Epoch]; ok {
		return fmt.Errorf("%w: epoch %d", ErrPayoutAlreadyOwed, payout.Epoch)
	}

	payout.Amount = payout.Amount.Clone()
	s.owed[payout.Epoch] = payout
	_, wasDirty := s.dirtyPayouts[payout.Epoch]
	s.dirtyPayouts[payout.Epoch] = struct{}{}

	s.undo = append(s.undo, func() {
		delete(s.owed, payout.Epoch)
		if !wasDirty {
			delete(s.dirtyPayouts, payout.Epoch)
		}
	})
	return nil
}

func (s *state) RemoveOwedPayout(epoch uint64) error {
	prev, ok := s.owed[epoch]
	if !ok {
		return fmt.Errorf("%w: epoch %d", ErrUnknownPayout, epoch)
	}

	delete(s.owed, epoch)
	_, wasDirty := s.dirtyPayouts[epoch]
	s.dirtyPayouts[epoch] = struct{}{}

	s.undo = append(s.undo, func() {
		s.owed[epoch] = prev
		if !wasDirty {
			delete(s.dirtyPayouts, epoch)
		}
	})
	return nil
}

func (s *state) OwedPayouts() []Payout {
	payouts := make([]Payout, 0, len(s.owed))
	for _, payout := range s.owed {
		payout.Amount = payout.Amount.Clone()
		payouts = append(payouts, payout)
	}
	slices.SortFunc(payouts, func(a, b Payout) int {
		return cmp.Compare(a.Epoch, b.Epoch)
	})
	return payouts
}

func (s *state) Commit() error {
	batch, err := s.newBatch()
	if err != nil {
		return err
	}
	return s.write(batch)
}

// newBatch returns a batch holding every singleton and every modified ledger
// entry or payout.
func (s *state) newBatch() (database.Batch, error) {
	batch := s.db.NewBatch()

	singletons := []struct {
		key   []byte
		value []byte
	}{
		{lastRewardTimestampKey, database.PackUInt64(s.lastRewardTimestamp)},
		{mintAllowedTimestampKey, database.PackUInt64(s.mintAllowedTimestamp)},
		{distributionAllowedTimestampKey, database.PackUInt64(s.distributionAllowedTimestamp)},
		{distributionDelayKey, database.PackUInt64(s.distributionDelay)},
		{operatorBpsKey, []byte{byte(s.operatorBps >> 8), byte(s.operatorBps)}},
		{operatorRewardsManagerKey, s.operatorRewardsManager.Bytes()},
	}
	for _, singleton := range singletons {
		if err := batch.Put(database.Prefix(singletonPrefix, singleton.key), singleton.value); err != nil {
			return nil, err
		}
	}

	for index := range s.dirtyEntries {
		key := database.Prefix(ledgerPrefix, database.PackUInt64(uint64(index)))
		if err := batch.Put(key, packEntry(s.ledger[index])); err != nil {
			return nil, err
		}
	}

	for epoch := range s.dirtyPayouts {
		key := database.Prefix(owedPrefix, database.PackUInt64(epoch))
		payout, ok := s.owed[epoch]
		if !ok {
			if err := batch.Delete(key); err != nil {
				return nil, err
			}
			continue
		}
		if err := batch.Put(key, packPayout(payout)); err != nil {
			return nil, err
		}
	}
	return batch, nil
}

func (s *state) write(batch database.Batch) error {
	if err := batch.Write(); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}

	s.undo = s.undo[:0]
	clear(s.dirtyEntries)
	clear(s.dirtyPayouts)
	return nil
}

func (s *state) Abort() {
	for i := len(s.undo) - 1; i >= 0; i-- {
		s.undo[i]()
	}
	s.undo = s.undo[:0]
	clear(s.dirtyEntries)
	clear(s.dirtyPayouts)
}

func packEntry(entry Entry) []byte {
	b := make([]byte, 0, entrySize)
	b = append(b, database.PackUInt64(entry.Timestamp)...)
	b = append(b, byte(entry.Status))
	share := entry.StakingShare.Bytes32()
	return append(b, share[:]...)
}

func parseEntry(b []byte) (Entry, error) {
	if len(b) != entrySize {
		return Entry{}, fmt.Errorf("%w: %d", errInvalidEntryLength, len(b))
	}
	timestamp, err := database.ParseUInt64(b[:database.Uint64Size])
	if err != nil {
		return Entry{}, err
	}
	epochStatus := status.Status(b[database.Uint64Size])
	if epochStatus != status.Minted && epochStatus != status.Distributed {
		return Entry{}, fmt.Errorf("%w: epoch %d has status %s", errCorruptedLedger, timestamp, epochStatus)
	}
	return Entry{
		Timestamp:    timestamp,
		Status:       epochStatus,
		StakingShare: new(uint256.Int).SetBytes(b[database.Uint64Size+1:]),
	}, nil
}

func packPayout(payout Payout) []byte {
	b := make([]byte, 0, payoutSize)
	b = append(b, payout.Manager.Bytes()...)
	amount := payout.Amount.Bytes32()
	return append(b, amount[:]...)
}

func parsePayout(epoch uint64, b []byte) (Payout, error) {
	if len(b) != payoutSize {
		return Payout{}, fmt.Errorf("%w: payout of epoch %d has length %d", errCorruptedLedger, epoch, len(b))
	}
	return Payout{
		Epoch:   epoch,
		Manager: common.BytesToAddress(b[:common.AddressLength]),
		Amount:  new(uint256.Int).SetBytes(b[common.AddressLength:]),
	}, nil
}
