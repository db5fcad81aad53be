// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"net/http"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/Juneo-io/epochminter/distributor"
	"github.com/Juneo-io/epochminter/distributor/status"
	"github.com/Juneo-io/epochminter/utils/json"
)

// ServiceName is the JSON-RPC namespace of the distributor methods.
const ServiceName = "distributor"

// EmptyReply is the reply of methods that only report an error.
type EmptyReply struct{}

// Service is the JSON-RPC API of a distributor. Every call holds the node
// lock for its whole duration.
type Service struct {
	lock        sync.Locker
	distributor distributor.Distributor
	log         *zap.Logger
}

func NewService(lock sync.Locker, d distributor.Distributor, log *zap.Logger) *Service {
	return &Service{
		lock:        lock,
		distributor: d,
		log:         log,
	}
}

// MintReply is the result of a mint. Amounts are decimal strings.
type MintReply struct {
	Epoch         json.Uint64    `json:"epoch"`
	Amount        string         `json:"amount"`
	OperatorShare string         `json:"operatorShare"`
	StakingShare  string         `json:"stakingShare"`
	OperatorBps   json.Uint16    `json:"operatorBps"`
	Manager       common.Address `json:"manager"`
	// OperatorShareOwed is set when the operator share is held in custody.
	OperatorShareOwed bool `json:"operatorShareOwed"`
}

func (s *Service) Mint(r *http.Request, _ *struct{}, reply *MintReply) error {
	s.log.Debug("API called",
		zap.String("service", ServiceName),
		zap.String("method", "mint"),
	)

	s.lock.Lock()
	defer s.lock.Unlock()

	result, err := s.distributor.Mint(r.Context())
	if err != nil {
		return err
	}
	reply.Epoch = json.Uint64(result.Epoch)
	reply.Amount = amountString(result.Amount)
	reply.OperatorShare = amountString(result.OperatorShare)
	reply.StakingShare = amountString(result.StakingShare)
	reply.OperatorBps = json.Uint16(result.OperatorBps)
	reply.Manager = result.Manager
	reply.OperatorShareOwed = result.OperatorShareOwed
	return nil
}

type PayOwedOperatorSharesReply struct {
	Paid json.Uint64 `json:"paid"`
}

func (s *Service) PayOwedOperatorShares(r *http.Request, _ *struct{}, reply *PayOwedOperatorSharesReply) error {
	s.log.Debug("API called",
		zap.String("service", ServiceName),
		zap.String("method", "payOwedOperatorShares"),
	)

	s.lock.Lock()
	defer s.lock.Unlock()

	paid, err := s.distributor.PayOwedOperatorShares(r.Context())
	reply.Paid = json.Uint64(paid)
	return err
}

type OwedPayout struct {
	Epoch   json.Uint64    `json:"epoch"`
	Manager common.Address `json:"manager"`
	Amount  string         `json:"amount"`
}

type GetOwedPayoutsReply struct {
	Payouts []OwedPayout `json:"payouts"`
}

func (s *Service) GetOwedPayouts(_ *http.Request, _ *struct{}, reply *GetOwedPayoutsReply) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	payouts := s.distributor.OwedPayouts()
	reply.Payouts = make([]OwedPayout, len(payouts))
	for i, payout := range payouts {
		reply.Payouts[i] = OwedPayout{
			Epoch:   json.Uint64(payout.Epoch),
			Manager: payout.Manager,
			Amount:  amountString(payout.Amount),
		}
	}
	return nil
}

type EpochArgs struct {
	Epoch json.Uint64 `json:"epoch"`
}

func (s *Service) Distribute(r *http.Request, args *EpochArgs, _ *EmptyReply) error {
	s.log.Debug("API called",
		zap.String("service", ServiceName),
		zap.String("method", "distribute"),
		zap.Uint64("epoch", uint64(args.Epoch)),
	)

	s.lock.Lock()
	defer s.lock.Unlock()

	return s.distributor.Distribute(r.Context(), uint64(args.Epoch))
}

type SetOperatorBpsArgs struct {
	OperatorBps json.Uint16 `json:"operatorBps"`
}

func (s *Service) SetOperatorBps(r *http.Request, args *SetOperatorBpsArgs, _ *EmptyReply) error {
	caller := Caller(r.Context())
	s.log.Debug("API called",
		zap.String("service", ServiceName),
		zap.String("method", "setOperatorBps"),
		zap.Stringer("caller", caller),
	)

	s.lock.Lock()
	defer s.lock.Unlock()

	return s.distributor.SetOperatorBps(r.Context(), caller, uint16(args.OperatorBps))
}

type SetOperatorRewardsManagerArgs struct {
	Manager common.Address `json:"manager"`
}

func (s *Service) SetOperatorRewardsManager(r *http.Request, args *SetOperatorRewardsManagerArgs, _ *EmptyReply) error {
	caller := Caller(r.Context())
	s.log.Debug("API called",
		zap.String("service", ServiceName),
		zap.String("method", "setOperatorRewardsManager"),
		zap.Stringer("caller", caller),
	)

	s.lock.Lock()
	defer s.lock.Unlock()

	return s.distributor.SetOperatorRewardsManager(r.Context(), caller, args.Manager)
}

type SetDistributionDelayArgs struct {
	DistributionDelay json.Uint64 `json:"distributionDelay"`
}

func (s *Service) SetDistributionDelay(r *http.Request, args *SetDistributionDelayArgs, _ *EmptyReply) error {
	caller := Caller(r.Context())
	s.log.Debug("API called",
		zap.String("service", ServiceName),
		zap.String("method", "setDistributionDelay"),
		zap.Stringer("caller", caller),
	)

	s.lock.Lock()
	defer s.lock.Unlock()

	return s.distributor.SetDistributionDelay(r.Context(), caller, uint64(args.DistributionDelay))
}

type GetEpochStatusReply struct {
	Status status.Status `json:"status"`
}

func (s *Service) GetEpochStatus(_ *http.Request, args *EpochArgs, reply *GetEpochStatusReply) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	reply.Status = s.distributor.EpochStatus(uint64(args.Epoch))
	return nil
}

type GetClockReply struct {
	Now                          json.Uint64 `json:"now"`
	LastRewardTimestamp          json.Uint64 `json:"lastRewardTimestamp"`
	NextEpochTimestamp           json.Uint64 `json:"nextEpochTimestamp"`
	MintAllowedTimestamp         json.Uint64 `json:"mintAllowedTimestamp"`
	DistributionAllowedTimestamp json.Uint64 `json:"distributionAllowedTimestamp"`
	EpochLength                  json.Uint64 `json:"epochLength"`
	DistributionDelay            json.Uint64 `json:"distributionDelay"`
	DistributionDelayMaximum     json.Uint64 `json:"distributionDelayMaximum"`
}

func (s *Service) GetClock(_ *http.Request, _ *struct{}, reply *GetClockReply) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	clock := s.distributor.Clock()
	reply.Now = json.Uint64(clock.Now)
	reply.LastRewardTimestamp = json.Uint64(clock.LastRewardTimestamp)
	reply.NextEpochTimestamp = json.Uint64(clock.NextEpochTimestamp)
	reply.MintAllowedTimestamp = json.Uint64(clock.MintAllowedTimestamp)
	reply.DistributionAllowedTimestamp = json.Uint64(clock.DistributionAllowedTimestamp)
	reply.EpochLength = json.Uint64(clock.EpochLength)
	reply.DistributionDelay = json.Uint64(clock.DistributionDelay)
	reply.DistributionDelayMaximum = json.Uint64(clock.DistributionDelayMaximum)
	return nil
}

// GetSplitReply describes how the next mint is split at the current
// settings.
type GetSplitReply struct {
	MintAmount             string         `json:"mintAmount"`
	OperatorShare          string         `json:"operatorShare"`
	StakingShare           string         `json:"stakingShare"`
	OperatorBps            json.Uint16    `json:"operatorBps"`
	OperatorRewardsManager common.Address `json:"operatorRewardsManager"`
}

func (s *Service) GetSplit(_ *http.Request, _ *struct{}, reply *GetSplitReply) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	amount := s.distributor.MintAmount()
	operatorShare, err := s.distributor.OperatorShare(amount)
	if err != nil {
		return err
	}
	stakingShare, err := s.distributor.StakingShare(amount)
	if err != nil {
		return err
	}
	reply.MintAmount = amountString(amount)
	reply.OperatorShare = amountString(operatorShare)
	reply.StakingShare = amountString(stakingShare)
	reply.OperatorBps = json.Uint16(s.distributor.OperatorBps())
	reply.OperatorRewardsManager = s.distributor.OperatorRewardsManager()
	return nil
}

type GetPendingEpochsReply struct {
	// Pending epochs are minted but not distributed yet.
	Pending []json.Uint64 `json:"pending"`
	// Distributable epochs are the pending epochs whose delay elapsed.
	Distributable []json.Uint64 `json:"distributable"`
}

func (s *Service) GetPendingEpochs(_ *http.Request, _ *struct{}, reply *GetPendingEpochsReply) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	reply.Pending = toJSONUint64s(s.distributor.PendingEpochs())
	reply.Distributable = toJSONUint64s(s.distributor.DistributableEpochs())
	return nil
}

func toJSONUint64s(values []uint64) []json.Uint64 {
	result := make([]json.Uint64, len(values))
	for i, v := range values {
		result[i] = json.Uint64(v)
	}
	return result
}

func amountString(amount *uint256.Int) string {
	return amount.ToBig().String()
}
