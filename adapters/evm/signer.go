// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Juneo-io/epochminter/distributor"
)

// DefaultConfirmTimeout bounds how long a sent transaction is waited for.
const DefaultConfirmTimeout = 2 * time.Minute

var (
	// errUnconfirmed is returned when a transaction may have been sent but
	// its receipt couldn't be observed.
	errUnconfirmed = errors.New("transaction unconfirmed")

	errNilChainID  = errors.New("nil chain ID")
	errTxReverted  = errors.New("transaction reverted")
	errInvalidKey  = errors.New("invalid private key")
	errNilContract = errors.New("nil contract backend")
)

// Backend is the chain connection used by the adapters. *ethclient.Client
// implements it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Signer issues the transactions of the adapters. Transactions are sent one
// at a time and waited for.
type Signer struct {
	lock           sync.Mutex
	key            *ecdsa.PrivateKey
	chainID        *big.Int
	address        common.Address
	gasLimit       uint64
	confirmTimeout time.Duration
}

// ParseKey parses a hex encoded secp256k1 private key.
func ParseKey(hexKey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidKey, err)
	}
	return key, nil
}

// NewSigner returns a signer for [chainID]. A zero [gasLimit] estimates the
// gas of every transaction.
func NewSigner(key *ecdsa.PrivateKey, chainID *big.Int, gasLimit uint64) (*Signer, error) {
	if key == nil {
		return nil, errInvalidKey
	}
	if chainID == nil {
		return nil, errNilChainID
	}
	return &Signer{
		key:            key,
		chainID:        new(big.Int).Set(chainID),
		address:        crypto.PubkeyToAddress(key.PublicKey),
		gasLimit:       gasLimit,
		confirmTimeout: DefaultConfirmTimeout,
	}, nil
}

// SetConfirmTimeout sets how long a sent transaction is waited for. Non-positive
// values are ignored.
func (s *Signer) SetConfirmTimeout(timeout time.Duration) {
	if timeout > 0 {
		s.confirmTimeout = timeout
	}
}

func (s *Signer) Address() common.Address {
	return s.address
}

// transact signs the transaction built by [issue], sends it and waits for it
// to be mined successfully.
//
// Once signed, the transaction is sent and waited for regardless of [ctx]
// being cancelled. Any failure past that point may hide an executed
// transaction and wraps errUnconfirmed.
func (s *Signer) transact(
	ctx context.Context,
	backend Backend,
	issue func(*bind.TransactOpts) (*types.Transaction, error),
) (*types.Receipt, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	opts, err := bind.NewKeyedTransactorWithChainID(s.key, s.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	opts.GasLimit = s.gasLimit
	opts.NoSend = true

	tx, err := issue(opts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.confirmTimeout)
	defer cancel()

	if err := backend.SendTransaction(ctx, tx); err != nil {
		// A rejected transaction was never executed. A timed out send may
		// still have reached the chain.
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: sending %s: %w", errUnconfirmed, tx.Hash(), err)
		}
		return nil, fmt.Errorf("failed to send %s: %w", tx.Hash(), err)
	}
	receipt, err := bind.WaitMined(ctx, backend, tx)
	if err != nil {
		return nil, fmt.Errorf("%w: waiting for %s: %w", errUnconfirmed, tx.Hash(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: %s", errTxReverted, tx.Hash())
	}
	return receipt, nil
}

// outcomeUnknown reports unconfirmed transactions as capability calls whose
// effects are unknown.
func outcomeUnknown(err error) error {
	if errors.Is(err, errUnconfirmed) {
		return fmt.Errorf("%w: %w", distributor.ErrOutcomeUnknown, err)
	}
	return err
}
