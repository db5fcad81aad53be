// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jonboulle/clockwork"

	"github.com/Juneo-io/epochminter/api"
	"github.com/Juneo-io/epochminter/distributor/keeper"
	"github.com/Juneo-io/epochminter/genesis"
	"github.com/Juneo-io/epochminter/trace"
	"github.com/Juneo-io/epochminter/utils/logging"
)

const (
	MemoryBackend = "memory"
	EVMBackend    = "evm"
)

var (
	errUnknownCapabilityBackend = errors.New("unknown capability backend")
	errMissingContract          = errors.New("missing contract address")
	errMissingRPCURL            = errors.New("missing RPC URL")
	errMissingPrivateKey        = errors.New("missing private key")
	errMissingCustody           = errors.New("missing custody address")
	errMissingGenesis           = errors.New("missing genesis")
)

type EVMConfig struct {
	// RPCURL of the chain hosting the token and rewards sink contracts.
	RPCURL string `json:"rpcURL"`
	// ChainID is fetched from the chain when nil.
	ChainID *big.Int `json:"chainID"`
	// PrivateKey of the account allowed to mint. It custodies the minted
	// rewards until they are paid out.
	PrivateKey string `json:"-"`
	// GasLimit of every transaction. Zero estimates it.
	GasLimit uint64 `json:"gasLimit"`
	// ConfirmTimeout bounds how long a sent transaction is waited for.
	// Zero uses the default.
	ConfirmTimeout time.Duration `json:"confirmTimeout"`
}

type CapabilitiesConfig struct {
	// Backend is either "memory" or "evm".
	Backend string `json:"backend"`
	// Network is forwarded to the rewards sink with every distribution.
	Network common.Address `json:"network"`
	Token   common.Address `json:"token"`
	Sink    common.Address `json:"sink"`
	// Custody holds the minted rewards of the memory backend. The EVM
	// backend custodies with its signer.
	Custody common.Address `json:"custody"`
	EVM     EVMConfig      `json:"evm"`
}

func (c *CapabilitiesConfig) Verify() error {
	switch c.Backend {
	case MemoryBackend:
		if c.Custody == (common.Address{}) {
			return errMissingCustody
		}
	case EVMBackend:
		switch {
		case c.Token == (common.Address{}) || c.Sink == (common.Address{}):
			return errMissingContract
		case c.EVM.RPCURL == "":
			return errMissingRPCURL
		case c.EVM.PrivateKey == "":
			return errMissingPrivateKey
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownCapabilityBackend, c.Backend)
	}
	return nil
}

// Config contains all of the configurations of a node.
type Config struct {
	NetworkID uint32          `json:"networkID"`
	Params    genesis.Params  `json:"params"`
	Genesis   *genesis.Config `json:"genesis"`

	DataDir         string `json:"dataDir"`
	DatabaseBackend string `json:"databaseBackend"`

	LoggingConfig logging.Config `json:"loggingConfig"`
	APIConfig     api.Config     `json:"apiConfig"`
	TraceConfig   trace.Config   `json:"traceConfig"`

	KeeperEnabled bool          `json:"keeperEnabled"`
	KeeperConfig  keeper.Config `json:"keeperConfig"`

	Capabilities CapabilitiesConfig `json:"capabilities"`
	// Grants of privileged actions, formatted as action=address, on top of
	// the genesis admins.
	Grants []string `json:"grants"`

	// Clock defaults to the wall clock.
	Clock clockwork.Clock `json:"-"`
}

func (c *Config) Verify() error {
	if err := c.Params.Verify(); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	if c.Genesis == nil {
		return errMissingGenesis
	}
	if err := c.Genesis.Verify(&c.Params); err != nil {
		return fmt.Errorf("invalid genesis: %w", err)
	}
	if err := c.LoggingConfig.Verify(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}
	if c.KeeperEnabled {
		if err := c.KeeperConfig.Verify(); err != nil {
			return fmt.Errorf("invalid keeper config: %w", err)
		}
	}
	if err := c.Capabilities.Verify(); err != nil {
		return fmt.Errorf("invalid capabilities config: %w", err)
	}
	return nil
}
