// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package genesis

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Juneo-io/epochminter/distributor/state"
)

// Config contains the initial, mutable settings of a network's distributor.
// It is only read the first time a node starts.
type Config struct {
	NetworkID uint32 `json:"networkID"`

	// RewardTime is the unix start of the genesis epoch. Zero starts the
	// genesis epoch when the node first starts.
	RewardTime uint64 `json:"rewardTime"`
	// MintAllowedTime and DistributionAllowedTime default to RewardTime
	// when zero.
	MintAllowedTime         uint64 `json:"mintAllowedTime"`
	DistributionAllowedTime uint64 `json:"distributionAllowedTime"`
	// DistributionDelay is in seconds.
	DistributionDelay uint64 `json:"distributionDelay"`

	OperatorBps            uint16         `json:"operatorBps"`
	OperatorRewardsManager common.Address `json:"operatorRewardsManager"`

	// Admins hold every privileged role.
	Admins []common.Address `json:"admins"`
}

func (c *Config) Verify(params *Params) error {
	switch {
	case c.OperatorBps >= state.MaxBps:
		return fmt.Errorf("%w: %d", errUnknownOperatorBps, c.OperatorBps)
	case c.OperatorRewardsManager == (common.Address{}):
		return errMissingRewardManager
	case c.DistributionDelay > params.DistributionDelayMaximumSeconds():
		return fmt.Errorf("%w: %d > %d",
			errDelayExceedsMaximum,
			c.DistributionDelay,
			params.DistributionDelayMaximumSeconds(),
		)
	default:
		return nil
	}
}

// GetConfig returns a copy of the genesis of the network with ID
// [networkID]. Unknown networks use the local genesis.
func GetConfig(networkID uint32) *Config {
	var config Config
	switch networkID {
	case MainnetConfig.NetworkID:
		config = MainnetConfig
	case TestnetConfig.NetworkID:
		config = TestnetConfig
	default:
		config = LocalConfig
		config.NetworkID = networkID
	}
	config.Admins = append([]common.Address(nil), config.Admins...)
	return &config
}

// GetConfigFile loads a *Config from a provided filepath.
func GetConfigFile(fp string) (*Config, error) {
	bytes, err := os.ReadFile(filepath.Clean(fp))
	if err != nil {
		return nil, fmt.Errorf("unable to load file %s: %w", fp, err)
	}
	return parseConfig(bytes)
}

// GetConfigContent loads a *Config from base64 encoded JSON.
func GetConfigContent(genesisContent string) (*Config, error) {
	bytes, err := base64.StdEncoding.DecodeString(genesisContent)
	if err != nil {
		return nil, fmt.Errorf("unable to decode base64 content: %w", err)
	}
	return parseConfig(bytes)
}

func parseConfig(bytes []byte) (*Config, error) {
	config := &Config{}
	if err := json.Unmarshal(bytes, config); err != nil {
		return nil, fmt.Errorf("could not unmarshal JSON: %w", err)
	}
	return config, nil
}
