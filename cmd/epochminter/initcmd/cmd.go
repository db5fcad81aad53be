// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package initcmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Juneo-io/epochminter/config"
	"github.com/Juneo-io/epochminter/genesis"
	"github.com/Juneo-io/epochminter/utils/constants"
)

const (
	NetworkKey       = "network-id"
	ConfigOutputKey  = "config-output"
	GenesisOutputKey = "genesis-output"

	filePerms = 0o600
)

// omittedKeys point to other config sources or override the network params.
// They are left out of templates.
var omittedKeys = map[string]struct{}{
	config.ConfigFileKey:           {},
	config.ConfigContentKey:        {},
	config.ConfigContentTypeKey:    {},
	config.EnvFileKey:              {},
	config.GenesisFileContentKey:   {},
	config.EpochLengthKey:          {},
	config.MintAmountKey:           {},
	config.DistributionDelayMaxKey: {},
}

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "init",
		Short: "Writes a node config file and the genesis it starts from",
		Args:  cobra.NoArgs,
		RunE:  initFunc,
	}
	AddFlags(c.Flags())
	return c
}

func AddFlags(flags *pflag.FlagSet) {
	flags.String(NetworkKey, constants.LocalName, "Network ID the node will run on")
	flags.String(ConfigOutputKey, "config.json", "Path of the written config file")
	flags.String(GenesisOutputKey, "genesis.json", "Path of the written genesis file. Ignored on public networks")
}

type Config struct {
	NetworkID     uint32
	ConfigOutput  string
	GenesisOutput string
}

func ParseFlags(flags *pflag.FlagSet, args []string) (*Config, error) {
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	networkName, err := flags.GetString(NetworkKey)
	if err != nil {
		return nil, err
	}
	networkID, err := constants.NetworkID(networkName)
	if err != nil {
		return nil, err
	}

	configOutput, err := flags.GetString(ConfigOutputKey)
	if err != nil {
		return nil, err
	}

	genesisOutput, err := flags.GetString(GenesisOutputKey)
	if err != nil {
		return nil, err
	}

	return &Config{
		NetworkID:     networkID,
		ConfigOutput:  configOutput,
		GenesisOutput: genesisOutput,
	}, nil
}

func initFunc(c *cobra.Command, args []string) error {
	config, err := ParseFlags(c.Flags(), args)
	if err != nil {
		return err
	}
	if err := Write(config); err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.OutOrStdout(), "wrote %s\n", config.ConfigOutput)
	return err
}

// Write atomically writes the default node config of the network. Custom
// networks also get their genesis written, which the config points to.
func Write(c *Config) error {
	v, err := config.BuildViper(config.BuildFlagSet(), nil)
	if err != nil {
		return err
	}
	template := make(map[string]interface{})
	for _, key := range v.AllKeys() {
		if _, ok := omittedKeys[key]; ok {
			continue
		}
		template[key] = v.Get(key)
	}
	template[config.NetworkNameKey] = constants.NetworkName(c.NetworkID)

	if c.NetworkID != constants.MainnetID && c.NetworkID != constants.TestnetID {
		genesisBytes, err := json.MarshalIndent(genesis.GetConfig(c.NetworkID), "", "  ")
		if err != nil {
			return err
		}
		if err := renameio.WriteFile(c.GenesisOutput, genesisBytes, filePerms); err != nil {
			return fmt.Errorf("couldn't write genesis: %w", err)
		}
		genesisPath, err := filepath.Abs(c.GenesisOutput)
		if err != nil {
			return err
		}
		template[config.GenesisFileKey] = genesisPath
	}

	configBytes, err := json.MarshalIndent(template, "", "  ")
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(c.ConfigOutput, configBytes, filePerms); err != nil {
		return fmt.Errorf("couldn't write config: %w", err)
	}
	return nil
}
