// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Juneo-io/epochminter/database/manager"
	"github.com/Juneo-io/epochminter/genesis"
	"github.com/Juneo-io/epochminter/node"
	"github.com/Juneo-io/epochminter/trace"
	"github.com/Juneo-io/epochminter/utils/constants"
	"github.com/Juneo-io/epochminter/utils/logging"
)

// EnvPrefix prefixes every environment variable read by the node.
const EnvPrefix = "epochminter"

var (
	defaultDataDir = filepath.Join("$HOME", "."+constants.AppName)

	errInvalidConfigContent = errors.New("invalid config file content")
)

func addNodeFlags(fs *pflag.FlagSet) {
	// Config sources
	fs.String(ConfigFileKey, "", fmt.Sprintf("Specifies a config file. Ignored if %s is specified", ConfigContentKey))
	fs.String(ConfigContentKey, "", "Specifies base64 encoded config content")
	fs.String(ConfigContentTypeKey, "json", "Specifies the format of the base64 encoded config content. Available values: 'json', 'yaml', 'toml'")
	fs.String(EnvFileKey, "", "Specifies a .env file whose variables are loaded before reading the environment")

	// Network
	fs.String(NetworkNameKey, constants.LocalName, "Network ID this node will run on")
	fs.String(GenesisFileKey, "", fmt.Sprintf("Specifies a genesis config file. Ignored if %s is specified", GenesisFileContentKey))
	fs.String(GenesisFileContentKey, "", "Specifies base64 encoded genesis content")
	fs.Duration(EpochLengthKey, 0, "Overrides the epoch length of the network. Not allowed on public networks")
	fs.String(MintAmountKey, "", "Overrides the amount minted every epoch, in the smallest denomination. Not allowed on public networks")
	fs.Duration(DistributionDelayMaxKey, 0, "Overrides the maximum distribution delay of the network. Not allowed on public networks")

	// Database
	fs.String(DataDirKey, defaultDataDir, "Sets the base data directory where default sub-directories will be placed unless otherwise specified")
	fs.String(DBTypeKey, manager.LevelDB, fmt.Sprintf("Database type to use. Must be one of {%s, %s, %s}", manager.LevelDB, manager.PebbleDB, manager.MemDB))

	// Logging
	loggingConfig := logging.DefaultConfig()
	fs.String(LogLevelKey, loggingConfig.Level, "The log level")
	fs.String(LogFormatKey, loggingConfig.Format, fmt.Sprintf("The stdout log format. Must be one of {%s, %s}", logging.ConsoleFormat, logging.JSONFormat))
	fs.String(LogsDirKey, "", "Logging directory. Empty disables file logging")
	fs.Int(LogRotaterMaxSizeKey, loggingConfig.MaxSize, "The maximum file size in megabytes of the log file before it gets rotated")
	fs.Int(LogRotaterMaxFilesKey, loggingConfig.MaxFiles, "The maximum number of old log files to retain")
	fs.Int(LogRotaterMaxAgeKey, loggingConfig.MaxAge, "The maximum number of days to retain old log files")
	fs.Bool(LogRotaterCompressKey, loggingConfig.Compress, "Enables the compression of rotated log files through gzip")

	// HTTP APIs
	fs.String(HTTPHostKey, "127.0.0.1", "Address of the HTTP server")
	fs.Uint(HTTPPortKey, 9660, "Port of the HTTP server")
	fs.StringSlice(HTTPAllowedOriginsKey, []string{"*"}, "Origins to allow on the HTTP port")
	fs.Duration(HTTPReadHeaderTimeoutKey, 30*time.Second, "Maximum duration to read request headers")
	fs.Duration(HTTPShutdownTimeoutKey, 10*time.Second, "Maximum duration to wait for existing connections to complete during node shutdown")
	fs.Bool(HTTPProxyProtocolKey, false, "If true, reads caller addresses from the PROXY protocol header of each connection")
	fs.String(APIJWTSecretKey, "", "Secret signing the tokens of privileged API callers. Empty disables privileged API calls")

	// Keeper
	fs.Bool(KeeperEnabledKey, true, "If true, the node mints and distributes every epoch on its own")
	fs.Duration(KeeperIntervalKey, 10*time.Second, "Interval between two keeper ticks")
	fs.Int(KeeperMaxMintsKey, 16, "Maximum number of missed epochs minted per keeper tick")
	fs.Float64(KeeperCallRateKey, 0, "Maximum number of distributor calls per second made by the keeper. Non-positive is unlimited")
	fs.Int(KeeperCallBurstKey, 1, "Number of distributor calls the keeper can make at once")

	// Tracing
	fs.Bool(TracingEnabledKey, false, "If true, enable opentelemetry tracing")
	fs.String(TracingExporterTypeKey, trace.GRPC.String(), fmt.Sprintf("Type of exporter to use for tracing. Options are [%s, %s]", trace.GRPC, trace.HTTP))
	fs.String(TracingEndpointKey, "localhost:4317", "The endpoint to send trace data to")
	fs.Bool(TracingInsecureKey, true, "If true, don't use TLS when sending trace data")
	fs.Float64(TracingSampleRateKey, 0.1, "The fraction of traces to sample. If >= 1, always sample. If <= 0, never sample")
	fs.StringToString(TracingHeadersKey, map[string]string{}, "The headers to provide the trace indexer")

	// Capabilities
	fs.String(CapabilitiesKey, node.MemoryBackend, fmt.Sprintf("Implementation of the token and rewards sink. Must be one of {%s, %s}", node.MemoryBackend, node.EVMBackend))
	fs.String(NetworkAddressKey, "", "Network address forwarded to the rewards sink with every distribution")
	fs.String(TokenAddressKey, "", "Address of the reward token contract")
	fs.String(SinkAddressKey, "", "Address of the rewards sink contract")
	fs.String(CustodyAddressKey, genesis.LocalAdmin.Hex(), fmt.Sprintf("Address custodying the minted rewards with the %s capabilities", node.MemoryBackend))
	fs.String(EVMRPCURLKey, "", "RPC URL of the chain hosting the token and rewards sink contracts")
	fs.String(EVMChainIDKey, "", "Chain ID of the contracts chain. Fetched from the chain when empty")
	fs.String(EVMPrivateKeyKey, "", "Hex encoded private key of the account minting the rewards")
	fs.Uint64(EVMGasLimitKey, 0, "Gas limit of every transaction. Zero estimates it")
	fs.Duration(EVMConfirmTimeoutKey, 2*time.Minute, "Maximum duration to wait for a sent transaction to be mined")

	// Roles
	fs.StringSlice(GrantsKey, nil, "Privileged actions granted on top of the genesis admins, formatted as action=address")
}

// BuildFlagSet returns a complete set of flags for the node.
func BuildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(constants.AppName, pflag.ContinueOnError)
	addNodeFlags(fs)
	return fs
}

// BuildViper returns the viper environment from parsing config file from
// default search paths and any parsed command line flags.
func BuildViper(fs *pflag.FlagSet, args []string) (*viper.Viper, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return NewViper(fs)
}

// NewViper builds the viper environment of already parsed flags. Flags take
// precedence over the environment, which takes precedence over the config
// file.
func NewViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	envFile, err := fs.GetString(EnvFileKey)
	if err != nil {
		return nil, err
	}
	if envFile != "" {
		if err := godotenv.Load(os.ExpandEnv(envFile)); err != nil {
			return nil, fmt.Errorf("couldn't load env file %q: %w", envFile, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix(EnvPrefix)
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	switch {
	case v.IsSet(ConfigContentKey):
		configContentB64 := v.GetString(ConfigContentKey)
		configBytes, err := base64.StdEncoding.DecodeString(configContentB64)
		if err != nil {
			return nil, fmt.Errorf("%w: unable to decode base64 content: %w", errInvalidConfigContent, err)
		}
		v.SetConfigType(v.GetString(ConfigContentTypeKey))
		if err := v.ReadConfig(bytes.NewBuffer(configBytes)); err != nil {
			return nil, err
		}
	case v.IsSet(ConfigFileKey):
		filename := os.ExpandEnv(v.GetString(ConfigFileKey))
		v.SetConfigFile(filename)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	return v, nil
}
