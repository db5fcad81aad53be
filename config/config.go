// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config builds the configuration of a node from flags, the
// environment and config files.
package config

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"os"
	"reflect"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/Juneo-io/epochminter/api"
	"github.com/Juneo-io/epochminter/distributor/keeper"
	"github.com/Juneo-io/epochminter/genesis"
	"github.com/Juneo-io/epochminter/node"
	"github.com/Juneo-io/epochminter/trace"
	"github.com/Juneo-io/epochminter/utils/constants"
	"github.com/Juneo-io/epochminter/utils/logging"
)

var (
	errInvalidAddress           = errors.New("invalid address")
	errInvalidInteger           = errors.New("invalid integer")
	errIntegerOverflow          = errors.New("integer overflows 256 bits")
	errInvalidPort              = errors.New("invalid port")
	errCustomParamsOnPublicNet  = errors.New("params can't be overridden on public networks")
	errCustomGenesisOnPublicNet = errors.New("genesis can't be overridden on public networks")
	errConflictingNetworkIDs    = errors.New("genesis network ID doesn't match the node network ID")

	addressType = reflect.TypeOf(common.Address{})
	uint256Type = reflect.TypeOf(&uint256.Int{})
	bigIntType  = reflect.TypeOf(&big.Int{})
)

// rawConfig is every setting of the node, as decoded from viper.
type rawConfig struct {
	NetworkName              string        `mapstructure:"network-id"`
	GenesisFile              string        `mapstructure:"genesis-file"`
	GenesisFileContent       string        `mapstructure:"genesis-file-content"`
	EpochLength              time.Duration `mapstructure:"epoch-length"`
	MintAmount               *uint256.Int  `mapstructure:"mint-amount"`
	DistributionDelayMaximum time.Duration `mapstructure:"distribution-delay-maximum"`

	DataDir string `mapstructure:"data-dir"`
	DBType  string `mapstructure:"db-type"`

	LogLevel          string            `mapstructure:"log-level"`
	LogFormat         string            `mapstructure:"log-format"`
	LogsDir           string            `mapstructure:"log-dir"`
	LogMaxSize        int               `mapstructure:"log-rotater-max-size"`
	LogMaxFiles       int               `mapstructure:"log-rotater-max-files"`
	LogMaxAge         int               `mapstructure:"log-rotater-max-age"`
	LogCompress       bool              `mapstructure:"log-rotater-compress-enabled"`
	HTTPHost          string            `mapstructure:"http-host"`
	HTTPPort          uint              `mapstructure:"http-port"`
	HTTPOrigins       []string          `mapstructure:"http-allowed-origins"`
	HTTPReadHeader    time.Duration     `mapstructure:"http-read-header-timeout"`
	HTTPShutdown      time.Duration     `mapstructure:"http-shutdown-timeout"`
	HTTPProxyProtocol bool              `mapstructure:"http-proxy-protocol-enabled"`
	JWTSecret         string            `mapstructure:"api-jwt-secret"`
	KeeperEnabled     bool              `mapstructure:"keeper-enabled"`
	KeeperInterval    time.Duration     `mapstructure:"keeper-interval"`
	KeeperMaxMints    int               `mapstructure:"keeper-max-mints-per-tick"`
	KeeperCallRate    float64           `mapstructure:"keeper-call-rate"`
	KeeperCallBurst   int               `mapstructure:"keeper-call-burst"`
	TracingEnabled    bool              `mapstructure:"tracing-enabled"`
	TracingExporter   string            `mapstructure:"tracing-exporter-type"`
	TracingEndpoint   string            `mapstructure:"tracing-endpoint"`
	TracingInsecure   bool              `mapstructure:"tracing-insecure"`
	TracingSampleRate float64           `mapstructure:"tracing-sample-rate"`
	TracingHeaders    map[string]string `mapstructure:"tracing-headers"`

	Capabilities   string         `mapstructure:"capabilities"`
	NetworkAddress common.Address `mapstructure:"network-address"`
	TokenAddress   common.Address `mapstructure:"token-address"`
	SinkAddress    common.Address `mapstructure:"sink-address"`
	CustodyAddress common.Address `mapstructure:"custody-address"`
	EVMRPCURL      string         `mapstructure:"evm-rpc-url"`
	EVMChainID     *big.Int       `mapstructure:"evm-chain-id"`
	EVMPrivateKey  string         `mapstructure:"evm-private-key"`
	EVMGasLimit    uint64         `mapstructure:"evm-gas-limit"`
	EVMConfirm     time.Duration  `mapstructure:"evm-confirm-timeout"`

	Grants []string `mapstructure:"grants"`
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		addressHook,
		uint256Hook,
		bigIntHook,
	)
}

func addressHook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != addressType {
		return data, nil
	}
	str, err := cast.ToStringE(data)
	if err != nil {
		return nil, err
	}
	if str == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(str) {
		return nil, fmt.Errorf("%w: %q", errInvalidAddress, str)
	}
	return common.HexToAddress(str), nil
}

func uint256Hook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != uint256Type {
		return data, nil
	}
	i, err := parseBigInt(data)
	if err != nil {
		return nil, err
	}
	value, overflow := uint256.FromBig(i)
	if overflow {
		return nil, fmt.Errorf("%w: %s", errIntegerOverflow, i)
	}
	return value, nil
}

func bigIntHook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != bigIntType {
		return data, nil
	}
	return parseBigInt(data)
}

// parseBigInt accepts decimal or 0x prefixed hex integers. Empty values are
// zero.
func parseBigInt(data interface{}) (*big.Int, error) {
	str, err := cast.ToStringE(data)
	if err != nil {
		return nil, err
	}
	if str == "" {
		return new(big.Int), nil
	}
	i, ok := new(big.Int).SetString(str, 0)
	if !ok || i.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", errInvalidInteger, str)
	}
	return i, nil
}

// GetNodeConfig returns the node config described by [v].
func GetNodeConfig(v *viper.Viper) (node.Config, error) {
	var raw rawConfig
	if err := v.Unmarshal(&raw, viper.DecodeHook(decodeHook())); err != nil {
		return node.Config{}, fmt.Errorf("couldn't decode config: %w", err)
	}

	networkID, err := constants.NetworkID(raw.NetworkName)
	if err != nil {
		return node.Config{}, err
	}
	params, err := getParams(v, networkID, &raw)
	if err != nil {
		return node.Config{}, err
	}
	genesisConfig, err := getGenesis(networkID, &raw)
	if err != nil {
		return node.Config{}, err
	}
	if raw.HTTPPort > math.MaxUint16 {
		return node.Config{}, fmt.Errorf("%w: %d", errInvalidPort, raw.HTTPPort)
	}
	exporterType, err := trace.ExporterTypeFromString(raw.TracingExporter)
	if err != nil {
		return node.Config{}, err
	}
	// A zero chain ID is fetched from the chain.
	var chainID *big.Int
	if raw.EVMChainID.Sign() > 0 {
		chainID = raw.EVMChainID
	}
	callRate := rate.Inf
	if raw.KeeperCallRate > 0 {
		callRate = rate.Limit(raw.KeeperCallRate)
	}

	config := node.Config{
		NetworkID:       networkID,
		Params:          params,
		Genesis:         genesisConfig,
		DataDir:         os.ExpandEnv(raw.DataDir),
		DatabaseBackend: raw.DBType,
		LoggingConfig: logging.Config{
			Level:     raw.LogLevel,
			Format:    raw.LogFormat,
			Directory: os.ExpandEnv(raw.LogsDir),
			MaxSize:   raw.LogMaxSize,
			MaxFiles:  raw.LogMaxFiles,
			MaxAge:    raw.LogMaxAge,
			Compress:  raw.LogCompress,
		},
		APIConfig: api.Config{
			Host:              raw.HTTPHost,
			Port:              uint16(raw.HTTPPort),
			AllowedOrigins:    raw.HTTPOrigins,
			ReadHeaderTimeout: raw.HTTPReadHeader,
			ShutdownTimeout:   raw.HTTPShutdown,
			ProxyProtocol:     raw.HTTPProxyProtocol,
			JWTSecret:         []byte(raw.JWTSecret),
		},
		TraceConfig: trace.Config{
			ExporterConfig: trace.ExporterConfig{
				Type:     exporterType,
				Endpoint: raw.TracingEndpoint,
				Headers:  raw.TracingHeaders,
				Insecure: raw.TracingInsecure,
			},
			Enabled:         raw.TracingEnabled,
			TraceSampleRate: raw.TracingSampleRate,
		},
		KeeperEnabled: raw.KeeperEnabled,
		KeeperConfig: keeper.Config{
			Interval:        raw.KeeperInterval,
			MaxMintsPerTick: raw.KeeperMaxMints,
			CallRate:        callRate,
			CallBurst:       raw.KeeperCallBurst,
		},
		Capabilities: node.CapabilitiesConfig{
			Backend: raw.Capabilities,
			Network: raw.NetworkAddress,
			Token:   raw.TokenAddress,
			Sink:    raw.SinkAddress,
			Custody: raw.CustodyAddress,
			EVM: node.EVMConfig{
				RPCURL:         raw.EVMRPCURL,
				ChainID:        chainID,
				PrivateKey:     raw.EVMPrivateKey,
				GasLimit:       raw.EVMGasLimit,
				ConfirmTimeout: raw.EVMConfirm,
			},
		},
		Grants: raw.Grants,
	}
	return config, config.Verify()
}

func isPublicNetwork(networkID uint32) bool {
	return networkID == constants.MainnetID || networkID == constants.TestnetID
}

func getParams(v *viper.Viper, networkID uint32, raw *rawConfig) (genesis.Params, error) {
	params := genesis.GetParams(networkID)
	overridden := v.IsSet(EpochLengthKey) || v.IsSet(MintAmountKey) || v.IsSet(DistributionDelayMaxKey)
	if !overridden {
		return params, nil
	}
	if isPublicNetwork(networkID) {
		return genesis.Params{}, errCustomParamsOnPublicNet
	}
	if v.IsSet(EpochLengthKey) {
		params.EpochLength = raw.EpochLength
	}
	if v.IsSet(MintAmountKey) {
		params.MintAmount = raw.MintAmount
	}
	if v.IsSet(DistributionDelayMaxKey) {
		params.DistributionDelayMaximum = raw.DistributionDelayMaximum
	}
	return params, nil
}

func getGenesis(networkID uint32, raw *rawConfig) (*genesis.Config, error) {
	var (
		config *genesis.Config
		err    error
	)
	switch {
	case raw.GenesisFileContent != "":
		config, err = genesis.GetConfigContent(raw.GenesisFileContent)
	case raw.GenesisFile != "":
		config, err = genesis.GetConfigFile(os.ExpandEnv(raw.GenesisFile))
	default:
		return genesis.GetConfig(networkID), nil
	}
	if err != nil {
		return nil, err
	}
	if isPublicNetwork(networkID) {
		return nil, errCustomGenesisOnPublicNet
	}
	if config.NetworkID != networkID {
		return nil, fmt.Errorf("%w: %d != %d", errConflictingNetworkIDs, config.NetworkID, networkID)
	}
	return config, nil
}
