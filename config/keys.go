// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

// Keys are the flag names and the config file keys. Upper cased, with dashes
// replaced by underscores and the env prefix, they are the environment
// variables.
const (
	ConfigFileKey            = "config-file"
	ConfigContentKey         = "config-file-content"
	ConfigContentTypeKey     = "config-file-content-type"
	EnvFileKey               = "env-file"
	NetworkNameKey           = "network-id"
	GenesisFileKey           = "genesis-file"
	GenesisFileContentKey    = "genesis-file-content"
	EpochLengthKey           = "epoch-length"
	MintAmountKey            = "mint-amount"
	DistributionDelayMaxKey  = "distribution-delay-maximum"
	DataDirKey               = "data-dir"
	DBTypeKey                = "db-type"
	LogLevelKey              = "log-level"
	LogFormatKey             = "log-format"
	LogsDirKey               = "log-dir"
	LogRotaterMaxSizeKey     = "log-rotater-max-size"
	LogRotaterMaxFilesKey    = "log-rotater-max-files"
	LogRotaterMaxAgeKey      = "log-rotater-max-age"
	LogRotaterCompressKey    = "log-rotater-compress-enabled"
	HTTPHostKey              = "http-host"
	HTTPPortKey              = "http-port"
	HTTPAllowedOriginsKey    = "http-allowed-origins"
	HTTPReadHeaderTimeoutKey = "http-read-header-timeout"
	HTTPShutdownTimeoutKey   = "http-shutdown-timeout"
	HTTPProxyProtocolKey     = "http-proxy-protocol-enabled"
	APIJWTSecretKey          = "api-jwt-secret"
	KeeperEnabledKey         = "keeper-enabled"
	KeeperIntervalKey        = "keeper-interval"
	KeeperMaxMintsKey        = "keeper-max-mints-per-tick"
	KeeperCallRateKey        = "keeper-call-rate"
	KeeperCallBurstKey       = "keeper-call-burst"
	TracingEnabledKey        = "tracing-enabled"
	TracingExporterTypeKey   = "tracing-exporter-type"
	TracingEndpointKey       = "tracing-endpoint"
	TracingInsecureKey       = "tracing-insecure"
	TracingSampleRateKey     = "tracing-sample-rate"
	TracingHeadersKey        = "tracing-headers"
	CapabilitiesKey          = "capabilities"
	NetworkAddressKey        = "network-address"
	TokenAddressKey          = "token-address"
	SinkAddressKey           = "sink-address"
	CustodyAddressKey        = "custody-address"
	EVMRPCURLKey             = "evm-rpc-url"
	EVMChainIDKey            = "evm-chain-id"
	EVMPrivateKeyKey         = "evm-private-key"
	EVMGasLimitKey           = "evm-gas-limit"
	EVMConfirmTimeoutKey     = "evm-confirm-timeout"
	GrantsKey                = "grants"
)
