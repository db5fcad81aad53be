// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package call

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"

	"github.com/Juneo-io/epochminter/api"
)

const (
	URIKey   = "uri"
	TokenKey = "token"
	EpochKey = "epoch"

	// LocalAPIURI is the default URI of a local node.
	LocalAPIURI = "http://127.0.0.1:9660"
)

var errInvalidAddress = errors.New("invalid address")

func AddFlags(flags *pflag.FlagSet) {
	flags.String(URIKey, LocalAPIURI, "API URI of the node to call")
	flags.String(TokenKey, "", "Bearer token authenticating privileged calls")
}

func addEpochFlag(flags *pflag.FlagSet) {
	flags.Uint64(EpochKey, 0, "Start timestamp of the epoch")
}

// ParseClient returns a client of the node described by the parsed [flags].
func ParseClient(flags *pflag.FlagSet) (*api.Client, error) {
	uri, err := flags.GetString(URIKey)
	if err != nil {
		return nil, err
	}
	token, err := flags.GetString(TokenKey)
	if err != nil {
		return nil, err
	}
	return api.NewClient(strings.TrimSuffix(uri, "/"), token), nil
}

func parseAddress(str string) (common.Address, error) {
	if !common.IsHexAddress(str) {
		return common.Address{}, fmt.Errorf("%w: %q", errInvalidAddress, str)
	}
	return common.HexToAddress(str), nil
}
