// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/Juneo-io/epochminter/api"
	"github.com/Juneo-io/epochminter/config"
)

const (
	SecretKey   = "secret"
	CallerKey   = "caller"
	LifetimeKey = "lifetime"
)

var (
	errInvalidCaller = errors.New("invalid caller address")

	// secretEnv is the environment variable the node reads its secret from.
	secretEnv = strings.ToUpper(strings.ReplaceAll(config.EnvPrefix+"_"+config.APIJWTSecretKey, "-", "_"))
)

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "token",
		Short: "Issues a token authenticating a caller of the distributor API",
		Args:  cobra.NoArgs,
		RunE:  tokenFunc,
	}
	AddFlags(c.Flags())
	return c
}

func AddFlags(flags *pflag.FlagSet) {
	flags.String(SecretKey, "", fmt.Sprintf("Secret signing the token. Defaults to $%s, then to a prompt on terminals", secretEnv))
	flags.String(CallerKey, "", "Address of the authenticated caller")
	flags.Duration(LifetimeKey, 24*time.Hour, "Duration the token is valid for")
}

type Config struct {
	Secret   []byte
	Caller   common.Address
	Lifetime time.Duration
}

func ParseFlags(flags *pflag.FlagSet, args []string) (*Config, error) {
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	secret, err := flags.GetString(SecretKey)
	if err != nil {
		return nil, err
	}
	if secret == "" {
		secret = os.Getenv(secretEnv)
	}

	callerStr, err := flags.GetString(CallerKey)
	if err != nil {
		return nil, err
	}
	if !common.IsHexAddress(callerStr) {
		return nil, fmt.Errorf("%w: %q", errInvalidCaller, callerStr)
	}

	lifetime, err := flags.GetDuration(LifetimeKey)
	if err != nil {
		return nil, err
	}

	return &Config{
		Secret:   []byte(secret),
		Caller:   common.HexToAddress(callerStr),
		Lifetime: lifetime,
	}, nil
}

func tokenFunc(c *cobra.Command, args []string) error {
	config, err := ParseFlags(c.Flags(), args)
	if err != nil {
		return err
	}
	if len(config.Secret) == 0 {
		config.Secret, err = promptSecret(os.Stdin, c.ErrOrStderr())
		if err != nil {
			return err
		}
	}
	token, err := api.NewToken(config.Secret, config.Caller, time.Now(), config.Lifetime)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.OutOrStdout(), token)
	return err
}

// promptSecret reads the secret from [in] without echoing it. It returns nil
// when [in] is not a terminal.
func promptSecret(in *os.File, out io.Writer) ([]byte, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil, nil
	}
	if _, err := fmt.Fprint(out, "Secret: "); err != nil {
		return nil, err
	}
	secret, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(out)
	if err != nil {
		return nil, fmt.Errorf("couldn't read secret: %w", err)
	}
	return secret, nil
}
