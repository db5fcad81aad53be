// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package run

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Juneo-io/epochminter/config"
	"github.com/Juneo-io/epochminter/node"
	"github.com/Juneo-io/epochminter/utils/constants"
	"github.com/Juneo-io/epochminter/utils/logging"
)

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:          constants.AppName,
		Short:        "Runs a reward distributor node",
		SilenceUsage: true,
		RunE:         runFunc,
	}
	c.Flags().AddFlagSet(config.BuildFlagSet())
	return c
}

func runFunc(c *cobra.Command, args []string) error {
	if err := c.Flags().Parse(args); err != nil {
		return err
	}
	v, err := config.NewViper(c.Flags())
	if err != nil {
		return err
	}
	nodeConfig, err := config.GetNodeConfig(v)
	if err != nil {
		return err
	}

	log, err := logging.New(constants.AppName, nodeConfig.LoggingConfig)
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n, err := node.New(ctx, &nodeConfig, log)
	if err != nil {
		log.Error("couldn't start node", zap.Error(err))
		return err
	}

	log.Info("node started",
		zap.String("uri", n.APIServer.URL()),
	)
	dispatchErr := n.Dispatch(ctx)
	return errors.Join(dispatchErr, n.Shutdown())
}
