// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Juneo-io/epochminter/cmd/epochminter/call"
	"github.com/Juneo-io/epochminter/cmd/epochminter/initcmd"
	"github.com/Juneo-io/epochminter/cmd/epochminter/run"
	"github.com/Juneo-io/epochminter/cmd/epochminter/token"
	"github.com/Juneo-io/epochminter/cmd/epochminter/version"
)

func init() {
	cobra.EnablePrefixMatching = true
}

func main() {
	cmd := run.Command()
	cmd.AddCommand(
		call.Command(),
		initcmd.Command(),
		token.Command(),
		version.Command(),
	)
	ctx := context.Background()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "command failed %v\n", err)
		os.Exit(1)
	}
}
