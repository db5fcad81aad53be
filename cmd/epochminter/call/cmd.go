// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package call

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "call",
		Short: "Calls the distributor API of a node",
	}
	AddFlags(c.PersistentFlags())
	c.AddCommand(
		mintCommand(),
		distributeCommand(),
		statusCommand(),
		clockCommand(),
		splitCommand(),
		pendingCommand(),
		owedCommand(),
		payOwedCommand(),
		healthCommand(),
		setOperatorBpsCommand(),
		setOperatorRewardsManagerCommand(),
		setDistributionDelayCommand(),
	)
	return c
}

func mintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mint",
		Short: "Mints the rewards of the next epoch",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			client, err := ParseClient(c.Flags())
			if err != nil {
				return err
			}
			reply, err := client.Mint(c.Context())
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), reply)
		},
	}
}

func distributeCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "distribute",
		Short: "Distributes the staking rewards of an epoch",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			client, err := ParseClient(c.Flags())
			if err != nil {
				return err
			}
			epoch, err := c.Flags().GetUint64(EpochKey)
			if err != nil {
				return err
			}
			if err := client.Distribute(c.Context(), epoch); err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.OutOrStdout(), "distributed epoch %d\n", epoch)
			return err
		},
	}
	addEpochFlag(c.Flags())
	return c
}

func statusCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "status",
		Short: "Prints the status of an epoch",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			client, err := ParseClient(c.Flags())
			if err != nil {
				return err
			}
			epoch, err := c.Flags().GetUint64(EpochKey)
			if err != nil {
				return err
			}
			status, err := client.GetEpochStatus(c.Context(), epoch)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.OutOrStdout(), status)
			return err
		},
	}
	addEpochFlag(c.Flags())
	return c
}

func clockCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clock",
		Short: "Prints the epoch clock of the node",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			client, err := ParseClient(c.Flags())
			if err != nil {
				return err
			}
			reply, err := client.GetClock(c.Context())
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), reply)
		},
	}
}

func splitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "split",
		Short: "Prints how the next minted epoch will be split",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			client, err := ParseClient(c.Flags())
			if err != nil {
				return err
			}
			reply, err := client.GetSplit(c.Context())
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), reply)
		},
	}
}

func pendingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "Prints the minted epochs that weren't distributed yet",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			client, err := ParseClient(c.Flags())
			if err != nil {
				return err
			}
			reply, err := client.GetPendingEpochs(c.Context())
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), reply)
		},
	}
}

func owedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "owed",
		Short: "Lists the operator shares held in custody",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			client, err := ParseClient(c.Flags())
			if err != nil {
				return err
			}
			payouts, err := client.GetOwedPayouts(c.Context())
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), payouts)
		},
	}
}

func payOwedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pay-owed",
		Short: "Pays the operator shares held in custody",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			client, err := ParseClient(c.Flags())
			if err != nil {
				return err
			}
			paid, err := client.PayOwedOperatorShares(c.Context())
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), map[string]int{"paid": paid})
		},
	}
}

func healthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Prints the health of the node",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			client, err := ParseClient(c.Flags())
			if err != nil {
				return err
			}
			reply, err := client.Health(c.Context())
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), reply)
		},
	}
}

func setOperatorBpsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-operator-bps <bps>",
		Short: "Sets the share of future epochs paid to the operator, in basis points",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			client, err := ParseClient(c.Flags())
			if err != nil {
				return err
			}
			bps, err := strconv.ParseUint(args[0], 10, 16)
			if err != nil {
				return err
			}
			return client.SetOperatorBps(c.Context(), uint16(bps))
		},
	}
}

func setOperatorRewardsManagerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-operator-rewards-manager <address>",
		Short: "Sets the recipient of the operator share",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			client, err := ParseClient(c.Flags())
			if err != nil {
				return err
			}
			manager, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			return client.SetOperatorRewardsManager(c.Context(), manager)
		},
	}
}

func setDistributionDelayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-distribution-delay <seconds>",
		Short: "Sets the delay between the end of an epoch and its distribution",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			client, err := ParseClient(c.Flags())
			if err != nil {
				return err
			}
			delay, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return err
			}
			return client.SetDistributionDelay(c.Context(), delay)
		},
	}
}

func printJSON(w io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
