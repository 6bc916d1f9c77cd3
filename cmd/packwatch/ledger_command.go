package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"packwatch/internal/ipc"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ledger",
		Short: "List tracking codes confirmed by the running station",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Ledger()
				if err != nil {
					return fmt.Errorf("query ledger: %w", err)
				}
				if len(resp.IDs) == 0 {
					fmt.Fprintln(stdout, "No packages confirmed yet")
					return nil
				}
				for _, id := range resp.IDs {
					fmt.Fprintln(stdout, id)
				}
				fmt.Fprintf(stdout, "%d packages confirmed\n", len(resp.IDs))
				return nil
			})
		},
	}
}
