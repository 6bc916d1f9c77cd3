package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"packwatch/internal/ipc"
	"packwatch/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show station and recording status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			fmt.Fprintln(stdout, renderSectionHeader("Station Checks", colorize))
			cfg := ctx.configValue()
			if cfg != nil {
				for _, result := range preflight.Run(cfg) {
					sev := severityOK
					if !result.Passed {
						sev = severityError
						if result.Name == "Manifest" {
							sev = severityWarn
						}
					}
					fmt.Fprintln(stdout, renderCheckLine(result.Name, sev, result.Detail, colorize))
				}
			}
			fmt.Fprintln(stdout)

			fmt.Fprintln(stdout, renderSectionHeader("Daemon", colorize))

			client, err := ctx.dialClient()
			if err != nil {
				fmt.Fprintln(stdout, renderCheckLine("Running", severityWarn, "not running", colorize))
				return nil
			}
			defer client.Close()

			status, err := client.Status()
			if err != nil {
				return fmt.Errorf("query status: %w", err)
			}

			fmt.Fprintln(stdout, renderCheckLine("Running", severityOK, fmt.Sprintf("pid %d", status.PID), colorize))
			recording := "idle"
			sev := severityInfo
			if status.RecordingInvoice != "" {
				recording = fmt.Sprintf("NF %s (session %s)", status.RecordingInvoice, status.SessionID)
				sev = severityOK
			}
			fmt.Fprintln(stdout, renderCheckLine("Recording", sev, recording, colorize))
			fmt.Fprintln(stdout, renderCheckLine("Checked today", severityInfo, fmt.Sprintf("%d packages", status.LedgerSize), colorize))
			fmt.Fprintln(stdout, renderCheckLine("Manifest rows", severityInfo, fmt.Sprintf("%d", status.ManifestRows), colorize))
			fmt.Fprintln(stdout, renderCheckLine("Scan log", severityInfo, status.ScanLogPath, colorize))
			fmt.Fprintln(stdout, renderCheckLine("Lock file", severityInfo, status.LockPath, colorize))
			return nil
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the scan station, finalizing any open recording",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			err := ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Stop()
				if err != nil {
					return fmt.Errorf("stop daemon: %w", err)
				}
				if resp.Stopped {
					fmt.Fprintln(stdout, "Stop request acknowledged")
				}
				return nil
			})
			if err != nil && strings.Contains(err.Error(), "not found") {
				fmt.Fprintln(stdout, "Station is not running")
				return nil
			}
			return err
		},
	}
}
