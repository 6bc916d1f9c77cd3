package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"packwatch/internal/scanlog"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var dayFlag string
	var csvPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the scan log for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			day := time.Now()
			if strings.TrimSpace(dayFlag) != "" {
				day, err = time.Parse("2006-01-02", strings.TrimSpace(dayFlag))
				if err != nil {
					return fmt.Errorf("parse --day: %w", err)
				}
			}

			store, err := scanlog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open scan log: %w", err)
			}
			defer store.Close()

			if strings.TrimSpace(csvPath) != "" {
				f, err := os.Create(csvPath)
				if err != nil {
					return fmt.Errorf("create csv: %w", err)
				}
				defer f.Close()
				if err := store.ExportCSV(cmd.Context(), f, day); err != nil {
					return fmt.Errorf("export csv: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote report to %s\n", csvPath)
				return nil
			}

			entries, err := store.List(cmd.Context(), day)
			if err != nil {
				return fmt.Errorf("list scan log: %w", err)
			}

			stdout := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(stdout, "No scans recorded on %s\n", day.Format("2006-01-02"))
				return nil
			}

			fmt.Fprintln(stdout, renderScanTable(entries, shouldColorize(stdout)))
			fmt.Fprintf(stdout, "%d scans on %s\n", len(entries), day.Format("2006-01-02"))
			return nil
		},
	}

	cmd.Flags().StringVar(&dayFlag, "day", "", "Day to report on (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Write the report as CSV to the given path")
	return cmd
}

// renderScanTable lays out the day's scan rows, invoice right-aligned, rows
// tinted by status when writing to a terminal.
func renderScanTable(entries []scanlog.Entry, colorize bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Time", "Tracking", "Invoice", "Status", "Message", "Evidence"})

	for _, entry := range entries {
		tw.AppendRow(table.Row{
			entry.Timestamp.Local().Format("15:04:05"),
			entry.Identifier,
			entry.Invoice,
			string(entry.Status),
			entry.Message,
			entry.Evidence,
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	if colorize {
		tw.SetRowPainter(func(row table.Row) text.Colors {
			switch row[3] {
			case string(scanlog.StatusSuccess):
				return text.Colors{text.FgGreen}
			case string(scanlog.StatusDuplicate):
				return text.Colors{text.FgYellow}
			case string(scanlog.StatusError):
				return text.Colors{text.FgRed}
			}
			return nil
		})
	}
	return tw.Render()
}
