// Package snapshot wires the cobra "snapshot" subcommand to
// internal/orchestrator.Orchestrator.Snapshot.
package snapshot

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xtraq/xtraq/internal/color"
	"github.com/xtraq/xtraq/internal/config"
	"github.com/xtraq/xtraq/internal/diagnostics"
	"github.com/xtraq/xtraq/internal/orchestrator"
	"github.com/xtraq/xtraq/internal/xerrors"
)

var (
	noCache    bool
	telemetry  bool
	configPath string
)

// SnapshotCmd scrapes SQL Server metadata and writes a content-addressed
// snapshot under .xtraq/snapshots, per spec §4.10's snapshot sequence.
var SnapshotCmd = &cobra.Command{
	Use:   "snapshot [procedure-glob]",
	Short: "Scrape SQL Server metadata into a content-addressed snapshot",
	Long: `snapshot connects to the configured SQL Server instance, compares what it
finds against the prior snapshot (unless --no-cache is set), and re-analyzes
only what changed. The optional positional argument filters which procedures
are considered, by glob, matching either the bare name or its
schema-qualified form.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		procedureFilter := ""
		if len(args) == 1 {
			procedureFilter = args[0]
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		rootDir, err := os.Getwd()
		if err != nil {
			return xerrors.IO("snapshot.getwd", err)
		}

		diag := diagnostics.New()
		o := orchestrator.New(cfg, rootDir, diag)

		result, err := o.Snapshot(cmd.Context(), orchestrator.SnapshotOptions{
			NoCache:         noCache,
			ProcedureFilter: procedureFilter,
			Telemetry:       telemetry,
		})

		c := color.New(true)
		diag.Flush(os.Stderr)
		if err != nil {
			return err
		}

		refreshed := len(result.Plan.Invalidation.ObjectsToRefresh)
		total := len(result.Index.Procedures)
		unchanged := total - refreshed
		if unchanged < 0 {
			unchanged = 0
		}
		fmt.Println(c.FormatRunHeader("snapshot", refreshed, unchanged, diag.Len()))
		if result.TelemetryPath != "" {
			fmt.Printf("  telemetry: %s\n", result.TelemetryPath)
		}
		return nil
	},
}

func init() {
	SnapshotCmd.Flags().BoolVar(&noCache, "no-cache", false, "ignore the prior snapshot and refresh every in-scope object")
	SnapshotCmd.Flags().BoolVar(&telemetry, "telemetry", false, "write a phase-timing report alongside the snapshot")
	SnapshotCmd.Flags().StringVar(&configPath, "config", "", "path to xtraq.toml (default: ./xtraq.toml)")
}
