// Package build wires the cobra "build" subcommand to
// internal/orchestrator.Orchestrator.Build.
package build

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
	telemetry  bool
	configPath string
)

// BuildCmd generates Go client bindings from the snapshot written by
// `xtraq snapshot`, per spec §4.10's build sequence. It never opens a
// database connection.
var BuildCmd = &cobra.Command{
	Use:   "build [procedure-glob]",
	Short: "Generate Go client bindings from the current snapshot",
	Long: `build reads the snapshot written by "xtraq snapshot" and generates one Go
package per schema: table-type DTOs, per-procedure Exec functions and
result-set types, and an aggregating Context with one method per procedure.
The optional positional argument filters which procedures are generated, by
glob, matching either the bare name or its schema-qualified form.`,
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
			return xerrors.IO("build.getwd", err)
		}

		diag := diagnostics.New()
		o := orchestrator.New(cfg, rootDir, diag)

		result, err := o.Build(cmd.Context(), orchestrator.BuildOptions{
			ProcedureFilter: procedureFilter,
			Telemetry:       telemetry,
		})

		c := color.New(true)
		diag.Flush(os.Stderr)
		if err != nil {
			return err
		}

		written := len(result.WrittenPaths)
		unchanged := len(result.Files) - written
		if unchanged < 0 {
			unchanged = 0
		}
		fmt.Println(c.FormatRunHeader("build", written, unchanged, diag.Len()))
		if result.TelemetryPath != "" {
			fmt.Printf("  telemetry: %s\n", result.TelemetryPath)
		}
		return nil
	},
}

func init() {
	BuildCmd.Flags().BoolVar(&telemetry, "telemetry", false, "write a phase-timing report alongside the generated files")
	BuildCmd.Flags().StringVar(&configPath, "config", "", "path to xtraq.toml (default: ./xtraq.toml)")
}
