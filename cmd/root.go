package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	buildcmd "github.com/xtraq/xtraq/cmd/build"
	snapshotcmd "github.com/xtraq/xtraq/cmd/snapshot"
	updatecmd "github.com/xtraq/xtraq/cmd/update"
	"github.com/xtraq/xtraq/internal/logger"
	"github.com/xtraq/xtraq/internal/version"
	"github.com/xtraq/xtraq/internal/xerrors"
)

var (
	Debug   bool
	Verbose bool
)

var RootCmd = &cobra.Command{
	Use:   "xtraq",
	Short: "Scrape SQL Server metadata and generate typed Go client bindings",
	Long: fmt.Sprintf(`xtraq scrapes SQL Server stored procedure and table-type metadata into a
content-addressed snapshot, then generates strongly-typed Go client bindings
from it.

Version: %s@%s %s %s

Commands:
  snapshot   Scrape SQL Server metadata into a snapshot
  build      Generate Go client bindings from a snapshot
  version    Show version information
  update     Check for a newer xtraq release

Use "xtraq [command] --help" for more information about a command.`,
		version.App(), GitCommit, platform(), BuildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "enable debug logging")
	RootCmd.PersistentFlags().BoolVar(&Verbose, "verbose", false, "enable verbose logging")

	RootCmd.AddCommand(snapshotcmd.SnapshotCmd)
	RootCmd.AddCommand(buildcmd.BuildCmd)
	RootCmd.AddCommand(VersionCmd)
	RootCmd.AddCommand(updatecmd.UpdateCmd)
}

func setupLogger() {
	level := slog.LevelInfo
	if Debug || Verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger.SetGlobal(slog.New(handler), Debug || Verbose)
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(xerrors.ExitCodeFor(err))
	}
}
