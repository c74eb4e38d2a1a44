package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/xtraq/xtraq/internal/version"
)

// Build-time variables set via ldflags.
var (
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// VersionCmd prints the xtraq version, git commit, platform, and build date.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display the version number of xtraq",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("xtraq v%s@%s %s %s\n", version.App(), GitCommit, platform(), BuildDate)
	},
}

// platform returns the OS/architecture combination.
func platform() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}
