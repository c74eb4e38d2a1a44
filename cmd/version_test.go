package cmd

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/xtraq/xtraq/internal/version"
)

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the version number of xtraq",
		Run: func(cmd *cobra.Command, args []string) {
			buf.WriteString(fmt.Sprintf("xtraq v%s@%s %s %s\n", version.App(), GitCommit, platform(), BuildDate))
		},
	}

	cmd := &cobra.Command{Use: "xtraq"}
	cmd.AddCommand(versionCmd)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Errorf("version command failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "xtraq v") {
		t.Errorf("expected version output to contain 'xtraq v', got: %s", output)
	}
}

func TestVersionCommandOutput(t *testing.T) {
	var buf bytes.Buffer

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the version number of xtraq",
		Run: func(cmd *cobra.Command, args []string) {
			buf.WriteString(fmt.Sprintf("xtraq v%s@%s %s %s\n", version.App(), GitCommit, platform(), BuildDate))
		},
	}

	rootCmd := &cobra.Command{Use: "xtraq"}
	rootCmd.AddCommand(versionCmd)
	rootCmd.SetArgs([]string{"version"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version command execution failed: %v", err)
	}

	output := strings.TrimSpace(buf.String())

	if !strings.HasPrefix(output, "xtraq v") {
		t.Errorf("expected output to start with 'xtraq v', got: %s", output)
	}

	versionPart := strings.TrimPrefix(output, "xtraq v")
	if len(versionPart) == 0 {
		t.Error("expected version information after 'xtraq v', got empty string")
	}
}
