// Package update implements the cobra "update" subcommand: a self-update
// check against GitHub releases. Self-update plumbing is named in spec §1
// as an external collaborator of the core pipeline, so this package talks
// to nothing else in the module beyond internal/version.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/xtraq/xtraq/internal/version"
	"github.com/xtraq/xtraq/internal/xerrors"
)

const releasesURL = "https://api.github.com/repos/xtraq/xtraq/releases/latest"

type githubRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// UpdateCmd checks GitHub for a newer release than the running binary and
// prints the download URL; it does not replace the running binary itself.
var UpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check for a newer xtraq release",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		rel, err := latestRelease(ctx)
		if err != nil {
			return xerrors.IO("update.check", err)
		}

		current := "v" + version.App()
		if rel.TagName == current {
			fmt.Printf("xtraq %s is up to date\n", current)
			return nil
		}
		fmt.Printf("xtraq %s is available (running %s): %s\n", rel.TagName, current, rel.HTMLURL)
		return nil
	},
}

func latestRelease(ctx context.Context) (*githubRelease, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releasesURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github releases: unexpected status %s", resp.Status)
	}

	var rel githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, err
	}
	return &rel, nil
}
