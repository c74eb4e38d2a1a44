package version

import (
	_ "embed"
	"runtime"
	"strings"
)

//go:embed VERSION
var versionFile string

// Build-time variables set via ldflags
var (
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// ParserVersion identifies the content-analyzer grammar revision. It is
// recorded in every snapshot index so a parser upgrade can be detected even
// when the target database has not changed.
const ParserVersion = "1"

// App returns the current version of xtraq.
func App() string {
	return strings.TrimSpace(versionFile)
}

// GetGitCommit returns the git commit hash.
func GetGitCommit() string {
	return GitCommit
}

// GetBuildDate returns the git commit date.
func GetBuildDate() string {
	return BuildDate
}

// Platform returns the OS/architecture combination.
func Platform() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}
