// Package version holds build metadata injected via ldflags:
//
//	-X github.com/kailas-cloud/vecrec/internal/version.Version=v0.3.0
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the build as "version (commit, date)".
func String() string {
	return fmt.Sprintf("%s (%s, %s)", Version, shortCommit(), Date)
}

func shortCommit() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}
