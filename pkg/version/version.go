// Package version carries build information for the pmcopilot binary.
// The variables are set at build time, e.g.
// go build -ldflags "-X github.com/gupta362/pm-agent-v2/pkg/version.Version=v1.2.3".
package version

import "fmt"

//nolint:gochecknoglobals // ldflags injection needs package-level vars
var (
	// Version is the semantic version, or "dev" for local builds.
	Version = "dev"

	// Commit is the git commit SHA of the build.
	Commit = "none"

	// Date is the build date in ISO format.
	Date = "unknown"
)

// String formats the build information for --version.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}

// IsDev reports whether this is an untagged local build.
func IsDev() bool {
	return Version == "dev"
}
