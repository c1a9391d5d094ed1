// Package version provides build-time version information.
package version

import "fmt"

// These variables are set at build time using -ldflags
var (
	// Version is the semantic version
	Version = "0.1.0"

	// BuildTime is the UTC time when the binary was built
	BuildTime = "unknown"

	// GitCommit is the git commit hash
	GitCommit = "unknown"
)

// AppName is shown in the window title and logs.
const AppName = "Hat Editor"

// String describes the running build.
func String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", AppName, Version, GitCommit, BuildTime)
}

// Title returns the main window title.
func Title() string {
	return AppName + " " + Version
}
