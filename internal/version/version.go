// Package version carries build metadata injected at link time.
package version

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
