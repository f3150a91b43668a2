// Package version holds the fleetprobe build stamp, injected via ldflags:
//
//	-X github.com/hazz-dev/fleetprobe/internal/version.Version=...
package version

// These variables are set at build time via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
