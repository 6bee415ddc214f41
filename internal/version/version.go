// Package version carries the build metadata the cleanplate -version flag
// reports. The variables are overridden at build time via -ldflags -X.
package version

var (
	// Version is the cleanplate release version.
	Version = "dev"
	// GitSHA is the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)
