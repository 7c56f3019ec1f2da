// Package version carries build identification, stamped via -ldflags.
package version

var (
	// Version is the release version of this build.
	Version = "dev"
	// GitSHA is the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)
