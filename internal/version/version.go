// Package version carries build metadata injected with -ldflags -X.
package version

//nolint:gochecknoglobals // set at link time
var (
	name    = "canopy"
	version = "dev"
	commit  = "none"
)

// Name returns the program name.
func Name() string { return name }

// Version returns the release version.
func Version() string { return version }

// Commit returns the source revision the binary was built from.
func Commit() string { return commit }
