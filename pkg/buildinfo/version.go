// Package buildinfo carries the version stamp baked into release binaries.
//
// Release builds overwrite the defaults with ldflags:
//
//	go build -ldflags "-X github.com/flowviz/flowviz/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/flowviz/flowviz/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/flowviz/flowviz/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// A plain `go build` reports "dev", which is how local builds are told apart
// from tagged releases.
package buildinfo

import "fmt"

var (
	// Version is the semantic version of the binary, "dev" for local builds.
	Version = "dev"

	// Commit is the git commit the binary was built from.
	Commit = "none"

	// Date is the UTC build timestamp.
	Date = "unknown"
)

// Template returns the cobra version template, so `flowviz --version` prints
// the full stamp rather than just the version string.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
