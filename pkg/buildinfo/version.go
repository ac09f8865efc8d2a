// Package buildinfo carries the version stamp baked in at release time.
//
// Release builds overwrite the defaults with ldflags, e.g.:
//
//	go build -ldflags "-X github.com/sewerflow/sewerflow/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/sewerflow/sewerflow/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/sewerflow/sewerflow/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import "fmt"

// Set via ldflags; the defaults identify a from-source development build.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns the stamp on one line.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}

// Template returns the version template used by the root command.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
