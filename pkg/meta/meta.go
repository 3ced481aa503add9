// Package meta carries build information injected at link time:
//
//	go build -ldflags "-X github.com/hugr-lab/duckdb-http/pkg/meta.Version=0.2.0 \
//		-X github.com/hugr-lab/duckdb-http/pkg/meta.Commit=$(git rev-parse HEAD) \
//		-X github.com/hugr-lab/duckdb-http/pkg/meta.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package meta

import (
	"fmt"
	"strings"
)

var (
	Version = "0.1.0"
	Commit  = "unknown"
	Date    = ""
)

// VersionString returns the version prefixed with "v".
func VersionString() string {
	return "v" + strings.TrimPrefix(Version, "v")
}

// DebugString returns the version and the source revision, one per line.
func DebugString() string {
	return fmt.Sprintf("Version: %s\nSource: %s\n", VersionString(), Commit)
}

// BuildString is DebugString followed by the build date when one was injected.
func BuildString() string {
	if Date == "" {
		return DebugString()
	}
	return DebugString() + "Date: " + Date + "\n"
}
