package meta

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionString(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`^v\d+\.\d+\.\d+$`), VersionString())

	old := Version
	defer func() { Version = old }()
	Version = "v1.2.3"
	assert.Equal(t, "v1.2.3", VersionString())
}

func TestDebugString(t *testing.T) {
	old := Commit
	defer func() { Commit = old }()
	Commit = "abc123"

	lines := strings.Split(strings.TrimSuffix(DebugString(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Version: "+VersionString(), lines[0])
	assert.Equal(t, "Source: abc123", lines[1])
}

func TestBuildString(t *testing.T) {
	old := Date
	defer func() { Date = old }()

	Date = ""
	assert.Equal(t, DebugString(), BuildString())

	Date = "2026-10-18T12:00:00Z"
	lines := strings.Split(strings.TrimSuffix(BuildString(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date: 2026-10-18T12:00:00Z", lines[2])
	// http_debug keeps two lines regardless of the date
	assert.Len(t, strings.Split(strings.TrimSuffix(DebugString(), "\n"), "\n"), 2)
}
