package version_test

import (
	"testing"

	"github.com/paveg/phasor/internal/version"
	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	info := version.Info()

	assert.Equal(t, version.Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
}

func TestBuildInfoString(t *testing.T) {
	info := version.BuildInfo{
		Version:   "v1.2.0",
		BuildDate: "2026-01-02T03:04:05Z",
		GitCommit: "0123456789abcdef",
		GoVersion: "go1.24.4",
		Deps: []version.Module{
			{Path: "github.com/apache/arrow-go/v18", Version: "v18.3.1"},
		},
	}

	out := info.String()
	assert.Contains(t, out, "phasor v1.2.0\n")
	assert.Contains(t, out, "Build Date: 2026-01-02T03:04:05Z")
	assert.Contains(t, out, "Git Commit: 0123456\n")
	assert.Contains(t, out, "Arrow: v18.3.1")
	assert.NotContains(t, out, "Gonum:")
}

func TestBuildInfoUnknownFields(t *testing.T) {
	info := version.BuildInfo{
		Version:   "dev",
		BuildDate: "unknown",
		GitCommit: "unknown",
		GoVersion: "go1.24.4",
		Dirty:     true,
	}

	out := info.String()
	assert.Contains(t, out, "phasor dev (dirty)")
	assert.NotContains(t, out, "Build Date")
	assert.NotContains(t, out, "Git Commit")
}

func TestDependency(t *testing.T) {
	info := version.BuildInfo{Deps: []version.Module{{Path: "gonum.org/v1/gonum", Version: "v0.16.0"}}}
	assert.Equal(t, "v0.16.0", info.Dependency("gonum.org/v1/gonum"))
	assert.Empty(t, info.Dependency("example.com/none"))
}

func TestIsRelease(t *testing.T) {
	original := version.Version
	t.Cleanup(func() { version.Version = original })

	version.Version = "dev"
	assert.False(t, version.IsRelease())

	version.Version = "v1.0.0"
	assert.True(t, version.IsRelease())

	version.Version = "v1.0.0-rc.1"
	assert.False(t, version.IsRelease())
}
