// Package version reports build metadata for the phasor command.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

const (
	unknownValue     = "unknown"
	commitHashLength = 7
)

// Build-time variables set by ldflags
var (
	Version   = "dev"
	BuildDate = unknownValue
	GitCommit = unknownValue
	GoVersion = runtime.Version()
)

// BuildInfo contains build information
type BuildInfo struct {
	Version   string   `json:"version"`
	BuildDate string   `json:"build_date"`
	GitCommit string   `json:"git_commit"`
	GoVersion string   `json:"go_version"`
	Dirty     bool     `json:"dirty"`
	Module    string   `json:"module"`
	Deps      []Module `json:"deps"`
}

// Module represents a dependency and its version
type Module struct {
	Path    string `json:"path"`
	Version string `json:"version"`
}

// Info returns build information, filling dependency versions from the
// binary's embedded module data when available.
func Info() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: GoVersion,
		Dirty:     strings.HasSuffix(GitCommit, "-dirty"),
	}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		info.Module = buildInfo.Main.Path
		for _, dep := range buildInfo.Deps {
			info.Deps = append(info.Deps, Module{Path: dep.Path, Version: dep.Version})
		}
		for _, setting := range buildInfo.Settings {
			if setting.Key == "vcs.modified" && setting.Value == "true" {
				info.Dirty = true
			}
		}
	}

	return info
}

// Dependency returns the version of the dependency at path, or "" when the
// binary carries no module data for it.
func (b BuildInfo) Dependency(path string) string {
	for _, dep := range b.Deps {
		if dep.Path == path {
			return dep.Version
		}
	}
	return ""
}

// String returns a formatted version string
func (b BuildInfo) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("phasor %s", b.Version))
	if b.Dirty {
		sb.WriteString(" (dirty)")
	}
	sb.WriteString("\n")

	if b.BuildDate != unknownValue {
		sb.WriteString(fmt.Sprintf("Build Date: %s\n", b.BuildDate))
	}

	if b.GitCommit != unknownValue {
		commit := b.GitCommit
		if len(commit) > commitHashLength {
			commit = commit[:commitHashLength]
		}
		sb.WriteString(fmt.Sprintf("Git Commit: %s\n", commit))
	}

	sb.WriteString(fmt.Sprintf("Go Version: %s\n", b.GoVersion))

	if arrowVersion := b.Dependency("github.com/apache/arrow-go/v18"); arrowVersion != "" {
		sb.WriteString(fmt.Sprintf("Arrow: %s\n", arrowVersion))
	}
	if gonumVersion := b.Dependency("gonum.org/v1/gonum"); gonumVersion != "" {
		sb.WriteString(fmt.Sprintf("Gonum: %s\n", gonumVersion))
	}

	return sb.String()
}

// IsRelease returns true if this is a release version (not dev)
func IsRelease() bool {
	return Version != "dev" && !strings.Contains(Version, "-")
}
