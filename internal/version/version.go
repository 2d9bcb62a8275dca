// Package version reports the bundler version and the versions of the
// engines linked into the binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
)

// Engines are the modules whose versions determine build output.
var Engines = []string{
	"github.com/evanw/esbuild",
	"github.com/go-rod/rod",
	"github.com/a-h/templ",
}

// These variables are set at build time using -ldflags
var (
	// Version is the semantic version of the application
	Version = "dev"

	// GitCommit is the git commit hash when the binary was built
	GitCommit = "unknown"
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string            `yaml:"version"`
	GitCommit string            `yaml:"git_commit"`
	Dirty     bool              `yaml:"dirty"`
	GoVersion string            `yaml:"go_version"`
	Platform  string            `yaml:"platform"`
	Engines   map[string]string `yaml:"engines,omitempty"`
}

// GetBuildInfo returns build information, filling what ldflags left unset
// from the module build info.
func GetBuildInfo() *BuildInfo {
	info := &BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		fill(info, bi)
	}

	return info
}

func fill(info *BuildInfo, bi *debug.BuildInfo) {
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.GitCommit == "" || info.GitCommit == "unknown" {
				info.GitCommit = setting.Value
			}
		case "vcs.modified":
			info.Dirty = setting.Value == "true"
		}
	}

	if info.Version == "" || info.Version == "dev" {
		switch {
		case bi.Main.Version != "" && bi.Main.Version != "(devel)":
			info.Version = bi.Main.Version
		case len(info.GitCommit) >= 7 && info.GitCommit != "unknown":
			info.Version = "dev-" + info.GitCommit[:7]
		default:
			info.Version = "dev"
		}
	}

	for _, dep := range bi.Deps {
		for _, engine := range Engines {
			if dep.Path == engine {
				if info.Engines == nil {
					info.Engines = make(map[string]string)
				}
				info.Engines[engine] = dep.Version
			}
		}
	}
}

// Short returns a short version string suitable for display
func (b *BuildInfo) Short() string {
	if b.GitCommit != "unknown" && len(b.GitCommit) >= 7 && !strings.HasPrefix(b.Version, "dev") {
		return fmt.Sprintf("%s (%s)", b.Version, b.GitCommit[:7])
	}
	return b.Version
}

// Detailed returns one "Key: value" line per field.
func (b *BuildInfo) Detailed() string {
	parts := []string{fmt.Sprintf("Version: %s", b.Version)}

	if b.GitCommit != "unknown" {
		commit := "Commit: " + b.GitCommit
		if b.Dirty {
			commit += " (dirty)"
		}
		parts = append(parts, commit)
	}

	parts = append(parts, fmt.Sprintf("Go: %s", b.GoVersion))
	parts = append(parts, fmt.Sprintf("Platform: %s", b.Platform))

	engines := make([]string, 0, len(b.Engines))
	for path := range b.Engines {
		engines = append(engines, path)
	}
	sort.Strings(engines)
	for _, path := range engines {
		parts = append(parts, fmt.Sprintf("Engine: %s %s", path, b.Engines[path]))
	}

	return strings.Join(parts, "\n")
}

// IsRelease returns true if this is a release build (not dev)
func (b *BuildInfo) IsRelease() bool {
	return b.Version != "dev" && !strings.HasPrefix(b.Version, "dev-")
}
