package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFill(t *testing.T) {
	tests := []struct {
		name        string
		info        BuildInfo
		bi          debug.BuildInfo
		wantVersion string
		wantCommit  string
		wantDirty   bool
	}{
		{
			name:        "module version",
			info:        BuildInfo{Version: "dev", GitCommit: "unknown"},
			bi:          debug.BuildInfo{Main: debug.Module{Version: "v1.2.3"}},
			wantVersion: "v1.2.3",
			wantCommit:  "unknown",
		},
		{
			name: "vcs revision",
			info: BuildInfo{Version: "dev", GitCommit: "unknown"},
			bi: debug.BuildInfo{
				Main: debug.Module{Version: "(devel)"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "0123456789abcdef"},
					{Key: "vcs.modified", Value: "true"},
				},
			},
			wantVersion: "dev-0123456",
			wantCommit:  "0123456789abcdef",
			wantDirty:   true,
		},
		{
			name:        "ldflags win",
			info:        BuildInfo{Version: "v2.0.0", GitCommit: "fedcba9876"},
			bi:          debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789"}}},
			wantVersion: "v2.0.0",
			wantCommit:  "fedcba9876",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := tt.info
			fill(&info, &tt.bi)

			assert.Equal(t, tt.wantVersion, info.Version)
			assert.Equal(t, tt.wantCommit, info.GitCommit)
			assert.Equal(t, tt.wantDirty, info.Dirty)
		})
	}
}

func TestFillEngines(t *testing.T) {
	info := BuildInfo{Version: "v1.0.0"}
	fill(&info, &debug.BuildInfo{Deps: []*debug.Module{
		{Path: "github.com/evanw/esbuild", Version: "v0.25.5"},
		{Path: "github.com/spf13/cobra", Version: "v1.9.1"},
	}})

	assert.Equal(t, map[string]string{"github.com/evanw/esbuild": "v0.25.5"}, info.Engines)
	assert.Contains(t, info.Detailed(), "Engine: github.com/evanw/esbuild v0.25.5")
}

func TestShortAndRelease(t *testing.T) {
	release := &BuildInfo{Version: "v1.0.0", GitCommit: "0123456789"}
	assert.Equal(t, "v1.0.0 (0123456)", release.Short())
	assert.True(t, release.IsRelease())

	dev := &BuildInfo{Version: "dev-0123456", GitCommit: "0123456789"}
	assert.Equal(t, "dev-0123456", dev.Short())
	assert.False(t, dev.IsRelease())
}
