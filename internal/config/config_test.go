package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/bundler/internal/errors"
	"github.com/conneroisu/bundler/internal/pipeline"
)

func TestLoadWorkspace(t *testing.T) {
	tests := []struct {
		name        string
		setup       func()
		expectError bool
		check       func(t *testing.T, ws *Workspace)
	}{
		{
			name:  "defaults",
			setup: func() { viper.Reset() },
			check: func(t *testing.T, ws *Workspace) {
				assert.True(t, filepath.IsAbs(ws.ProjectRoot))
				assert.Equal(t, ws.Root, ws.ProjectRoot)
				assert.Equal(t, []string{".ts", ".tsx", ".mjs", ".js", ".jsx", ".json"}, ws.Resolve.Extensions)
				assert.Equal(t, []string{"node_modules"}, ws.Resolve.Directories)
				assert.Equal(t, "tsc", ws.TSC)
				assert.Equal(t, "info", ws.Log.Level)
				assert.True(t, ws.Browser.Headless)
				assert.Equal(t, 30*time.Second, ws.Browser.Timeout)
			},
		},
		{
			name: "custom values",
			setup: func() {
				viper.Reset()
				viper.Set("project_root", "/srv/packages")
				viper.Set("resolve.extensions", []string{".js"})
				viper.Set("browser.headless", false)
				viper.Set("mode", "production")
			},
			check: func(t *testing.T, ws *Workspace) {
				assert.Equal(t, "/srv/packages", ws.ProjectRoot)
				assert.Equal(t, []string{".js"}, ws.Resolve.Extensions)
				assert.False(t, ws.Browser.Headless)
				assert.Equal(t, "production", ws.Mode)
			},
		},
		{
			name: "extension without dot",
			setup: func() {
				viper.Reset()
				viper.Set("resolve.extensions", []string{"ts"})
			},
			expectError: true,
		},
		{
			name: "unknown log format",
			setup: func() {
				viper.Reset()
				viper.Set("log.format", "xml")
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer viper.Reset()

			ws, err := LoadWorkspace()
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, ws)
		})
	}
}

func TestMergePrecedence(t *testing.T) {
	settings := Layer{
		Dist:        Ptr("./lib"),
		MinVersions: Ptr(false),
		Globals:     map[string]string{"react": "React"},
	}
	overrides := Layer{
		Dist:  Ptr("./out"),
		Types: Ptr(""),
	}

	cfg := Merge(IdentityLayer("widgets"), settings, overrides)

	assert.Equal(t, "widgets", cfg.Name)
	assert.Equal(t, "widgets", cfg.File)
	assert.Equal(t, "./out", cfg.OutputDir, "overrides beat the settings file")
	assert.False(t, cfg.EmitMinified, "settings file beats defaults")
	assert.True(t, cfg.EmitModernModule, "unset fields inherit defaults")
	assert.Equal(t, "./src/index", cfg.EntryPath)
	assert.Equal(t, map[string]string{"react": "React"}, cfg.Globals)
	assert.False(t, cfg.TypesEnabled())
	assert.Equal(t, pipeline.DefaultPipeline(), cfg.Pipeline)
}

func TestApplyDoesNotAlias(t *testing.T) {
	base := Defaults()
	base.CacheDirs = []string{".cache"}

	layer := Layer{Cache: []string{".a", ".b"}}
	out := base.Apply(layer)
	layer.Cache[0] = ".changed"
	out.CacheDirs = append(out.CacheDirs, ".c")

	assert.Equal(t, []string{".a", ".b", ".c"}, out.CacheDirs)
	assert.Equal(t, []string{".cache"}, base.CacheDirs)
}

func TestParseSettings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, l Layer)
	}{
		{
			name:  "json",
			input: `{"name": "Widgets", "dist": "./lib", "minVersions": false, "globals": {"react": "React"}, "unknown": 1}`,
			check: func(t *testing.T, l Layer) {
				assert.Equal(t, "Widgets", *l.Name)
				assert.Equal(t, "./lib", *l.Dist)
				assert.False(t, *l.MinVersions)
				assert.Equal(t, "React", l.Globals["react"])
				assert.Nil(t, l.Types)
				assert.Nil(t, l.Pipeline)
			},
		},
		{
			name:  "yaml pipeline",
			input: "pipeline:\n  - typescript\n  - resolve\n",
			check: func(t *testing.T, l Layer) {
				assert.Equal(t, pipeline.Refs(pipeline.IDTypeScript, pipeline.IDResolve), l.Pipeline)
			},
		},
		{
			name:  "types null",
			input: "types: null\n",
			check: func(t *testing.T, l Layer) {
				require.NotNil(t, l.Types)
				assert.Equal(t, "", *l.Types)
			},
		},
		{
			name:  "types false",
			input: `{"types": false}`,
			check: func(t *testing.T, l Layer) {
				require.NotNil(t, l.Types)
				assert.Equal(t, "", *l.Types)
			},
		},
		{
			name:  "types true keeps default",
			input: "types: true\n",
			check: func(t *testing.T, l Layer) {
				assert.Nil(t, l.Types)
			},
		},
		{
			name:  "types path",
			input: "types: ./typings\n",
			check: func(t *testing.T, l Layer) {
				assert.Equal(t, "./typings", *l.Types)
			},
		},
		{
			name:  "empty file",
			input: "",
			check: func(t *testing.T, l Layer) {
				assert.Equal(t, Defaults(), Defaults().Apply(l))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := ParseSettings([]byte(tt.input))
			require.NoError(t, err)
			tt.check(t, l)
		})
	}
}

func TestParseSettingsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  string
	}{
		{"malformed", `{"dist": `, errors.ErrCodeSettingsParse},
		{"types list", "types: [a]\n", errors.ErrCodeSettingsParse},
		{"unknown stage", "pipeline: [resolve, uglify]\n", errors.ErrCodeUnknownStage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSettings([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, errors.IsConfigError(err))
			assert.True(t, errors.HasErrorCode(err, tt.code))
		})
	}
}

func TestStripJSONC(t *testing.T) {
	input := `{
  // line comment
  "a": "http://example.com", /* block */
  "b": ["x", "y",],
  "c": "quote \" // not a comment",
}`

	got := string(stripJSONC([]byte(input)))

	assert.NotContains(t, got, "line comment")
	assert.NotContains(t, got, "block")
	assert.Contains(t, got, `"http://example.com"`)
	assert.Contains(t, got, `"quote \" // not a comment"`)
	assert.Contains(t, got, `["x", "y"]`)
}

func TestManifestExternalIDs(t *testing.T) {
	m := &Manifest{
		Dependencies:     map[string]string{"preact": "1", "lodash": "1"},
		DevDependencies:  map[string]string{"typescript": "5"},
		PeerDependencies: map[string]string{"react": "18", "preact": "1"},
	}

	assert.Equal(t, []string{"lodash", "preact", "react"}, m.ExternalIDs())
	assert.Empty(t, (&Manifest{}).ExternalIDs())
}

func TestValidateBuildConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *BuildConfig)
		field  string
	}{
		{"empty file", func(c *BuildConfig) { c.File = "" }, "file"},
		{"file with directory", func(c *BuildConfig) { c.File = "lib/x" }, "file"},
		{"bad exports", func(c *BuildConfig) { c.ExportsMode = "commonjs" }, "exports"},
		{"cache is src", func(c *BuildConfig) { c.CacheDirs = []string{"src"} }, "cache"},
		{"dist is src", func(c *BuildConfig) { c.OutputDir = "./src/" }, "dist"},
		{"unknown stage", func(c *BuildConfig) { c.Pipeline = pipeline.Refs("uglify") }, "pipeline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Merge(IdentityLayer("x"))
			tt.mutate(&cfg)

			result := ValidateBuildConfig(&cfg)
			require.True(t, result.HasErrors())
			assert.False(t, result.Valid)
			assert.Equal(t, tt.field, result.Errors[0].Field)
		})
	}

	cfg := Merge(IdentityLayer("x"))
	result := ValidateBuildConfig(&cfg)
	assert.True(t, result.Valid)
	assert.Empty(t, result.String())
}
