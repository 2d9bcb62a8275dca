// Package config provides configuration management for the bundler.
//
// Two layers exist. The workspace configuration is loaded through Viper from
// .bundler.yml, BUNDLER_* environment variables and command-line flags; it
// says where projects live and how modules are resolved. Each project then
// has a BuildConfig merged from hardcoded defaults, the project identity, an
// optional build.config.{json,yaml,yml} settings file and caller overrides,
// in increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/bundler/internal/paths"
)

// Workspace holds settings shared by every project under the project root.
type Workspace struct {
	// Root is the directory the workspace configuration was loaded from.
	// Tool-level module directories are resolved against it.
	Root        string        `mapstructure:"-"`
	ProjectRoot string        `mapstructure:"project_root"`
	Resolve     ResolveConfig `mapstructure:"resolve"`
	TSC         string        `mapstructure:"tsc"`
	Mode        string        `mapstructure:"mode"`
	Log         LogConfig     `mapstructure:"log"`
	Browser     BrowserConfig `mapstructure:"browser"`
}

type ResolveConfig struct {
	Extensions  []string `mapstructure:"extensions"`
	Directories []string `mapstructure:"directories"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type BrowserConfig struct {
	Headless bool          `mapstructure:"headless"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Bin      string        `mapstructure:"bin"`
}

// LoadWorkspace reads the workspace configuration from the global Viper
// instance and fills defaults for anything left unset.
func LoadWorkspace() (*Workspace, error) {
	var ws Workspace
	if err := viper.Unmarshal(&ws); err != nil {
		return nil, err
	}

	ws.Root = workspaceRoot()

	if ws.ProjectRoot == "" {
		ws.ProjectRoot = "."
	}
	if !filepath.IsAbs(ws.ProjectRoot) {
		ws.ProjectRoot = filepath.Join(ws.Root, ws.ProjectRoot)
	}

	// Handle slices set via viper (workaround for viper slice handling)
	if viper.IsSet("resolve.extensions") && len(ws.Resolve.Extensions) == 0 {
		ws.Resolve.Extensions = viper.GetStringSlice("resolve.extensions")
	}
	if viper.IsSet("resolve.directories") && len(ws.Resolve.Directories) == 0 {
		ws.Resolve.Directories = viper.GetStringSlice("resolve.directories")
	}

	if len(ws.Resolve.Extensions) == 0 {
		ws.Resolve.Extensions = append([]string(nil), paths.DefaultExtensions...)
	}
	if len(ws.Resolve.Directories) == 0 {
		ws.Resolve.Directories = []string{"node_modules"}
	}
	if ws.TSC == "" {
		ws.TSC = "tsc"
	}
	if ws.Log.Level == "" {
		ws.Log.Level = "info"
	}
	if ws.Log.Format == "" {
		ws.Log.Format = "text"
	}

	if !viper.IsSet("browser.headless") {
		ws.Browser.Headless = true
	}
	if ws.Browser.Timeout == 0 {
		ws.Browser.Timeout = 30 * time.Second
	}

	if err := validateWorkspace(&ws); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &ws, nil
}

// DefaultWorkspace returns a workspace rooted at root with default settings.
func DefaultWorkspace(root string) *Workspace {
	return &Workspace{
		Root:        root,
		ProjectRoot: root,
		Resolve: ResolveConfig{
			Extensions:  append([]string(nil), paths.DefaultExtensions...),
			Directories: []string{"node_modules"},
		},
		TSC:     "tsc",
		Log:     LogConfig{Level: "info", Format: "text"},
		Browser: BrowserConfig{Headless: true, Timeout: 30 * time.Second},
	}
}

func workspaceRoot() string {
	if used := viper.ConfigFileUsed(); used != "" {
		if abs, err := filepath.Abs(filepath.Dir(used)); err == nil {
			return abs
		}
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// validateWorkspace validates workspace configuration values
func validateWorkspace(ws *Workspace) error {
	for _, ext := range ws.Resolve.Extensions {
		if !strings.HasPrefix(ext, ".") || strings.ContainsAny(ext, `/\`) {
			return fmt.Errorf("resolve.extensions: %q must start with a dot and contain no separators", ext)
		}
	}

	for _, dir := range ws.Resolve.Directories {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("resolve.directories: empty directory")
		}
	}

	switch ws.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: %q is not one of text, json", ws.Log.Format)
	}

	if ws.Browser.Timeout < 0 {
		return fmt.Errorf("browser.timeout: must not be negative")
	}

	return nil
}
