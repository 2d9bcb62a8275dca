package config

import (
	"github.com/conneroisu/bundler/internal/pipeline"
)

// Exports modes understood by the legacy output format.
const (
	ExportsAuto    = "auto"
	ExportsDefault = "default"
	ExportsNamed   = "named"
	ExportsNone    = "none"
)

// BuildConfig is the fully merged per-project build configuration.
// Paths are project-relative until the Loader resolves them.
type BuildConfig struct {
	Name      string `yaml:"name"`
	File      string `yaml:"file"`
	EntryPath string `yaml:"input"`
	SourceDir string `yaml:"src"`
	OutputDir string `yaml:"dist"`
	// TypesDir is empty when declaration output is disabled.
	TypesDir         string            `yaml:"types"`
	TestsDir         string            `yaml:"tests"`
	CacheDirs        []string          `yaml:"cache"`
	EmitMinified     bool              `yaml:"minVersions"`
	EmitSourcemap    bool              `yaml:"sourcemap"`
	EmitModernModule bool              `yaml:"esmBuild"`
	ExportsMode      string            `yaml:"exports"`
	Globals          map[string]string `yaml:"globals,omitempty"`
	Pipeline         []pipeline.Ref    `yaml:"pipeline"`
}

// Defaults returns the hardcoded system defaults.
func Defaults() BuildConfig {
	return BuildConfig{
		EntryPath:        "./src/index",
		SourceDir:        "./src",
		OutputDir:        "./dist",
		TypesDir:         "./types",
		TestsDir:         "./__tests__",
		CacheDirs:        []string{},
		EmitMinified:     true,
		EmitSourcemap:    true,
		EmitModernModule: true,
		ExportsMode:      ExportsAuto,
		Pipeline:         pipeline.DefaultPipeline(),
	}
}

// Layer is one source of configuration. Nil fields leave the value beneath
// untouched. Types set to a pointer to "" clears the types directory.
type Layer struct {
	Name        *string
	File        *string
	Input       *string
	Src         *string
	Dist        *string
	Types       *string
	Tests       *string
	Cache       []string
	MinVersions *bool
	Sourcemap   *bool
	ESMBuild    *bool
	Exports     *string
	Globals     map[string]string
	Pipeline    []pipeline.Ref
}

// Ptr returns a pointer to v, for building layers inline.
func Ptr[T any](v T) *T {
	return &v
}

// IdentityLayer names the project and its output file stem after projectID.
func IdentityLayer(projectID string) Layer {
	return Layer{Name: Ptr(projectID), File: Ptr(projectID)}
}

// Apply returns a copy of c with every field set in l replaced.
func (c BuildConfig) Apply(l Layer) BuildConfig {
	out := c.clone()

	setString(&out.Name, l.Name)
	setString(&out.File, l.File)
	setString(&out.EntryPath, l.Input)
	setString(&out.SourceDir, l.Src)
	setString(&out.OutputDir, l.Dist)
	setString(&out.TypesDir, l.Types)
	setString(&out.TestsDir, l.Tests)
	setString(&out.ExportsMode, l.Exports)
	setBool(&out.EmitMinified, l.MinVersions)
	setBool(&out.EmitSourcemap, l.Sourcemap)
	setBool(&out.EmitModernModule, l.ESMBuild)

	if l.Cache != nil {
		out.CacheDirs = append([]string{}, l.Cache...)
	}
	if l.Globals != nil {
		out.Globals = copyMap(l.Globals)
	}
	if l.Pipeline != nil {
		out.Pipeline = append([]pipeline.Ref{}, l.Pipeline...)
	}

	return out
}

// Merge applies layers over the system defaults in increasing precedence.
func Merge(layers ...Layer) BuildConfig {
	cfg := Defaults()
	for _, l := range layers {
		cfg = cfg.Apply(l)
	}
	return cfg
}

// TypesEnabled reports whether declaration output is configured.
func (c BuildConfig) TypesEnabled() bool {
	return c.TypesDir != ""
}

func (c BuildConfig) clone() BuildConfig {
	out := c
	out.CacheDirs = append([]string{}, c.CacheDirs...)
	out.Globals = copyMap(c.Globals)
	out.Pipeline = append([]pipeline.Ref{}, c.Pipeline...)
	return out
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
