// Package build turns loaded projects into build units and executes them.
//
// A project yields one unit per module format: a legacy unit bundled as an
// IIFE exposing a global, and, when enabled, a modern ES module unit. Each
// unit carries its own assembled stage list and the outputs it writes. The
// Runner executes units strictly in order and fires stage hooks at unit
// boundaries, which is what the lifecycle stages injected by Inject rely on.
package build

import (
	"strings"

	"github.com/conneroisu/bundler/internal/pipeline"
)

// Format is the module format of an output.
type Format string

const (
	FormatLegacy Format = "legacy"
	FormatModern Format = "modern"
)

// Default build modes exposed to bundled code as process.env.NODE_ENV.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
	ModeBuild       = "build"
)

// Output describes one emitted file.
type Output struct {
	Format    Format
	FilePath  string
	Sourcemap bool

	// Legacy only.
	GlobalName string
	Globals    map[string]string
	Exports    string

	Minified bool
	// Stages run for this output only, after the unit's stages.
	Stages []pipeline.Stage
}

// Unit is one bundler invocation over a single entry module.
type Unit struct {
	EntryPath string
	Format    Format
	Outputs   []Output
	// External modules are left as imports and never bundled.
	External []string
	Stages   []pipeline.Stage
	Mode     string
	// Fast skips bundle analysis.
	Fast bool
}

// Prepend inserts stages at the front of the unit's stage list.
func (u *Unit) Prepend(stages ...pipeline.Stage) {
	u.Stages = append(append([]pipeline.Stage{}, stages...), u.Stages...)
}

// AllStages returns the unit stages followed by the output's own stages.
func (u *Unit) AllStages(out Output) []pipeline.Stage {
	all := make([]pipeline.Stage, 0, len(u.Stages)+len(out.Stages))
	all = append(all, u.Stages...)
	return append(all, out.Stages...)
}

// StageNames lists stage names in order, for logging.
func StageNames(stages []pipeline.Stage) []string {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name()
	}
	return names
}

// minifiedPath replaces a trailing .js with .min.js.
func minifiedPath(path string) string {
	return strings.TrimSuffix(path, ".js") + ".min.js"
}
