// Package pipeline models the ordered transformation stages of one build unit
// and assembles them from configuration.
//
// A pipeline entry in configuration is a Ref: either the ID of a registry
// stage (resolve, commonjs, typescript, babel) or an opaque custom Stage
// supplied by the caller. Assemble turns Refs into parameterized stage
// instances while preserving order exactly, since later stages consume the
// output of earlier ones.
package pipeline

import (
	"context"
	"fmt"
)

// Stage is one transformation step handed to the bundler.
type Stage interface {
	Name() string
}

// BuildStartHook is implemented by stages that act once when a unit's bundle
// is opened, before any output is generated.
type BuildStartHook interface {
	Stage
	BuildStart(ctx context.Context) error
}

// WriteResult describes one output after all of its files were written.
type WriteResult struct {
	// OutputFile is the primary file of the output descriptor.
	OutputFile string
	// Files lists every file written for the output, primary first.
	Files []string
}

// WriteHook is implemented by stages that act after an output was written.
type WriteHook interface {
	Stage
	AfterWrite(ctx context.Context, result WriteResult) error
}

// ID names a stage in the fixed registry.
type ID string

const (
	IDResolve    ID = "resolve"
	IDCommonJS   ID = "commonjs"
	IDTypeScript ID = "typescript"
	IDBabel      ID = "babel"
)

// Ref is a pipeline entry: a registry ID or a custom stage instance.
type Ref struct {
	id    ID
	stage Stage
}

// Use refers to a registry stage.
func Use(id ID) Ref {
	return Ref{id: id}
}

// Custom wraps a caller-supplied stage that is passed through unchanged.
func Custom(stage Stage) Ref {
	return Ref{stage: stage}
}

// Refs converts registry ids to refs.
func Refs(ids ...ID) []Ref {
	refs := make([]Ref, len(ids))
	for i, id := range ids {
		refs[i] = Use(id)
	}
	return refs
}

// DefaultPipeline returns the stage order used when a project configures none.
func DefaultPipeline() []Ref {
	return Refs(IDResolve, IDCommonJS, IDTypeScript, IDBabel)
}

// ID returns the registry id and true, or false for a custom stage.
func (r Ref) ID() (ID, bool) {
	return r.id, r.stage == nil
}

// Stage returns the custom stage, or nil for a registry ref.
func (r Ref) Stage() Stage {
	return r.stage
}

func (r Ref) String() string {
	if r.stage != nil {
		return "custom:" + r.stage.Name()
	}
	return string(r.id)
}

// MarshalYAML renders a ref by name so resolved configs can be printed.
func (r Ref) MarshalYAML() (interface{}, error) {
	return r.String(), nil
}

// Target is an ECMAScript language level for syntax lowering.
type Target string

const (
	TargetES2015 Target = "es2015"
	TargetES2017 Target = "es2017"
	TargetESNext Target = "esnext"
)

// Resolve locates imported modules on disk.
type Resolve struct {
	Extensions []string
	RootDir    string
	ModuleDirs []string
}

func (*Resolve) Name() string { return string(IDResolve) }

// CommonJS lets the bundle consume CommonJS modules.
type CommonJS struct {
	MainFields []string
}

func (*CommonJS) Name() string { return string(IDCommonJS) }

// TypeScript type-checks and downlevels TypeScript sources.
type TypeScript struct {
	Check          bool
	TSConfig       string
	SourceMap      bool
	Declaration    bool
	DeclarationDir string
	Exclude        []string
}

func (*TypeScript) Name() string { return string(IDTypeScript) }

// Transpile lowers syntax to the unit's language target.
type Transpile struct {
	Modern     bool
	Target     Target
	Extensions []string
}

func (*Transpile) Name() string { return string(IDBabel) }

// Noop fills a registry slot whose stage does not apply to the project.
type Noop struct {
	Slot ID
}

func (n *Noop) Name() string { return fmt.Sprintf("noop(%s)", n.Slot) }

// Minify compacts a single output. It is attached to minified output
// descriptors only, never to a unit's shared stage list.
type Minify struct {
	Whitespace  bool
	Identifiers bool
	Syntax      bool
}

// NewMinify returns a stage with every compaction enabled.
func NewMinify() *Minify {
	return &Minify{Whitespace: true, Identifiers: true, Syntax: true}
}

func (*Minify) Name() string { return "minify" }
