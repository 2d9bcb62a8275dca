package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bundlererrors "github.com/conneroisu/bundler/internal/errors"
)

type markerStage struct {
	Label string
}

func (m *markerStage) Name() string { return "marker-" + m.Label }

func tsContext() Context {
	return Context{
		SrcPath:     "/p/app/src",
		TestsPath:   "/p/app/__tests__",
		TypesPath:   "/p/app/types",
		Extensions:  []string{".ts", ".js"},
		ModuleDirs:  []string{"/p/app/node_modules"},
		TSConfig:    "/p/app/tsconfig.json",
		TSExclude:   []string{"node_modules"},
		Declaration: true,
		Sourcemap:   true,
		Check:       true,
	}
}

func TestAssembleDefaultPipeline(t *testing.T) {
	stages, err := Assemble(DefaultPipeline(), tsContext())
	require.NoError(t, err)

	want := []Stage{
		&Resolve{
			Extensions: []string{".ts", ".js"},
			RootDir:    "/p/app/src",
			ModuleDirs: []string{"/p/app/node_modules"},
		},
		&CommonJS{MainFields: []string{"browser", "module", "main"}},
		&TypeScript{
			Check:          true,
			TSConfig:       "/p/app/tsconfig.json",
			SourceMap:      true,
			Declaration:    true,
			DeclarationDir: "/p/app/types",
			Exclude:        []string{"node_modules", "/p/app/__tests__"},
		},
		&Transpile{Target: TargetES2015, Extensions: []string{".ts", ".js"}},
	}

	if diff := cmp.Diff(want, stages); diff != "" {
		t.Errorf("Assemble() mismatch (-want +got):\n%s", diff)
	}
}

func TestAssemblePreservesOrderWithCustomStages(t *testing.T) {
	first := &markerStage{Label: "first"}
	last := &markerStage{Label: "last"}

	refs := []Ref{Custom(first), Use(IDBabel), Use(IDResolve), Custom(last)}
	stages, err := Assemble(refs, tsContext())
	require.NoError(t, err)

	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name()
	}
	assert.Equal(t, []string{"marker-first", "babel", "resolve", "marker-last"}, names)
	assert.Same(t, first, stages[0], "custom stages pass through unchanged")
	assert.Same(t, last, stages[3])
}

func TestAssembleTypeScriptSlotWithoutTSConfig(t *testing.T) {
	ctx := tsContext()
	ctx.TSConfig = ""

	stages, err := Assemble(DefaultPipeline(), ctx)
	require.NoError(t, err)
	require.Len(t, stages, 4, "slot is filled even when the stage does not apply")

	noop, ok := stages[2].(*Noop)
	require.True(t, ok)
	assert.Equal(t, IDTypeScript, noop.Slot)
}

func TestAssembleDeclarationRequiresTypesDir(t *testing.T) {
	ctx := tsContext()
	ctx.TypesPath = ""

	stages, err := Assemble(Refs(IDTypeScript), ctx)
	require.NoError(t, err)

	ts := stages[0].(*TypeScript)
	assert.False(t, ts.Declaration)
}

func TestAssembleModernTarget(t *testing.T) {
	ctx := tsContext()
	ctx.Modern = true

	stages, err := Assemble(Refs(IDBabel), ctx)
	require.NoError(t, err)
	assert.Equal(t, TargetES2017, stages[0].(*Transpile).Target)
	assert.True(t, stages[0].(*Transpile).Modern)
}

func TestAssembleUnknownStage(t *testing.T) {
	_, err := Assemble([]Ref{Use(IDResolve), Use("prettier")}, tsContext())
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrUnknownStage))
	assert.True(t, bundlererrors.IsConfigError(err))
	assert.Contains(t, err.Error(), `"prettier"`)
	assert.Contains(t, err.Error(), "position 1")
}

func TestAssembleDoesNotShareSlices(t *testing.T) {
	ctx := tsContext()
	stages, err := Assemble(Refs(IDResolve), ctx)
	require.NoError(t, err)

	stages[0].(*Resolve).Extensions[0] = ".changed"
	assert.Equal(t, ".ts", ctx.Extensions[0])
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(DefaultPipeline()))
	assert.Error(t, Validate(Refs("terser")))
	assert.True(t, Known(IDCommonJS))
	assert.False(t, Known("styles"))
}

func TestRefAccessors(t *testing.T) {
	id, ok := Use(IDResolve).ID()
	assert.True(t, ok)
	assert.Equal(t, IDResolve, id)
	assert.Equal(t, "resolve", Use(IDResolve).String())

	custom := Custom(&markerStage{Label: "x"})
	_, ok = custom.ID()
	assert.False(t, ok)
	assert.Equal(t, "custom:marker-x", custom.String())

	out, err := custom.MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, "custom:marker-x", out)
}

type hookStage struct{ started int }

func (h *hookStage) Name() string { return "hook" }
func (h *hookStage) BuildStart(context.Context) error {
	h.started++
	return nil
}

func TestHookInterfaces(t *testing.T) {
	var s Stage = &hookStage{}
	hook, ok := s.(BuildStartHook)
	require.True(t, ok)
	require.NoError(t, hook.BuildStart(context.Background()))

	_, isWrite := s.(WriteHook)
	assert.False(t, isWrite)
}
