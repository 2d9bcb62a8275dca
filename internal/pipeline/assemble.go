package pipeline

import (
	"fmt"

	"github.com/conneroisu/bundler/internal/errors"
)

// ErrUnknownStage matches errors returned for ids missing from the registry.
var ErrUnknownStage = &errors.Error{Type: errors.ErrorTypeConfig, Code: errors.ErrCodeUnknownStage}

// Context parameterizes registry stages for one build unit.
type Context struct {
	SrcPath     string
	TestsPath   string
	TypesPath   string
	Extensions  []string
	ModuleDirs  []string
	TSConfig    string
	TSExclude   []string
	Declaration bool
	Sourcemap   bool
	Check       bool
	Modern      bool
}

// TypeChecked reports whether the project has a type-system project file.
func (c Context) TypeChecked() bool {
	return c.TSConfig != ""
}

type factory func(ctx Context) Stage

var registry = map[ID]factory{
	IDResolve: func(ctx Context) Stage {
		return &Resolve{
			Extensions: append([]string(nil), ctx.Extensions...),
			RootDir:    ctx.SrcPath,
			ModuleDirs: append([]string(nil), ctx.ModuleDirs...),
		}
	},
	IDCommonJS: func(Context) Stage {
		return &CommonJS{MainFields: []string{"browser", "module", "main"}}
	},
	IDTypeScript: func(ctx Context) Stage {
		if !ctx.TypeChecked() {
			return &Noop{Slot: IDTypeScript}
		}
		exclude := append([]string(nil), ctx.TSExclude...)
		if ctx.TestsPath != "" {
			exclude = append(exclude, ctx.TestsPath)
		}
		return &TypeScript{
			Check:          ctx.Check,
			TSConfig:       ctx.TSConfig,
			SourceMap:      ctx.Sourcemap,
			Declaration:    ctx.Declaration && ctx.TypesPath != "",
			DeclarationDir: ctx.TypesPath,
			Exclude:        exclude,
		}
	},
	IDBabel: func(ctx Context) Stage {
		target := TargetES2015
		if ctx.Modern {
			target = TargetES2017
		}
		return &Transpile{
			Modern:     ctx.Modern,
			Target:     target,
			Extensions: append([]string(nil), ctx.Extensions...),
		}
	},
}

// Known reports whether id names a registry stage.
func Known(id ID) bool {
	_, ok := registry[id]
	return ok
}

// Assemble maps refs to stage instances in order. Custom stages pass through
// unchanged; an id missing from the registry is an error.
func Assemble(refs []Ref, ctx Context) ([]Stage, error) {
	stages := make([]Stage, 0, len(refs))

	for i, ref := range refs {
		id, ok := ref.ID()
		if !ok {
			stages = append(stages, ref.Stage())
			continue
		}

		create, found := registry[id]
		if !found {
			return nil, errors.NewConfigError(
				errors.ErrCodeUnknownStage,
				fmt.Sprintf("unknown pipeline stage %q at position %d", id, i),
				nil,
			)
		}
		stages = append(stages, create(ctx))
	}

	return stages, nil
}

// Validate checks every registry ref without instantiating stages.
func Validate(refs []Ref) error {
	_, err := Assemble(refs, Context{})
	return err
}
