package build

import (
	"path/filepath"

	"github.com/conneroisu/bundler/internal/config"
	"github.com/conneroisu/bundler/internal/pipeline"
)

// UnitOptions are the per-invocation settings shared by every unit.
type UnitOptions struct {
	// Check enables type checking for TypeScript projects.
	Check bool
	Fast  bool
	Mode  string
}

// Targets returns the formats a configuration builds, legacy first.
func Targets(cfg config.BuildConfig) []Format {
	if cfg.EmitModernModule {
		return []Format{FormatLegacy, FormatModern}
	}
	return []Format{FormatLegacy}
}

// GenerateOutputs returns the outputs of one target, each unminified output
// immediately followed by its minified sibling when EmitMinified is set.
// A modern target yields nothing unless EmitModernModule is set.
func GenerateOutputs(target Format, cfg config.BuildConfig, distPath string) []Output {
	var primary Output

	switch target {
	case FormatLegacy:
		primary = Output{
			Format:     FormatLegacy,
			FilePath:   filepath.Join(distPath, cfg.File+".js"),
			Sourcemap:  cfg.EmitSourcemap,
			GlobalName: cfg.Name,
			Globals:    globalsOrEmpty(cfg.Globals),
			Exports:    cfg.ExportsMode,
		}
	case FormatModern:
		if !cfg.EmitModernModule {
			return nil
		}
		primary = Output{
			Format:    FormatModern,
			FilePath:  filepath.Join(distPath, cfg.File+".esm.js"),
			Sourcemap: cfg.EmitSourcemap,
		}
	default:
		return nil
	}

	outputs := []Output{primary}
	if cfg.EmitMinified {
		outputs = append(outputs, minifiedSibling(primary))
	}
	return outputs
}

func minifiedSibling(out Output) Output {
	sibling := out
	sibling.FilePath = minifiedPath(out.FilePath)
	sibling.Sourcemap = false
	sibling.Minified = true
	sibling.Globals = copyGlobals(out.Globals)
	sibling.Stages = append(append([]pipeline.Stage{}, out.Stages...), pipeline.NewMinify())
	return sibling
}

// GenerateUnit assembles the unit of one target for a loaded project.
// Type checking and declaration output run with the legacy unit only, since
// both units compile the same sources.
func GenerateUnit(target Format, project *config.Project, opts UnitOptions) (*Unit, error) {
	outputs := GenerateOutputs(target, project.Config, project.DistPath)
	if len(outputs) == 0 {
		return nil, nil
	}

	ctx := project.PipelineContext(target == FormatModern, opts.Check)
	if target != FormatLegacy {
		ctx.Check = false
		ctx.Declaration = false
	}

	stages, err := pipeline.Assemble(project.Config.Pipeline, ctx)
	if err != nil {
		return nil, err
	}

	var external []string
	if project.Manifest != nil {
		external = project.Manifest.ExternalIDs()
	}

	return &Unit{
		EntryPath: project.EntryPath,
		Format:    target,
		Outputs:   outputs,
		External:  external,
		Stages:    stages,
		Mode:      opts.Mode,
		Fast:      opts.Fast,
	}, nil
}

func globalsOrEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return copyGlobals(m)
}

func copyGlobals(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
