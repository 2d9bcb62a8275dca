package config

import (
	"context"
	"path/filepath"

	"github.com/conneroisu/bundler/internal/errors"
	"github.com/conneroisu/bundler/internal/logging"
	"github.com/conneroisu/bundler/internal/paths"
	"github.com/conneroisu/bundler/internal/pipeline"
)

// Project is a loaded project: its merged configuration plus everything
// resolved from disk.
type Project struct {
	ID   string
	Path string

	Config BuildConfig
	// SettingsFile is the settings file that was applied, or "".
	SettingsFile string
	Manifest     *Manifest
	// TSConfig is nil for projects without tsconfig.json.
	TSConfig *TSConfig

	EntryPath  string
	SrcPath    string
	DistPath   string
	TypesPath  string
	TestsPath  string
	CachePaths []string
	ModuleDirs []string
	Extensions []string
}

// TypeChecked reports whether the project is built as TypeScript.
func (p *Project) TypeChecked() bool {
	return p.TSConfig != nil
}

// PipelineContext parameterizes registry stages for one build unit of p.
func (p *Project) PipelineContext(modern, check bool) pipeline.Context {
	ctx := pipeline.Context{
		SrcPath:     p.SrcPath,
		TestsPath:   p.TestsPath,
		TypesPath:   p.TypesPath,
		Extensions:  p.Extensions,
		ModuleDirs:  p.ModuleDirs,
		Declaration: p.TypesPath != "",
		Sourcemap:   p.Config.EmitSourcemap,
		Check:       check,
		Modern:      modern,
	}
	if p.TSConfig != nil {
		ctx.TSConfig = p.TSConfig.Path
		ctx.TSExclude = p.TSConfig.Exclude
	}
	return ctx
}

// Loader builds per-project configuration inside a workspace.
type Loader struct {
	Workspace *Workspace
	Resolver  *paths.Resolver
	Logger    logging.Logger
}

// NewLoader creates a loader for ws.
func NewLoader(ws *Workspace, logger logging.Logger) *Loader {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Loader{
		Workspace: ws,
		Resolver:  paths.NewResolver(ws.Resolve.Extensions),
		Logger:    logger.WithComponent("config"),
	}
}

// Load merges defaults, the project identity, the project's settings file
// and overrides, in that order of precedence, and resolves the result
// against the project directory.
func (l *Loader) Load(projectID string, overrides Layer) (*Project, error) {
	ctx := context.Background()

	if projectID == "" {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "project id is required", nil)
	}

	dir := filepath.Join(l.Workspace.ProjectRoot, projectID)
	project := &Project{ID: projectID, Path: dir}

	var settings Layer
	if file := FindSettingsFile(dir); file != "" {
		layer, err := LoadSettingsFile(file)
		if err != nil {
			return nil, withProject(err, projectID)
		}
		settings = layer
		project.SettingsFile = file
		l.Logger.Debug(ctx, "Loaded settings file", "project", projectID, "file", file)
	}

	manifest, err := LoadManifest(dir)
	if err != nil {
		return nil, withProject(err, projectID)
	}
	project.Manifest = manifest

	tsconfig, err := LoadTSConfig(dir)
	if err != nil {
		return nil, withProject(err, projectID)
	}
	project.TSConfig = tsconfig

	project.Config = Merge(IdentityLayer(projectID), settings, overrides)

	if result := ValidateBuildConfig(&project.Config); result.HasErrors() {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, result.String(), nil).
			WithProject(projectID)
	} else if result.HasWarnings() {
		for _, w := range result.Warnings {
			l.Logger.Warn(ctx, &w, "Configuration warning", "project", projectID)
		}
	}

	l.resolvePaths(project)

	return project, nil
}

func (l *Loader) resolvePaths(p *Project) {
	r := l.Resolver
	cfg := p.Config

	p.EntryPath = r.Resolve(p.Path, cfg.EntryPath, true)
	p.SrcPath = r.Resolve(p.Path, cfg.SourceDir, false)
	p.DistPath = r.Resolve(p.Path, cfg.OutputDir, false)
	p.TypesPath = r.Resolve(p.Path, cfg.TypesDir, false)
	p.TestsPath = r.Resolve(p.Path, cfg.TestsDir, false)
	p.CachePaths = r.ResolveAll(p.Path, cfg.CacheDirs)
	p.Extensions = append([]string(nil), r.Extensions...)
	p.ModuleDirs = l.moduleDirs(p.Path)
}

// moduleDirs lists the project's module directories followed by the
// workspace-level ones.
func (l *Loader) moduleDirs(projectPath string) []string {
	seen := make(map[string]struct{})
	var dirs []string

	add := func(dir string) {
		if _, ok := seen[dir]; ok {
			return
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}

	for _, d := range l.Workspace.Resolve.Directories {
		add(l.Resolver.Resolve(projectPath, d, false))
	}
	for _, d := range l.Workspace.Resolve.Directories {
		add(l.Resolver.Resolve(l.Workspace.Root, d, false))
	}

	return dirs
}

func withProject(err error, projectID string) error {
	if e, ok := err.(*errors.Error); ok {
		return e.WithProject(projectID)
	}
	return err
}
