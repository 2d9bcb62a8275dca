package build

import (
	"context"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/bundler/internal/config"
	"github.com/conneroisu/bundler/internal/logging"
)

// PlanOptions are the caller's settings for one build invocation.
type PlanOptions struct {
	Overrides config.Layer
	// Silent suppresses the configuration dump and cleanup logging.
	Silent bool
	// Fast skips bundle analysis.
	Fast bool
	// Check type-checks TypeScript projects.
	Check bool
	// Mode is exposed to bundled code as process.env.NODE_ENV.
	// Empty selects production.
	Mode string
}

// Planner turns a project into ready-to-run build units.
type Planner struct {
	loader *config.Loader
	logger logging.Logger
}

// NewPlanner creates a planner loading projects with loader.
func NewPlanner(loader *config.Loader, logger logging.Logger) *Planner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Planner{loader: loader, logger: logger.WithComponent("planner")}
}

// Plan loads the project and returns its units, legacy first, with the
// cleanup stages injected.
func (p *Planner) Plan(ctx context.Context, projectID string, opts PlanOptions) ([]*Unit, error) {
	project, err := p.loader.Load(projectID, opts.Overrides)
	if err != nil {
		return nil, err
	}

	mode := opts.Mode
	if mode == "" {
		mode = ModeProduction
	}

	if !opts.Silent {
		p.logConfig(ctx, project, mode)
	}

	unitOpts := UnitOptions{Check: opts.Check, Fast: opts.Fast, Mode: mode}

	var units []*Unit
	for _, target := range Targets(project.Config) {
		unit, err := GenerateUnit(target, project, unitOpts)
		if err != nil {
			return nil, err
		}
		if unit != nil {
			units = append(units, unit)
		}
	}

	Inject(units, InjectEnv{
		DistPath:   project.DistPath,
		TypesPath:  project.TypesPath,
		CachePaths: project.CachePaths,
		Logger:     p.logger,
		Silent:     opts.Silent,
	})

	return units, nil
}

func (p *Planner) logConfig(ctx context.Context, project *config.Project, mode string) {
	dump, err := yaml.Marshal(project.Config)
	if err != nil {
		p.logger.Debug(ctx, "Cannot render configuration", "error", err.Error())
		return
	}

	p.logger.Info(ctx, "Building project",
		"project", project.ID,
		"mode", mode,
		"typescript", project.TypeChecked(),
		"settings", project.SettingsFile)
	p.logger.Debug(ctx, "Resolved configuration", "project", project.ID, "config", string(dump))
}
