// Package testenv bundles a browser test's entry module before the browser
// session that runs the test is started.
//
// Each test file gets a scoped output directory next to it. Setup builds the
// test's index module into that directory together with an HTML page that
// loads it, then starts the browser session. A failed bundle never prevents
// the browser from starting: the failure is returned in Result so the test
// can report it distinctly from its own assertions.
package testenv

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"sync"

	"github.com/conneroisu/bundler/internal/build"
	"github.com/conneroisu/bundler/internal/config"
	"github.com/conneroisu/bundler/internal/errors"
	"github.com/conneroisu/bundler/internal/htmlgen"
	"github.com/conneroisu/bundler/internal/logging"
	"github.com/conneroisu/bundler/internal/pipeline"
)

// Lifecycle is the browser session wrapped by an Environment.
type Lifecycle interface {
	Setup(ctx context.Context) error
	Teardown(ctx context.Context) error
}

// State is the phase an Environment is in.
type State int

const (
	StateIdle State = iota
	StateBundling
	StateReady
	StateTornDown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBundling:
		return "bundling"
	case StateReady:
		return "ready"
	case StateTornDown:
		return "torn-down"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result is the outcome of Setup.
type Result struct {
	Scope Scope
	// BundleErr is the bundling failure, if any. The browser session is
	// started regardless.
	BundleErr error
}

// Bundled reports whether the test bundle was built.
func (r *Result) Bundled() bool {
	return r.BundleErr == nil
}

// Environment is the per-test bundling environment. It is used for exactly
// one test: Setup once, then Teardown once.
type Environment struct {
	workspace *config.Workspace
	bundler   build.Bundler
	lifecycle Lifecycle
	logger    logging.Logger

	mu    sync.Mutex
	state State
	scope Scope
}

// New creates an environment bundling with bundler and delegating to
// lifecycle. A nil logger discards output.
func New(ws *config.Workspace, bundler build.Bundler, lifecycle Lifecycle, logger logging.Logger) *Environment {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Environment{
		workspace: ws,
		bundler:   bundler,
		lifecycle: lifecycle,
		logger:    logger.WithComponent("testenv"),
	}
}

// State returns the current phase.
func (e *Environment) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Scope returns the scope of the test being run. It is zero before Setup.
func (e *Environment) Scope() Scope {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scope
}

// PageURL returns the file URL of the generated page.
func (e *Environment) PageURL() string {
	return e.Scope().PageURL()
}

func (e *Environment) transition(from, to State) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != from {
		return errors.NewValidationError(errors.ErrCodeInvalidState,
			fmt.Sprintf("cannot move to %s from %s", to, e.state))
	}
	e.state = to
	return nil
}

// Setup bundles the test at testPath and starts the browser session.
// Failures to locate or bundle the test are logged and returned in
// Result.BundleErr; the returned error is reserved for invalid use and
// browser failures.
func (e *Environment) Setup(ctx context.Context, testPath string) (*Result, error) {
	if err := e.transition(StateIdle, StateBundling); err != nil {
		return nil, err
	}

	scope, err := NewScope(e.workspace.ProjectRoot, testPath)

	e.mu.Lock()
	e.scope = scope
	e.mu.Unlock()

	result := &Result{Scope: scope}
	if err == nil {
		err = e.bundle(ctx, scope)
	}
	if err != nil {
		e.logger.Warn(ctx, err, "Test bundle failed, the page will not load",
			"test", scope.TestPath, "project", scope.ProjectID)
		result.BundleErr = err
	}

	if err := e.transition(StateBundling, StateReady); err != nil {
		return result, err
	}

	if err := e.lifecycle.Setup(ctx); err != nil {
		return result, err
	}

	return result, nil
}

// Teardown removes the scoped output directory and stops the browser
// session. Removal failures are ignored.
func (e *Environment) Teardown(ctx context.Context) error {
	if err := e.transition(StateReady, StateTornDown); err != nil {
		return err
	}

	if dir := e.Scope().OutputDir; dir != "" {
		_ = os.RemoveAll(dir)
	}

	return e.lifecycle.Teardown(ctx)
}

func (e *Environment) bundle(ctx context.Context, scope Scope) error {
	page := &htmlgen.Stage{
		Title:    scope.Title(),
		FileName: PageFileName,
	}

	body, err := os.ReadFile(scope.TemplatePath())
	switch {
	case err == nil:
		page.Body = string(body)
	case !stderrors.Is(err, os.ErrNotExist):
		return errors.NewIOError(errors.ErrCodeInternalError, "cannot read page template", err).
			WithFile(scope.TemplatePath())
	}

	refs := []pipeline.Ref{pipeline.Custom(Styles{})}
	refs = append(refs, pipeline.DefaultPipeline()...)
	refs = append(refs, pipeline.Custom(page))

	overrides := config.Layer{
		Input:       config.Ptr(scope.EntryPath),
		Dist:        config.Ptr(scope.OutputDir),
		File:        config.Ptr(OutputFile),
		Types:       config.Ptr(""),
		MinVersions: config.Ptr(false),
		ESMBuild:    config.Ptr(false),
		Sourcemap:   config.Ptr(false),
		Pipeline:    refs,
	}

	planner := build.NewPlanner(config.NewLoader(e.workspace, e.logger), e.logger)
	units, err := planner.Plan(ctx, scope.ProjectID, build.PlanOptions{
		Overrides: overrides,
		Silent:    true,
		Fast:      true,
		Check:     false,
		Mode:      build.ModeBuild,
	})
	if err != nil {
		return err
	}

	_, err = build.NewRunner(e.bundler, e.logger).Run(ctx, units)
	return err
}
