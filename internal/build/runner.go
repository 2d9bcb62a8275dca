package build

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/conneroisu/bundler/internal/errors"
	"github.com/conneroisu/bundler/internal/logging"
	"github.com/conneroisu/bundler/internal/pipeline"
)

// Bundler opens units for bundling.
type Bundler interface {
	Open(ctx context.Context, unit *Unit) (Bundle, error)
}

// Bundle is an opened unit. Write emits one output and returns the paths
// of every file written for it, primary file first.
type Bundle interface {
	Write(ctx context.Context, out Output) ([]string, error)
	Close() error
}

// Runner executes units sequentially.
type Runner struct {
	bundler Bundler
	logger  logging.Logger
	metrics *BuildMetrics
}

// NewRunner creates a runner. A nil logger discards output.
func NewRunner(bundler Bundler, logger logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Runner{
		bundler: bundler,
		logger:  logger.WithComponent("runner"),
		metrics: NewBuildMetrics(),
	}
}

// Metrics returns a snapshot of what the runner has built so far.
func (r *Runner) Metrics() BuildMetrics {
	return r.metrics.GetSnapshot()
}

// Run executes units in order and, within each unit, outputs in order.
// BuildStart hooks fire before a unit is opened, AfterWrite hooks after
// each of its outputs is written. The first error aborts the run.
func (r *Runner) Run(ctx context.Context, units []*Unit) ([]pipeline.WriteResult, error) {
	var results []pipeline.WriteResult

	for i, unit := range units {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		unitResults, err := r.runUnit(ctx, i, unit)
		results = append(results, unitResults...)
		if err != nil {
			return results, err
		}
	}

	return results, nil
}

func (r *Runner) runUnit(ctx context.Context, index int, unit *Unit) ([]pipeline.WriteResult, error) {
	start := time.Now()
	perf := logging.StartOperation(r.logger, fmt.Sprintf("unit %d (%s)", index, unit.Format))

	for _, stage := range unit.Stages {
		if hook, ok := stage.(pipeline.BuildStartHook); ok {
			if err := hook.BuildStart(ctx); err != nil {
				err = hookError(stage, err)
				perf.EndWithError(ctx, err)
				r.metrics.RecordUnit(time.Since(start), err)
				return nil, err
			}
		}
	}

	r.logger.Debug(ctx, "Opening bundle",
		"entry", unit.EntryPath,
		"format", string(unit.Format),
		"stages", StageNames(unit.Stages))

	bundle, err := r.bundler.Open(ctx, unit)
	if err != nil {
		err = asBundleError(err, "cannot open bundle for "+unit.EntryPath)
		perf.EndWithError(ctx, err)
		r.metrics.RecordUnit(time.Since(start), err)
		return nil, err
	}
	defer bundle.Close()

	var results []pipeline.WriteResult
	for _, out := range unit.Outputs {
		if err := ctx.Err(); err != nil {
			r.metrics.RecordUnit(time.Since(start), err)
			return results, err
		}

		files, err := bundle.Write(ctx, out)
		if err != nil {
			err = asBundleError(err, "cannot write "+out.FilePath)
			perf.EndWithError(ctx, err)
			r.metrics.RecordUnit(time.Since(start), err)
			return results, err
		}

		result := pipeline.WriteResult{OutputFile: out.FilePath, Files: files}
		results = append(results, result)
		r.metrics.RecordOutput(len(files))

		for _, stage := range unit.AllStages(out) {
			if hook, ok := stage.(pipeline.WriteHook); ok {
				if err := hook.AfterWrite(ctx, result); err != nil {
					err = hookError(stage, err)
					perf.EndWithError(ctx, err)
					r.metrics.RecordUnit(time.Since(start), err)
					return results, err
				}
			}
		}

		r.logger.Debug(ctx, "Wrote output", "file", out.FilePath, "files", len(files))
	}

	perf.End(ctx)
	r.metrics.RecordUnit(time.Since(start), nil)
	return results, nil
}

func hookError(stage pipeline.Stage, err error) error {
	return errors.NewBundleError(errors.ErrCodeBundleFailed,
		fmt.Sprintf("stage %s failed", stage.Name()), err)
}

// asBundleError keeps structured errors from the bundler and wraps the rest.
func asBundleError(err error, msg string) error {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return err
	}
	return errors.NewBundleError(errors.ErrCodeBundleFailed, msg, err)
}
