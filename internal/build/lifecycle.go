package build

import (
	"context"
	"os"

	"github.com/conneroisu/bundler/internal/logging"
	"github.com/conneroisu/bundler/internal/pipeline"
)

// InjectEnv carries the directories the lifecycle stages act on.
type InjectEnv struct {
	DistPath string
	// TypesPath is empty when declaration output is disabled.
	TypesPath  string
	CachePaths []string
	Logger     logging.Logger
	Silent     bool
}

// Inject brackets a multi-unit build with cleanup stages. The first unit
// gets a stage deleting stale output and declaration directories before it
// starts; the last unit gets a stage deleting cache directories once its
// final output is written. A single unit gets both.
func Inject(units []*Unit, env InjectEnv) {
	if len(units) == 0 {
		return
	}

	logger := env.Logger
	if logger == nil || env.Silent {
		logger = logging.Discard()
	}

	generated := []string{env.DistPath}
	if env.TypesPath != "" {
		generated = append(generated, env.TypesPath)
	}

	last := units[len(units)-1]
	cleanup := &DeleteCacheDirs{
		Dirs:   append([]string(nil), env.CachePaths...),
		Logger: logger,
	}
	if n := len(last.Outputs); n > 0 {
		cleanup.After = last.Outputs[n-1].FilePath
	}
	last.Prepend(cleanup)
	units[0].Prepend(&DeleteGeneratedDirs{Dirs: generated, Logger: logger})
}

// DeleteGeneratedDirs removes previous build output when a build starts.
type DeleteGeneratedDirs struct {
	Dirs   []string
	Logger logging.Logger
}

func (*DeleteGeneratedDirs) Name() string { return "delete-generated" }

func (d *DeleteGeneratedDirs) BuildStart(ctx context.Context) error {
	removeDirs(ctx, d.Logger, d.Dirs)
	return nil
}

// DeleteCacheDirs removes cache directories once outputs are written.
type DeleteCacheDirs struct {
	Dirs []string
	// After is the output whose write triggers the deletion. Empty deletes
	// after every write.
	After  string
	Logger logging.Logger
}

func (*DeleteCacheDirs) Name() string { return "delete-cache" }

func (d *DeleteCacheDirs) AfterWrite(ctx context.Context, result pipeline.WriteResult) error {
	if d.After != "" && result.OutputFile != d.After {
		return nil
	}
	removeDirs(ctx, d.Logger, d.Dirs)
	return nil
}

// removeDirs deletes dirs recursively. Failures are not reported.
func removeDirs(ctx context.Context, logger logging.Logger, dirs []string) {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			continue
		}
		if logger != nil {
			logger.Info(ctx, "Deleted directory", "dir", dir)
		}
	}
}
