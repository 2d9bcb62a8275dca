package build

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/conneroisu/bundler/internal/errors"
	"github.com/conneroisu/bundler/internal/logging"
	"github.com/conneroisu/bundler/internal/pipeline"
	"github.com/conneroisu/bundler/internal/validation"
)

var allowedTypeCheckers = map[string]bool{
	"tsc":  true,
	"tsgo": true,
}

// TypeChecker runs the TypeScript compiler for type checking and
// declaration output. esbuild strips types without checking them.
type TypeChecker struct {
	command string
	logger  logging.Logger
}

// NewTypeChecker creates a type checker running command.
func NewTypeChecker(command string, logger logging.Logger) *TypeChecker {
	if command == "" {
		command = "tsc"
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &TypeChecker{command: command, logger: logger}
}

// Run checks and/or emits declarations as the stage requests. Type errors
// fail the run only when the stage asks for checking.
func (tc *TypeChecker) Run(ctx context.Context, stage *pipeline.TypeScript, mode string) error {
	if !stage.Check && !stage.Declaration {
		return nil
	}

	derived, err := writeDerivedTSConfig(stage)
	if err != nil {
		return errors.NewIOError(errors.ErrCodeWriteFailed, "cannot write derived tsconfig", err)
	}
	defer os.Remove(derived)

	args := tc.args(stage, derived)
	if err := tc.validateCommand(args); err != nil {
		return errors.NewConfigError(errors.ErrCodeConfigInvalid, "command validation failed", err)
	}

	cmd := exec.CommandContext(ctx, tc.command, args...)
	cmd.Dir = filepath.Dir(stage.TSConfig)
	cmd.Env = append(os.Environ(), "NODE_ENV="+mode)

	output, runErr := cmd.CombinedOutput()
	if runErr == nil {
		return nil
	}

	if ctx.Err() != nil {
		return fmt.Errorf("%s timed out: %w", tc.command, ctx.Err())
	}

	diagnostics := errors.ParseTypeCheckOutput(string(output))
	if len(diagnostics) == 0 {
		return errors.NewBundleError(errors.ErrCodeTypeCheckFailed,
			fmt.Sprintf("%s failed: %s", tc.command, output), runErr)
	}

	if !stage.Check {
		for _, d := range diagnostics {
			tc.logger.Warn(ctx, nil, "Type error", "diagnostic", d.String())
		}
		return nil
	}

	return errors.TypeCheckError(diagnostics, runErr)
}

func (tc *TypeChecker) args(stage *pipeline.TypeScript, tsconfig string) []string {
	args := []string{"-p", tsconfig, "--pretty", "false"}

	if stage.Declaration {
		args = append(args,
			"--declaration",
			"--emitDeclarationOnly",
			"--declarationDir", stage.DeclarationDir)
		if stage.SourceMap {
			args = append(args, "--declarationMap")
		}
	} else {
		args = append(args, "--noEmit")
	}

	return args
}

func (tc *TypeChecker) validateCommand(args []string) error {
	if err := validation.ValidateCommand(tc.command, allowedTypeCheckers); err != nil {
		return err
	}
	for _, arg := range args {
		if err := validation.ValidateArgument(arg); err != nil {
			return fmt.Errorf("invalid argument '%s': %w", arg, err)
		}
	}
	return nil
}

// writeDerivedTSConfig writes a tsconfig next to the project's own that
// extends it and adds the stage's exclude list, so relative include
// patterns keep their meaning.
func writeDerivedTSConfig(stage *pipeline.TypeScript) (string, error) {
	dir := filepath.Dir(stage.TSConfig)

	derived := struct {
		Extends string   `json:"extends"`
		Exclude []string `json:"exclude,omitempty"`
	}{
		Extends: "./" + filepath.Base(stage.TSConfig),
		Exclude: stage.Exclude,
	}

	data, err := json.MarshalIndent(derived, "", "  ")
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(dir, "tsconfig.bundler-*.json")
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", err
	}

	return f.Name(), nil
}
