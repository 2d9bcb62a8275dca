package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/conneroisu/bundler/internal/pipeline"
	"github.com/conneroisu/bundler/internal/validation"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("Validation errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("    hint: %s\n", suggestion))
			}
		}
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("Validation warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", warning.Field, warning.Message))
			for _, suggestion := range warning.Suggestions {
				builder.WriteString(fmt.Sprintf("    hint: %s\n", suggestion))
			}
		}
	}

	return builder.String()
}

// ValidateBuildConfig checks a merged build configuration.
func ValidateBuildConfig(cfg *BuildConfig) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	if cfg.File == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "file",
			Value:   cfg.File,
			Message: "output file name cannot be empty",
			Suggestions: []string{
				"Omit 'file' to name outputs after the project",
			},
		})
	} else if err := validation.ValidateFileName(cfg.File); err != nil || filepath.Ext(cfg.File) == ".js" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "file",
			Value:   cfg.File,
			Message: "output file name must be a bare stem without directories or .js",
			Suggestions: []string{
				"Set 'dist' to choose the output directory",
			},
		})
	}

	if cfg.EntryPath == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "input",
			Value:   cfg.EntryPath,
			Message: "entry module cannot be empty",
		})
	}

	if cfg.OutputDir == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "dist",
			Value:   cfg.OutputDir,
			Message: "output directory cannot be empty",
		})
	}

	switch cfg.ExportsMode {
	case ExportsAuto, ExportsDefault, ExportsNamed, ExportsNone:
	default:
		result.Errors = append(result.Errors, ValidationError{
			Field:   "exports",
			Value:   cfg.ExportsMode,
			Message: fmt.Sprintf("unknown exports mode %q", cfg.ExportsMode),
			Suggestions: []string{
				"Use one of auto, default, named, none",
			},
		})
	}

	for _, ref := range cfg.Pipeline {
		id, ok := ref.ID()
		if ok && !pipeline.Known(id) {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "pipeline",
				Value:   string(id),
				Message: fmt.Sprintf("unknown pipeline stage %q", id),
				Suggestions: []string{
					"Registry stages are resolve, commonjs, typescript, babel",
				},
			})
		}
	}

	for _, dir := range cfg.CacheDirs {
		if sameDir(dir, cfg.SourceDir) {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "cache",
				Value:   dir,
				Message: "cache directory is the source directory and would be deleted after the build",
			})
		}
	}

	if cfg.OutputDir != "" && sameDir(cfg.OutputDir, cfg.SourceDir) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "dist",
			Value:   cfg.OutputDir,
			Message: "output directory is the source directory and would be deleted before the build",
		})
	}

	if len(cfg.Pipeline) == 0 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "pipeline",
			Value:   cfg.Pipeline,
			Message: "empty pipeline - sources are bundled without resolution or transpilation",
		})
	}

	for mod, global := range cfg.Globals {
		if global == "" {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   "globals",
				Value:   mod,
				Message: fmt.Sprintf("module %q maps to an empty global name", mod),
			})
		}
	}

	result.Valid = !result.HasErrors()
	return result
}

func sameDir(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return filepath.Clean(a) == filepath.Clean(b)
}
