package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/conneroisu/bundler/internal/config"
	"github.com/conneroisu/bundler/internal/errors"
	"github.com/conneroisu/bundler/internal/logging"
	"github.com/conneroisu/bundler/internal/pipeline"
)

// OptionsConfigurer is implemented by custom stages that change how esbuild
// bundles an output, such as adding loaders.
type OptionsConfigurer interface {
	pipeline.Stage
	ConfigureBuild(opts *api.BuildOptions)
}

// ESBuild bundles units with esbuild.
type ESBuild struct {
	checker *TypeChecker
	logger  logging.Logger
}

// NewESBuild creates an esbuild-backed bundler. checker may be nil when
// type checking is never requested.
func NewESBuild(checker *TypeChecker, logger logging.Logger) *ESBuild {
	if logger == nil {
		logger = logging.Discard()
	}
	return &ESBuild{checker: checker, logger: logger.WithComponent("esbuild")}
}

// Open runs the type checker when the unit's TypeScript stage asks for it.
func (b *ESBuild) Open(ctx context.Context, unit *Unit) (Bundle, error) {
	for _, stage := range unit.Stages {
		ts, ok := stage.(*pipeline.TypeScript)
		if !ok || (!ts.Check && !ts.Declaration) {
			continue
		}
		if b.checker == nil {
			return nil, errors.NewInternalError(errors.ErrCodeInternalError,
				"type checking requested without a type checker", nil)
		}
		if err := b.checker.Run(ctx, ts, unit.Mode); err != nil {
			return nil, err
		}
	}

	return &esbuildBundle{unit: unit, logger: b.logger}, nil
}

type esbuildBundle struct {
	unit   *Unit
	logger logging.Logger
}

func (eb *esbuildBundle) Close() error { return nil }

// Write builds one output in memory and writes its files.
func (eb *esbuildBundle) Write(ctx context.Context, out Output) ([]string, error) {
	opts, err := eb.buildOptions(ctx, out)
	if err != nil {
		return nil, err
	}

	result := api.Build(opts)

	for _, msg := range api.FormatMessages(result.Warnings, api.FormatMessagesOptions{
		Kind: api.WarningMessage,
	}) {
		eb.logger.Warn(ctx, nil, "Bundler warning", "output", out.FilePath, "message", strings.TrimSpace(msg))
	}

	if len(result.Errors) > 0 {
		msgs := api.FormatMessages(result.Errors, api.FormatMessagesOptions{
			Kind: api.ErrorMessage,
		})
		e := errors.NewBundleError(errors.ErrCodeBundleFailed,
			fmt.Sprintf("bundling %s failed with %d error(s):\n%s",
				out.FilePath, len(result.Errors), strings.Join(msgs, "")), nil)
		if loc := result.Errors[0].Location; loc != nil {
			e.FilePath = loc.File
			e.Line = loc.Line
			e.Column = loc.Column
		}
		return nil, e
	}

	files, err := writeOutputFiles(out.FilePath, result.OutputFiles)
	if err != nil {
		return files, err
	}

	if result.Metafile != "" {
		eb.logAnalysis(ctx, out.FilePath, opts.AbsWorkingDir, result.Metafile)
	}

	return files, nil
}

func (eb *esbuildBundle) buildOptions(ctx context.Context, out Output) (api.BuildOptions, error) {
	unit := eb.unit

	opts := api.BuildOptions{
		EntryPoints: []string{unit.EntryPath},
		Outfile:     out.FilePath,
		Bundle:      true,
		Write:       false,
		Platform:    api.PlatformBrowser,
		LogLevel:    api.LogLevelSilent,
		Metafile:    !unit.Fast,
		Define: map[string]string{
			"process.env.NODE_ENV": strconv.Quote(unit.Mode),
		},
	}
	if filepath.IsAbs(unit.EntryPath) {
		opts.AbsWorkingDir = filepath.Dir(unit.EntryPath)
	}
	if out.Sourcemap {
		opts.Sourcemap = api.SourceMapLinked
	}

	switch out.Format {
	case FormatLegacy:
		opts.Format = api.FormatIIFE
		if out.Exports != config.ExportsNone {
			opts.GlobalName = GlobalIdentifier(out.GlobalName)
			if footer := exportsFooter(opts.GlobalName, out.Exports); footer != "" {
				opts.Footer = map[string]string{"js": footer}
			}
		}
		if len(unit.External) > 0 {
			opts.Plugins = append(opts.Plugins, eb.globalsPlugin(ctx, unit.External, out.Globals))
		}
	case FormatModern:
		opts.Format = api.FormatESModule
		opts.External = append([]string(nil), unit.External...)
	default:
		return opts, errors.NewInternalError(errors.ErrCodeInternalError,
			fmt.Sprintf("unknown output format %q", out.Format), nil)
	}

	for _, stage := range unit.AllStages(out) {
		applyStage(&opts, stage)
	}

	return opts, nil
}

// applyStage maps one pipeline stage onto esbuild options. Stages that only
// act through hooks leave the options untouched.
func applyStage(opts *api.BuildOptions, stage pipeline.Stage) {
	switch s := stage.(type) {
	case *pipeline.Resolve:
		opts.ResolveExtensions = append([]string(nil), s.Extensions...)
		opts.NodePaths = append([]string(nil), s.ModuleDirs...)
	case *pipeline.CommonJS:
		opts.MainFields = append([]string(nil), s.MainFields...)
	case *pipeline.TypeScript:
		opts.Tsconfig = s.TSConfig
	case *pipeline.Transpile:
		opts.Target = esbuildTarget(s.Target)
	case *pipeline.Minify:
		opts.MinifyWhitespace = s.Whitespace
		opts.MinifyIdentifiers = s.Identifiers
		opts.MinifySyntax = s.Syntax
	case OptionsConfigurer:
		s.ConfigureBuild(opts)
	}
}

func esbuildTarget(t pipeline.Target) api.Target {
	switch t {
	case pipeline.TargetES2015:
		return api.ES2015
	case pipeline.TargetES2017:
		return api.ES2017
	default:
		return api.ESNext
	}
}

// exportsFooter unwraps the default export onto the global the way UMD
// bundles expose it.
func exportsFooter(global, mode string) string {
	switch mode {
	case config.ExportsDefault:
		return fmt.Sprintf("%[1]s = %[1]s && %[1]s.default;", global)
	case config.ExportsAuto:
		return fmt.Sprintf(
			`if (%[1]s && Object.keys(%[1]s).length === 1 && "default" in %[1]s) %[1]s = %[1]s.default;`,
			global)
	default:
		return ""
	}
}

// globalsPlugin resolves external imports in IIFE bundles to properties of
// the global object, since the browser has no module loader for them.
func (eb *esbuildBundle) globalsPlugin(ctx context.Context, external []string, globals map[string]string) api.Plugin {
	names := make(map[string]string, len(external))
	quoted := make([]string, 0, len(external))

	for _, id := range external {
		name, ok := globals[id]
		if !ok || name == "" {
			name = GlobalIdentifier(id)
			eb.logger.Warn(ctx, nil, "No global name for external module, guessing",
				"module", id, "global", name)
		}
		names[id] = name
		quoted = append(quoted, regexp.QuoteMeta(id))
	}
	sort.Strings(quoted)
	filter := "^(?:" + strings.Join(quoted, "|") + ")(?:/.*)?$"

	return api.Plugin{
		Name: "globals",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: filter},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{Path: args.Path, Namespace: "globals"}, nil
				})
			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: "globals"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					contents := fmt.Sprintf("module.exports = globalThis[%s];",
						strconv.Quote(names[moduleID(args.Path, names)]))
					return api.OnLoadResult{Contents: &contents, Loader: api.LoaderJS}, nil
				})
		},
	}
}

// moduleID maps an import path, possibly a subpath, to its external module.
func moduleID(path string, names map[string]string) string {
	if _, ok := names[path]; ok {
		return path
	}
	best := ""
	for id := range names {
		if strings.HasPrefix(path, id+"/") && len(id) > len(best) {
			best = id
		}
	}
	return best
}

// GlobalIdentifier turns a project or package name into a JavaScript
// identifier: "date-picker" becomes "datePicker", "@scope/ui" becomes
// "scopeUi". Dotted names are kept as member paths.
func GlobalIdentifier(name string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		parts[i] = identifierPart(part)
	}
	return strings.Join(parts, ".")
}

func identifierPart(s string) string {
	var b strings.Builder
	upper := false

	for _, r := range s {
		if r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			if upper && b.Len() > 0 {
				r = unicode.ToUpper(r)
			}
			b.WriteRune(r)
			upper = false
			continue
		}
		upper = true
	}

	id := b.String()
	if id == "" {
		return "_"
	}
	if unicode.IsDigit(rune(id[0])) {
		id = "_" + id
	}
	return id
}

// writeOutputFiles writes esbuild's in-memory outputs and returns their
// paths with primary first.
func writeOutputFiles(primary string, files []api.OutputFile) ([]string, error) {
	written := make([]string, 0, len(files))

	for _, f := range files {
		if err := os.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
			return written, errors.NewIOError(errors.ErrCodeWriteFailed, "cannot create output directory", err).
				WithFile(f.Path)
		}
		if err := os.WriteFile(f.Path, f.Contents, 0644); err != nil {
			return written, errors.NewIOError(errors.ErrCodeWriteFailed, "cannot write output", err).
				WithFile(f.Path)
		}
		written = append(written, f.Path)
	}

	sort.SliceStable(written, func(i, j int) bool {
		return written[i] == primary && written[j] != primary
	})

	return written, nil
}

func (eb *esbuildBundle) logAnalysis(ctx context.Context, outFile, workDir, metafile string) {
	meta, err := ParseMetafile(metafile)
	if err != nil {
		eb.logger.Debug(ctx, "Cannot parse metafile", "error", err.Error())
		return
	}

	if workDir == "" {
		workDir, _ = os.Getwd()
	}

	analysis := meta.Analyze(outFile, workDir)
	if analysis == nil {
		return
	}

	top := make([]string, 0, 5)
	for _, in := range analysis.Top(5) {
		top = append(top, fmt.Sprintf("%s (%.1f%%)", in.Path, in.Percentage))
	}

	eb.logger.Debug(ctx, "Bundle analysis",
		"output", outFile,
		"bytes", analysis.TotalBytes,
		"inputs", len(analysis.Inputs),
		"largest", top,
		"external", analysis.ExternalImports)
}
