package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/bundler/internal/build"
	"github.com/conneroisu/bundler/internal/config"
	"github.com/conneroisu/bundler/internal/logging"
)

var buildCmd = &cobra.Command{
	Use:     "build <project>...",
	Aliases: []string{"b"},
	Short:   "Build one or more projects",
	Long: `Build projects found under the workspace project root.

Each project is built into a legacy bundle (<file>.js) exposing a global and,
unless disabled, a modern ES module bundle (<file>.esm.js). Both get a
minified sibling unless --no-min is given. TypeScript projects are type
checked and emit declarations into the types directory.

Examples:
  bundler build widgets                   # Build ./widgets
  bundler build widgets charts            # Build several projects in order
  bundler build widgets --no-esm --no-min # Legacy bundle only
  bundler build widgets --mode development`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBuild,
}

var (
	buildDist        string
	buildSilent      bool
	buildFast        bool
	buildNoCheck     bool
	buildMode        string
	buildNoMin       bool
	buildNoESM       bool
	buildNoSourcemap bool
	buildNoTypes     bool
)

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&buildDist, "dist", "o", "", "Output directory (default from project settings)")
	buildCmd.Flags().BoolVar(&buildNoMin, "no-min", false, "Skip minified siblings")
	buildCmd.Flags().BoolVar(&buildNoESM, "no-esm", false, "Skip the ES module bundle")
	buildCmd.Flags().BoolVar(&buildNoSourcemap, "no-sourcemap", false, "Skip source maps")
	buildCmd.Flags().BoolVar(&buildNoTypes, "no-types", false, "Skip type declarations")
	buildCmd.Flags().BoolVarP(&buildSilent, "silent", "s", false, "Do not print the resolved configuration")
	buildCmd.Flags().BoolVar(&buildFast, "fast", false, "Skip bundle analysis")
	buildCmd.Flags().BoolVar(&buildNoCheck, "no-check", false, "Skip type checking")
	buildCmd.Flags().StringVar(&buildMode, "mode", "", "Build mode exposed as process.env.NODE_ENV (default from NODE_ENV, else production)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	ws, logger, err := loadWorkspace()
	if err != nil {
		return err
	}

	mode := buildMode
	if mode == "" {
		mode = ws.Mode
	}

	opts := build.PlanOptions{
		Overrides: overridesFromFlags(cmd.Flags()),
		Silent:    buildSilent,
		Fast:      buildFast,
		Check:     !buildNoCheck,
		Mode:      mode,
	}

	return buildProjects(cmd.Context(), ws, logger, args, opts)
}

// buildProjects builds each project in order and stops at the first failure.
func buildProjects(ctx context.Context, ws *config.Workspace, logger logging.Logger, projects []string, opts build.PlanOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	planner := build.NewPlanner(config.NewLoader(ws, logger), logger)
	runner := build.NewRunner(build.NewESBuild(build.NewTypeChecker(ws.TSC, logger), logger), logger)

	start := time.Now()
	for _, id := range projects {
		units, err := planner.Plan(ctx, id, opts)
		if err != nil {
			return err
		}

		results, err := runner.Run(ctx, units)
		if err != nil {
			return err
		}

		if !opts.Silent {
			for _, r := range results {
				logger.Info(ctx, "Wrote output", "project", id, "file", r.OutputFile, "files", len(r.Files))
			}
		}
	}

	metrics := runner.Metrics()
	logger.Info(ctx, "Build completed",
		"projects", len(projects),
		"units", metrics.TotalUnits,
		"outputs", metrics.Outputs,
		"files", metrics.Files,
		"duration", time.Since(start).Round(time.Millisecond).String())

	return nil
}
