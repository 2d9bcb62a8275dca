package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/bundler/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect project build configuration",
	Long: `Inspect the build configuration of projects.

Examples:
  bundler config show widgets              # Show the resolved configuration
  bundler config show widgets --no-esm     # Show it with overrides applied`,
}

var configShowCmd = &cobra.Command{
	Use:   "show <project>",
	Short: "Show the resolved build configuration",
	Long: `Display the build configuration of a project after merging defaults,
the project identity, its build.config settings file and command-line
overrides, followed by any validation warnings.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)

	configShowCmd.Flags().StringP("dist", "o", "", "Output directory override")
	configShowCmd.Flags().Bool("no-min", false, "Skip minified siblings")
	configShowCmd.Flags().Bool("no-esm", false, "Skip the ES module bundle")
	configShowCmd.Flags().Bool("no-sourcemap", false, "Skip source maps")
	configShowCmd.Flags().Bool("no-types", false, "Skip type declarations")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	ws, logger, err := loadWorkspace()
	if err != nil {
		return err
	}

	project, err := config.NewLoader(ws, logger).Load(args[0], overridesFromFlags(cmd.Flags()))
	if err != nil {
		return err
	}

	return printProject(cmd.OutOrStdout(), project)
}

func printProject(w io.Writer, project *config.Project) error {
	fmt.Fprintf(w, "# project: %s\n", project.ID)
	if project.SettingsFile != "" {
		fmt.Fprintf(w, "# settings: %s\n", project.SettingsFile)
	}
	fmt.Fprintf(w, "# typescript: %t\n", project.TypeChecked())
	if ids := project.Manifest.ExternalIDs(); len(ids) > 0 {
		fmt.Fprintf(w, "# external: %v\n", ids)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(project.Config); err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}

	// Warnings are written as comments so the output stays valid YAML.
	if result := config.ValidateBuildConfig(&project.Config); result.HasWarnings() {
		for _, line := range strings.Split(strings.TrimRight(result.String(), "\n"), "\n") {
			fmt.Fprintf(w, "# %s\n", line)
		}
	}

	return nil
}
