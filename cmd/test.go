package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/bundler/internal/browser"
	"github.com/conneroisu/bundler/internal/build"
	"github.com/conneroisu/bundler/internal/testenv"
)

var testCmd = &cobra.Command{
	Use:     "test <test-file>",
	Aliases: []string{"t"},
	Short:   "Bundle a browser test and open it in Chrome",
	Long: `Bundle the index module next to a test file into <test-dir>/build, write
an HTML page loading it, open the page in Chrome and print its title.

The test file path is relative to the workspace project root; its first
path segment names the project. A failed bundle is reported but the page is
still opened, so the failure shows up the way a test run would see it.

Examples:
  bundler test widgets/__tests__/box.test.ts
  bundler test widgets/__tests__/box.test.ts --headless=false --keep`,
	Args: cobra.ExactArgs(1),
	RunE: runTest,
}

var (
	testHeadless bool
	testKeep     bool
)

func init() {
	rootCmd.AddCommand(testCmd)

	testCmd.Flags().BoolVar(&testHeadless, "headless", true, "Run Chrome without a window")
	testCmd.Flags().BoolVar(&testKeep, "keep", false, "Wait for an interrupt before tearing down")
}

func runTest(cmd *cobra.Command, args []string) error {
	ws, logger, err := loadWorkspace()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	browserCfg := browser.Config{
		Headless: ws.Browser.Headless,
		Timeout:  ws.Browser.Timeout,
		Bin:      ws.Browser.Bin,
	}
	if cmd.Flags().Changed("headless") {
		browserCfg.Headless = testHeadless
	}

	session := browser.NewSession(browserCfg, logger)
	bundler := build.NewESBuild(build.NewTypeChecker(ws.TSC, logger), logger)
	env := testenv.New(ws, bundler, session, logger)

	result, setupErr := env.Setup(ctx, args[0])
	if result == nil {
		return setupErr
	}
	defer func() {
		if err := env.Teardown(context.Background()); err != nil {
			logger.Warn(context.Background(), err, "Teardown failed")
		}
	}()
	if setupErr != nil {
		return fmt.Errorf("failed to start browser: %w", setupErr)
	}

	out := cmd.OutOrStdout()
	if result.BundleErr != nil {
		fmt.Fprintf(out, "bundle failed: %v\n", result.BundleErr)
	}

	if err := session.Open(ctx, env.PageURL()); err != nil {
		return err
	}

	title, err := session.Title(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\n%s\n", env.PageURL(), title)

	if testKeep {
		<-ctx.Done()
	}

	if result.BundleErr != nil {
		return result.BundleErr
	}
	return nil
}
