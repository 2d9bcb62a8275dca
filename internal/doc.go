// Package internal contains the core implementation packages for the bundler.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - config: Workspace settings, per-project build configuration and its validation
//   - paths: Resolution of project-relative paths and extensionless entries
//   - pipeline: Stage model and assembly of ordered stage lists
//   - build: Build units, output variants, lifecycle stages, esbuild and tsc
//   - htmlgen: HTML page generation for written outputs
//   - testenv: Per-test bundling environment
//   - browser: Chrome session used by the test environment
//   - errors, logging, validation: Structured errors, slog logging and input checks
//
// # Data Flow
//
// A build flows through the packages in one direction:
//
//   - config.Loader merges defaults, the project identity, the settings file and overrides
//   - build.Planner turns the project into one unit per module format
//   - pipeline.Assemble parameterizes the configured stages of each unit
//   - build.Runner executes units and outputs strictly in order, firing stage hooks
//
// The test environment runs the same flow with fixed overrides and a custom
// stage list, then starts a browser session on the generated page.
//
// # Security Considerations
//
//   - Type checker commands are allowlisted and their arguments checked for shell metacharacters
//   - Output file names are validated before anything is written
//   - Only file and http(s) URLs are opened in the browser
//
// For detailed documentation, see the individual package documentation.
package internal
