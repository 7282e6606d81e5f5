// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/offbyone/aws-cdk/internal/config"
	"github.com/offbyone/aws-cdk/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives an App and loads configuration through its provider.
	App struct {
		Config config.Provider
		stdout io.Writer
		stderr io.Writer
		flags  rootFlags
	}

	rootFlags struct {
		configPath string
		packageDir string
		logLevel   string
		verbose    bool
	}

	// session is the per-command state derived from the loaded configuration.
	session struct {
		cfg        *config.Config
		configPath string
		packageDir string
		logger     *log.Logger
	}
)

// NewApp creates an App writing to the given streams. Nil streams fall back
// to the process streams.
func NewApp(stdout, stderr io.Writer) *App {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &App{
		Config: config.NewProvider(),
		stdout: stdout,
		stderr: stderr,
	}
}

// NewRootCommand creates the ubergen command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ubergen",
		Short: "Aggregate the modules of a monorepo into one package",
		Long: TitleStyle.Render("ubergen") + SubtitleStyle.Render(" - aggregate monorepo modules into one package") + `

ubergen runs from the aggregate package directory of a workspace. It
discovers the scoped modules of the workspace, checks that the aggregate
declares and bundles their dependencies consistently, copies every module
into the aggregate with its imports rewritten, and regenerates the
aggregate's index, export map and documentation fixtures.

` + SubtitleStyle.Render("Configuration:") + `
  ubergen.cue or ubergen.toml in the package directory, a .env file next
  to it, then UBERGEN_* environment variables, then flags.

` + SubtitleStyle.Render("Examples:") + `
  ubergen run                     Aggregate the package in the current directory
  ubergen verify                  Only check and fix dependency declarations
  ubergen discover                List the modules that would be aggregated
  ubergen config show             Show the effective configuration`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.flags.configPath, "config", "", "config file (default is ubergen.cue or ubergen.toml in the package directory)")
	rootCmd.PersistentFlags().StringVarP(&app.flags.packageDir, "package-dir", "C", ".", "aggregate package directory")
	rootCmd.PersistentFlags().StringVar(&app.flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newRunCommand(app))
	rootCmd.AddCommand(newVerifyCommand(app))
	rootCmd.AddCommand(newDiscoverCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Main runs the CLI against the process arguments and returns the exit code.
func Main() int {
	app := NewApp(os.Stdout, os.Stderr)
	err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitGeneric
}

// Execute runs the CLI and exits the process. It is called by main.main().
func Execute() {
	os.Exit(Main())
}

// newSession loads the configuration for one command invocation. Flags that
// were set explicitly override every other configuration source.
func (app *App) newSession(cmd *cobra.Command) (*session, error) {
	overrides := map[string]any{}
	if cmd.Flags().Changed("log-level") {
		overrides["log.level"] = app.flags.logLevel
	}
	if cmd.Flags().Lookup("parallelism") != nil && cmd.Flags().Changed("parallelism") {
		n, _ := cmd.Flags().GetInt("parallelism")
		overrides["transform.parallelism"] = n
	}

	cfg, path, err := app.Config.Load(cmd.Context(), config.LoadOptions{
		ConfigFilePath: app.flags.configPath,
		Dir:            app.flags.packageDir,
		Overrides:      overrides,
	})
	if err != nil {
		app.renderFailure(err, issue.ConfigLoadFailedId)
		return nil, &ExitError{Code: ExitConfig}
	}

	logger := log.NewWithOptions(app.stderr, log.Options{
		Prefix: config.AppName,
		Level:  cfg.Log.Level.Level(),
	})
	if app.flags.verbose && cfg.Log.Level.Level() > log.DebugLevel {
		logger.SetLevel(log.DebugLevel)
	}
	if path != "" {
		logger.Debug("Loaded configuration", "path", path)
	}
	return &session{
		cfg:        cfg,
		configPath: path,
		packageDir: app.flags.packageDir,
		logger:     logger,
	}, nil
}

// renderFailure prints err to stderr. In verbose mode the catalog entry for
// id follows the error chain.
func (app *App) renderFailure(err error, id issue.Id) {
	fmt.Fprintf(app.stderr, "%s %s\n", ErrorStyle.Render(errorIcon), formatErrorForDisplay(err, app.flags.verbose))
	if !app.flags.verbose || id == 0 {
		return
	}
	if entry := issue.Get(id); entry != nil {
		rendered, renderErr := entry.Render("dark")
		if renderErr != nil {
			fmt.Fprintf(app.stderr, "%s failed to render issue %d: %v\n", WarningStyle.Render(warningIcon), id, renderErr)
			return
		}
		fmt.Fprint(app.stderr, rendered)
	}
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// use their Format method; joined errors are formatted one per paragraph.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	if ae, ok := err.(*issue.ActionableError); ok {
		return ae.Format(verboseMode)
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		parts := make([]string, 0, len(joined.Unwrap()))
		for _, e := range joined.Unwrap() {
			parts = append(parts, formatErrorForDisplay(e, verboseMode))
		}
		return strings.Join(parts, "\n\n")
	}
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
