// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"mvdan.cc/sh/v3/syntax"

	"github.com/offbyone/aws-cdk/internal/codegen"
	"github.com/offbyone/aws-cdk/internal/pipeline"
	"github.com/offbyone/aws-cdk/internal/transform"
)

type pipelineFunc func(context.Context, pipeline.Options) (*pipeline.Report, error)

func newRunCommand(app *App) *cobra.Command {
	var libRoot string
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Aggregate every module into the package",
		Long: `Aggregate every module into the package.

The run discovers the workspace modules, verifies the aggregate's dependency
declarations, copies each module into the package with its imports
rewritten, and regenerates index.ts, the export map and the rosetta
fixtures. A run that had to correct a manifest writes it back and exits
with status 4; commit the change and run again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runPipeline(cmd, pipeline.Run, libRoot, printRunSummary)
		},
	}
	runCmd.Flags().StringVar(&libRoot, "lib-root", "", "directory receiving the module copies (default is the package directory)")
	runCmd.Flags().Int("parallelism", transform.DefaultParallelism, "maximum number of files transformed at once")
	return runCmd
}

func newVerifyCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check and fix the aggregate's dependency declarations",
		Long: `Check and fix the aggregate's dependency declarations.

Corrected manifests are written back and reported with exit status 4.
Conflicting bundled dependency versions exit with status 3.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runPipeline(cmd, pipeline.Verify, "", printVerifySummary)
		},
	}
}

func newDiscoverCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "List the modules that would be aggregated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runPipeline(cmd, pipeline.Discover, "", printDiscovery)
		},
	}
}

func (app *App) runPipeline(cmd *cobra.Command, fn pipelineFunc, libRoot string, summarize func(io.Writer, *pipeline.Report, bool)) error {
	s, err := app.newSession(cmd)
	if err != nil {
		return err
	}

	report, err := fn(cmd.Context(), app.pipelineOptions(s, libRoot))
	if err != nil {
		code, id := classifyError(err)
		app.renderFailure(err, id)
		if code == ExitDrift && report != nil {
			fmt.Fprintf(app.stderr, "\n%s %s\n", SubtitleStyle.Render("After committing, re-run:"), CmdStyle.Render(rerunCommand(cmd, report.PackageDir)))
		}
		return &ExitError{Code: code}
	}

	summarize(app.stdout, report, app.flags.verbose)
	return nil
}

func (app *App) pipelineOptions(s *session, libRoot string) pipeline.Options {
	cfg := s.cfg
	opts := pipeline.Options{
		PackageDir:      s.packageDir,
		LibRoot:         libRoot,
		WorkspaceMarker: cfg.Workspace.Marker,
		ModulesDir:      cfg.Modules.Dir,
		Scope:           cfg.Modules.Scope,
		Foundational:    cfg.Modules.Foundational,
		FixturesDir:     cfg.Fixtures.Dir,
		MappingFile:     cfg.Files.Mapping,
		BindingsFile:    cfg.Files.Bindings,
		PythonPrefix:    cfg.Bindings.PythonPrefix,
		Ignore:          cfg.Files.Ignore,
		Parallelism:     int64(cfg.Transform.Parallelism),
		Generator:       codegen.Unconfigured(),
		Logger:          s.logger,
	}
	if cfg.Codegen.Command != "" {
		// stdout carries the summary
		opts.Generator = &codegen.ShellGenerator{
			Command: cfg.Codegen.Command,
			Stdout:  app.stderr,
			Stderr:  app.stderr,
		}
	}
	return opts
}

// rerunCommand renders the shell command repeating cmd for dir.
func rerunCommand(cmd *cobra.Command, dir string) string {
	quoted, err := syntax.Quote(dir, syntax.LangBash)
	if err != nil {
		quoted = strconv.Quote(dir)
	}
	return fmt.Sprintf("%s --package-dir %s", cmd.CommandPath(), quoted)
}

func printRunSummary(w io.Writer, r *pipeline.Report, verbose bool) {
	copied := 0
	for _, m := range r.Modules {
		if m.Copied {
			copied++
		}
	}
	fmt.Fprintf(w, "%s Aggregated %d module(s) into %s\n", SuccessStyle.Render(successIcon), copied, CmdStyle.Render(r.Aggregate))
	printCounts(w, [][2]string{
		{"Workspace", r.WorkspaceRoot},
		{"Files written", strconv.FormatInt(r.FilesWritten, 10)},
		{"Index statements", strconv.Itoa(r.IndexStatements)},
		{"Export entries", strconv.Itoa(r.ExportEntries)},
		{"Fixture files", strconv.Itoa(r.FixtureFiles)},
	})
	printSkipped(w, r)
	if verbose {
		fmt.Fprintf(w, "%s\n", VerboseStyle.Render("Completed in "+r.Duration.String()))
	}
}

func printVerifySummary(w io.Writer, r *pipeline.Report, verbose bool) {
	fmt.Fprintf(w, "%s Dependencies of %s are consistent across %d module(s)\n",
		SuccessStyle.Render(successIcon), CmdStyle.Render(r.Aggregate), len(r.Modules))
	printSkipped(w, r)
	if verbose {
		fmt.Fprintf(w, "%s\n", VerboseStyle.Render("Completed in "+r.Duration.String()))
	}
}

func printDiscovery(w io.Writer, r *pipeline.Report, verbose bool) {
	fmt.Fprintln(w, TitleStyle.Render("Modules of "+r.Aggregate))
	if verbose {
		fmt.Fprintf(w, "%s %s\n", SubtitleStyle.Render("Workspace:"), r.WorkspaceRoot)
	}
	width := 0
	for _, m := range r.Modules {
		width = max(width, len(m.Name))
	}
	for _, m := range r.Modules {
		fmt.Fprintf(w, "  %s  %s\n", CmdStyle.Render(fmt.Sprintf("%-*s", width, m.Name)), SubtitleStyle.Render("./"+m.ShortName))
	}
	printSkipped(w, r)
	fmt.Fprintf(w, "%s %d module(s), %d skipped\n", SuccessStyle.Render(successIcon), len(r.Modules), len(r.Skipped))
}

func printCounts(w io.Writer, rows [][2]string) {
	width := 0
	for _, row := range rows {
		width = max(width, len(row[0]))
	}
	for _, row := range rows {
		fmt.Fprintf(w, "  %s %s\n", SubtitleStyle.Render(fmt.Sprintf("%-*s", width+1, row[0]+":")), row[1])
	}
}

func printSkipped(w io.Writer, r *pipeline.Report) {
	for _, s := range r.Skipped {
		fmt.Fprintf(w, "  %s %s %s\n", WarningStyle.Render(warningIcon), s.Name, SubtitleStyle.Render("("+string(s.Reason)+")"))
	}
}
