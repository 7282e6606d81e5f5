// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/offbyone/aws-cdk/internal/bindings"
	"github.com/offbyone/aws-cdk/internal/codegen"
	"github.com/offbyone/aws-cdk/internal/depcheck"
	"github.com/offbyone/aws-cdk/internal/discovery"
	"github.com/offbyone/aws-cdk/internal/exports"
	"github.com/offbyone/aws-cdk/internal/fixtures"
	"github.com/offbyone/aws-cdk/internal/issue"
	"github.com/offbyone/aws-cdk/internal/rewrite"
	"github.com/offbyone/aws-cdk/internal/transform"
	"github.com/offbyone/aws-cdk/internal/workspace"
	"github.com/offbyone/aws-cdk/pkg/manifest"
)

var (
	// ErrManifestDrift is returned after the aggregate manifest was corrected
	// and written back.
	ErrManifestDrift = errors.New("fixed dependency inconsistencies; commit the updated package.json file")
	// ErrWorkspaceDrift is returned after the workspace manifest was corrected
	// and written back.
	ErrWorkspaceDrift = errors.New("updated the workspace configuration; re-run the workspace install and commit the changes")
	// ErrUnsafeLibRoot is returned when the library root contains the
	// aggregate package directory and clearing it would delete the package.
	ErrUnsafeLibRoot = errors.New("library root contains the aggregate package directory")
)

type (
	// Options configures a pipeline run. Zero values fall back to the
	// defaults of the package owning each setting.
	Options struct {
		// PackageDir is the aggregate package directory. Defaults to the
		// working directory.
		PackageDir string
		// LibRoot receives the module copies. Defaults to PackageDir.
		LibRoot string

		WorkspaceMarker string
		ModulesDir      string
		Scope           string
		Foundational    string
		FixturesDir     string
		MappingFile     string
		BindingsFile    string
		PythonPrefix    string
		Ignore          []string
		Parallelism     int64

		// Generator produces resource bindings for experimental modules.
		Generator codegen.Generator
		// Logger receives progress. Nil discards.
		Logger *log.Logger
	}

	// ModuleReport describes what happened to one module.
	ModuleReport struct {
		Name      string
		ShortName string
		// Copied is false when the module was reduced away entirely.
		Copied bool
	}

	// Report summarizes a run. It is returned, partially filled, alongside
	// drift errors so callers can show the corrections.
	Report struct {
		WorkspaceRoot string
		PackageDir    string
		Aggregate     string

		Modules []ModuleReport
		Skipped []discovery.Skipped

		AggregateCorrections []depcheck.Correction
		WorkspaceCorrections []depcheck.Correction

		FilesWritten    int64
		FixtureFiles    int
		ExportEntries   int
		IndexStatements int
		Duration        time.Duration
	}

	// run is the mutable state threaded through the phases. The aggregate
	// manifest is only persisted by persist.
	run struct {
		opts   Options
		logger *log.Logger
		report *Report

		aggregate *manifest.Package
		libraries []*discovery.Library
	}
)

// Discover locates the workspace, loads the aggregate manifest and selects the
// modules to aggregate. Nothing is written.
func Discover(ctx context.Context, opts Options) (*Report, error) {
	r, err := newRun(opts)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { r.report.Duration = time.Since(start) }()

	if err := r.discover(ctx); err != nil {
		return r.report, err
	}
	return r.report, nil
}

// Verify runs discovery and the dependency consistency check. Corrected
// manifests are written back and reported as drift errors.
func Verify(ctx context.Context, opts Options) (*Report, error) {
	r, err := newRun(opts)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { r.report.Duration = time.Since(start) }()

	if err := r.discover(ctx); err != nil {
		return r.report, err
	}
	if err := r.verify(ctx); err != nil {
		return r.report, err
	}
	return r.report, nil
}

// Run executes the whole pipeline: discovery, dependency verification, source
// transformation, fixture aggregation and manifest persistence.
func Run(ctx context.Context, opts Options) (*Report, error) {
	r, err := newRun(opts)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { r.report.Duration = time.Since(start) }()

	phases := []func(context.Context) error{
		r.discover,
		r.verify,
		r.prepareSources,
		r.combineFixtures,
		r.persist,
	}
	for _, phase := range phases {
		if err := ctx.Err(); err != nil {
			return r.report, err
		}
		if err := phase(ctx); err != nil {
			return r.report, err
		}
	}
	return r.report, nil
}

func newRun(opts Options) (*run, error) {
	if opts.PackageDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		opts.PackageDir = wd
	}
	abs, err := filepath.Abs(opts.PackageDir)
	if err != nil {
		return nil, err
	}
	opts.PackageDir = abs
	if opts.LibRoot == "" {
		opts.LibRoot = opts.PackageDir
	} else if opts.LibRoot, err = filepath.Abs(opts.LibRoot); err != nil {
		return nil, err
	}
	if opts.Scope == "" {
		opts.Scope = discovery.DefaultScope
	}
	if opts.Foundational == "" {
		opts.Foundational = discovery.DefaultFoundational
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &run{
		opts:   opts,
		logger: logger,
		report: &Report{PackageDir: opts.PackageDir},
	}, nil
}

func (r *run) discover(context.Context) error {
	root, err := workspace.FindRoot(r.opts.PackageDir, r.opts.WorkspaceMarker)
	if err != nil {
		return err
	}
	r.report.WorkspaceRoot = root
	r.logger.Info("Workspace root located", "path", root)

	if r.opts.LibRoot != r.opts.PackageDir && within(r.opts.LibRoot, r.opts.PackageDir) {
		return issue.NewErrorContext().
			WithOperation("check library root").
			WithResource(r.opts.LibRoot).
			WithSuggestion("Choose a library root inside the package directory, e.g. lib").
			WithSuggestion("Leave --lib-root unset to copy into the package directory").
			Wrap(ErrUnsafeLibRoot).
			BuildError()
	}

	manifestPath := filepath.Join(r.opts.PackageDir, manifest.FileName)
	aggregate, err := manifest.Load(manifestPath)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("load aggregate manifest").
			WithResource(manifestPath).
			WithSuggestion("Run ubergen from the aggregate package directory").
			WithSuggestion("Check that package.json is a valid JSON object").
			Wrap(err).
			BuildError()
	}
	r.aggregate = aggregate
	r.report.Aggregate = aggregate.Name

	result, err := discovery.Discover(aggregate, discovery.Options{
		WorkspaceRoot: root,
		ModulesDir:    r.opts.ModulesDir,
		Scope:         r.opts.Scope,
		Logger:        r.logger,
	})
	if err != nil {
		return err
	}
	r.libraries = result.Libraries
	r.report.Skipped = result.Skipped
	for _, lib := range result.Libraries {
		r.report.Modules = append(r.report.Modules, ModuleReport{Name: lib.Name(), ShortName: lib.ShortName})
	}
	return nil
}

func (r *run) verify(context.Context) error {
	r.logger.Info("Verifying dependencies are complete")

	wsPath := workspace.ManifestPath(r.report.WorkspaceRoot)
	ws, err := manifest.LoadWorkspace(wsPath)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("load workspace manifest").
			WithResource(wsPath).
			Wrap(err).
			BuildError()
	}

	result, err := depcheck.Verify(r.aggregate, ws, r.libraries)
	if err != nil {
		return err
	}
	r.report.AggregateCorrections = result.AggregateCorrections
	r.report.WorkspaceCorrections = result.WorkspaceCorrections
	for _, c := range result.WorkspaceCorrections {
		r.logger.Warn(c.String())
	}
	for _, c := range result.AggregateCorrections {
		r.logger.Warn(c.String())
	}

	var errs []error
	if result.WorkspaceChanged() {
		if err := result.Workspace.Save(); err != nil {
			return fmt.Errorf("write workspace manifest: %w", err)
		}
		r.logger.Error("Updated the workspace configuration", "path", wsPath)
		errs = append(errs, issue.NewErrorContext().
			WithOperation("verify workspace configuration").
			WithResource(wsPath).
			WithSuggestion("Re-run the workspace install (yarn install)").
			WithSuggestion("Commit the updated workspace package.json").
			Wrap(ErrWorkspaceDrift).
			BuildError())
	}
	if result.AggregateChanged() {
		if err := result.Aggregate.Save(); err != nil {
			return fmt.Errorf("write aggregate manifest: %w", err)
		}
		r.logger.Error("Fixed dependency inconsistencies", "path", result.Aggregate.Path)
		errs = append(errs, issue.NewErrorContext().
			WithOperation("verify aggregate dependencies").
			WithResource(result.Aggregate.Path).
			WithSuggestion("Commit the updated package.json file").
			WithSuggestion("Run ubergen again").
			Wrap(ErrManifestDrift).
			BuildError())
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	r.aggregate = result.Aggregate
	r.logger.Info("Dependencies are correct")
	return nil
}

func (r *run) prepareSources(ctx context.Context) error {
	r.logger.Info("Preparing source files")

	aggregation := r.aggregate.Aggregation()
	if aggregation.ExcludeExperimentalModules {
		r.logger.Info("Experimental modules are reduced to their generated resource bindings")
	}

	if err := r.clearLibRoot(); err != nil {
		return err
	}

	var aggregateTargets *bindings.Targets
	if r.aggregate.JSII != nil {
		aggregateTargets = r.aggregate.JSII.Targets
	}
	rules := transform.NewRules(r.opts.Ignore, r.opts.MappingFile)
	tr, err := transform.New(transform.Options{
		LibRoot:             r.opts.LibRoot,
		AggregateName:       r.aggregate.Name,
		Scope:               r.opts.Scope,
		Foundational:        r.opts.Foundational,
		Libraries:           r.libraries,
		Rules:               &rules,
		Parallelism:         r.opts.Parallelism,
		ExcludeExperimental: aggregation.ExcludeExperimentalModules,
		Generator:           r.opts.Generator,
		Bindings:            bindings.Translator{PythonPrefix: r.opts.PythonPrefix, FileName: r.opts.BindingsFile},
		AggregateTargets:    aggregateTargets,
		Logger:              r.logger,
	})
	if err != nil {
		return err
	}

	exportMap := exports.NewBase()
	var statements []string
	for i, lib := range r.libraries {
		if err := ctx.Err(); err != nil {
			return err
		}
		dest := filepath.Join(r.opts.LibRoot, lib.ShortName)
		if err := os.RemoveAll(dest); err != nil {
			return fmt.Errorf("remove %s: %w", dest, err)
		}

		r.logger.Debug("Transforming module", "module", lib.Name(), "dest", dest)
		copied, err := tr.Package(ctx, lib, dest)
		if err != nil {
			return fmt.Errorf("transform %s: %w", lib.Name(), err)
		}
		r.report.Modules[i].Copied = copied
		if !copied {
			continue
		}

		if lib.ShortName == r.opts.Foundational {
			statements = append(statements, fmt.Sprintf("export * from './%s';", lib.ShortName))
			continue
		}
		statements = append(statements, fmt.Sprintf("export * as %s from './%s';", lib.IdentifierName(), lib.ShortName))
		exports.CopySubmodule(exportMap, lib)
	}

	if err := os.MkdirAll(r.opts.LibRoot, 0o755); err != nil {
		return err
	}
	index := filepath.Join(r.opts.LibRoot, transform.IndexName)
	if err := os.WriteFile(index, []byte(strings.Join(statements, "\n")), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", index, err)
	}

	r.aggregate.Exports = exportMap
	r.report.FilesWritten = tr.FilesWritten() + 1
	r.report.ExportEntries = exportMap.Len()
	r.report.IndexStatements = len(statements)
	r.logger.Info("Source files prepared", "modules", len(statements), "files", r.report.FilesWritten)
	return nil
}

// clearLibRoot removes a separate library root. The package directory and any
// root holding the working directory are kept; their module copies are
// replaced one by one.
func (r *run) clearLibRoot() error {
	if r.opts.LibRoot == r.opts.PackageDir {
		return nil
	}
	if wd, err := os.Getwd(); err == nil && within(r.opts.LibRoot, wd) {
		r.logger.Debug("Keeping library root that holds the working directory", "path", r.opts.LibRoot)
		return nil
	}
	if err := os.RemoveAll(r.opts.LibRoot); err != nil {
		return fmt.Errorf("remove %s: %w", r.opts.LibRoot, err)
	}
	return nil
}

// within reports whether path is dir or lies below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (r *run) combineFixtures(context.Context) error {
	r.logger.Info("Combining documentation fixtures")

	result, err := fixtures.Combine(r.libraries, fixtures.Options{
		PackageRoot:  r.opts.PackageDir,
		Dir:          r.opts.FixturesDir,
		Foundational: r.opts.Foundational,
		Resolver:     rewrite.NewExternal(r.aggregate.Name, r.opts.Foundational, r.libraries),
		Logger:       r.logger,
	})
	if err != nil {
		return fmt.Errorf("combine fixtures: %w", err)
	}
	r.report.FixtureFiles = result.Files
	r.logger.Info("Fixtures combined", "files", result.Files, "modules", result.Modules)
	return nil
}

func (r *run) persist(context.Context) error {
	if err := r.aggregate.Save(); err != nil {
		return fmt.Errorf("write aggregate manifest: %w", err)
	}
	r.logger.Info("Aggregate manifest written", "path", r.aggregate.Path)
	return nil
}
