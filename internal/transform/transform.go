// SPDX-License-Identifier: MPL-2.0

package transform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/offbyone/aws-cdk/internal/bindings"
	"github.com/offbyone/aws-cdk/internal/codegen"
	"github.com/offbyone/aws-cdk/internal/discovery"
	"github.com/offbyone/aws-cdk/internal/rewrite"
)

// DefaultParallelism bounds the number of files transformed at once.
const DefaultParallelism = 16

// IndexName is the entry point written into every module directory.
const IndexName = "index.ts"

// ErrMissingTypes is returned for a module without a "types" entry point.
var ErrMissingTypes = errors.New(`module manifest has no "types" entry`)

var typesSuffix = regexp.MustCompile(`(/index)?(\.d)?\.ts$`)

type (
	// Handler applies the treatment of one FileKind. src and dst are full
	// paths; they are equal when a tree is transformed in place.
	Handler interface {
		Directory(ctx context.Context, src, dst string) error
		Source(ctx context.Context, src, dst string) error
		MappingFile(ctx context.Context, src, dst string) error
		Readme(ctx context.Context, src, dst string) error
		Opaque(ctx context.Context, src, dst string) error
	}

	// Options configures a Transformer.
	Options struct {
		// LibRoot is the aggregate directory modules are copied into.
		LibRoot string
		// AggregateName is the aggregate package name.
		AggregateName string
		// Scope is the namespace prefix of module names.
		Scope string
		// Foundational is the short name of the top-level module.
		Foundational string
		// Libraries are all modules being aggregated.
		Libraries []*discovery.Library
		// Rules classify tree entries. Zero value means DefaultRules.
		Rules *Rules
		// Parallelism bounds concurrent file work. Zero means DefaultParallelism.
		Parallelism int64
		// ExcludeExperimental reduces experimental modules to generated bindings.
		ExcludeExperimental bool
		// Generator produces generated bindings. Nil means codegen.Unconfigured.
		Generator codegen.Generator
		// Bindings translates binding targets for the side-files.
		Bindings bindings.Translator
		// AggregateTargets are the aggregate's own binding targets.
		AggregateTargets *bindings.Targets
		// Logger receives per-file decisions at debug level. Nil discards.
		Logger *log.Logger
	}

	// Transformer copies module trees into the aggregate. It is safe for
	// concurrent use across modules, though the pipeline runs modules in order.
	Transformer struct {
		opts     Options
		rules    Rules
		handler  Handler
		relative *rewrite.Relative
		external *rewrite.External
		sem      *semaphore.Weighted
		logger   *log.Logger

		filesWritten atomic.Int64
	}
)

// New returns a Transformer for opts.
func New(opts Options) (*Transformer, error) {
	relative, err := rewrite.NewRelative(opts.LibRoot, opts.Libraries)
	if err != nil {
		return nil, fmt.Errorf("create import resolver: %w", err)
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = DefaultParallelism
	}
	if opts.Generator == nil {
		opts.Generator = codegen.Unconfigured()
	}
	if opts.Foundational == "" {
		opts.Foundational = discovery.DefaultFoundational
	}
	if opts.Scope == "" {
		opts.Scope = discovery.DefaultScope
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	rules := DefaultRules()
	if opts.Rules != nil {
		rules = *opts.Rules
	}

	t := &Transformer{
		opts:     opts,
		rules:    rules,
		relative: relative,
		external: rewrite.NewExternal(opts.AggregateName, opts.Foundational, opts.Libraries),
		sem:      semaphore.NewWeighted(opts.Parallelism),
		logger:   logger,
	}
	t.handler = fileHandler{t: t}
	return t, nil
}

// FilesWritten returns the number of files written so far.
func (t *Transformer) FilesWritten() int64 {
	return t.filesWritten.Load()
}

// Package copies lib into dest and writes its index and binding side-file.
// It returns false when the module is reduced away entirely: experimental
// stripping is on and the module declares no generation scopes.
func (t *Transformer) Package(ctx context.Context, lib *discovery.Library, dest string) (bool, error) {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return false, err
	}

	pkg := lib.Manifest
	if t.opts.ExcludeExperimental && pkg.IsExperimental() {
		scopes := pkg.GenerationScopes()
		if len(scopes) == 0 {
			t.logger.Warn("Dropping experimental module without generated bindings", "module", pkg.Name)
			return false, nil
		}
		t.logger.Info("Reducing experimental module to generated bindings", "module", pkg.Name, "scopes", scopes)
		if err := t.generate(ctx, lib, scopes, dest); err != nil {
			return false, err
		}
		if err := t.Tree(ctx, dest, dest); err != nil {
			return false, err
		}
	} else {
		if err := t.Tree(ctx, lib.Root, dest); err != nil {
			return false, err
		}
	}

	if pkg.Types == "" {
		return false, fmt.Errorf("%s: %w", pkg.Name, ErrMissingTypes)
	}
	index := fmt.Sprintf("export * from './%s';\n", typesSuffix.ReplaceAllString(pkg.Types, ""))
	if err := t.writeFile(filepath.Join(dest, IndexName), []byte(index), 0o644); err != nil {
		return false, err
	}

	if lib.ShortName != t.opts.Foundational {
		var targets *bindings.Targets
		if pkg.JSII != nil {
			targets = pkg.JSII.Targets
		}
		if err := t.opts.Bindings.Write(dest, t.opts.AggregateTargets, targets); err != nil {
			return false, fmt.Errorf("%s: %w", pkg.Name, err)
		}
		t.filesWritten.Add(1)
	}
	return true, nil
}

func (t *Transformer) generate(ctx context.Context, lib *discovery.Library, scopes []string, dest string) error {
	destLib := filepath.Join(dest, "lib")
	if err := os.MkdirAll(destLib, 0o755); err != nil {
		return err
	}
	if err := t.opts.Generator.Generate(ctx, scopes, destLib); err != nil {
		return fmt.Errorf("generate bindings for %s: %w", lib.Name(), err)
	}
	index, err := codegen.IndexSource(scopes)
	if err != nil {
		return err
	}
	if err := t.writeFile(filepath.Join(destLib, IndexName), []byte(index), 0o644); err != nil {
		return err
	}
	return codegen.WriteReadmeStub(filepath.Join(dest, ReadmeName), scopes[0], lib.Name())
}

// Tree transforms every entry of from into to. Entries of one directory are
// handled concurrently and joined before Tree returns; the first error
// cancels the rest.
func (t *Transformer) Tree(ctx context.Context, from, to string) error {
	entries, err := os.ReadDir(from)
	if err != nil {
		return err
	}
	names := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		names[e.Name()] = struct{}{}
	}
	hasSibling := func(name string) bool {
		_, ok := names[name]
		return ok
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, e := range entries {
		entry := Entry{Name: e.Name(), IsDir: e.IsDir(), Symlink: e.Type()&os.ModeSymlink != 0}
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			src := filepath.Join(from, entry.Name)
			dst := filepath.Join(to, entry.Name)
			kind := t.rules.Classify(entry, hasSibling)
			t.logger.Debug("Classified entry", "path", src, "kind", kind)
			return t.dispatch(gctx, kind, src, dst)
		})
	}
	return g.Wait()
}

func (t *Transformer) dispatch(ctx context.Context, kind FileKind, src, dst string) error {
	switch kind {
	case KindSkip:
		return nil
	case KindDirectory:
		return t.handler.Directory(ctx, src, dst)
	}

	if err := t.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer t.sem.Release(1)

	switch kind {
	case KindSource:
		return t.handler.Source(ctx, src, dst)
	case KindMappingFile:
		return t.handler.MappingFile(ctx, src, dst)
	case KindReadme:
		return t.handler.Readme(ctx, src, dst)
	default:
		return t.handler.Opaque(ctx, src, dst)
	}
}

func (t *Transformer) writeFile(path string, data []byte, perm os.FileMode) error {
	if err := os.WriteFile(path, data, perm); err != nil {
		return err
	}
	t.filesWritten.Add(1)
	return nil
}
