// SPDX-License-Identifier: MPL-2.0

// Package fixtures combines the documentation-example fixtures of every
// aggregated module into the aggregate's own fixture directory.
package fixtures

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/offbyone/aws-cdk/internal/discovery"
	"github.com/offbyone/aws-cdk/internal/rewrite"
)

// DefaultDir is the fixture directory name, both in modules and in the aggregate.
const DefaultDir = "rosetta"

type (
	// Options configures Combine.
	Options struct {
		// PackageRoot is the aggregate package directory.
		PackageRoot string
		// Dir is the fixture directory name. Defaults to DefaultDir.
		Dir string
		// Foundational is the short name of the module whose fixtures land at
		// the top of the fixture directory. Defaults to discovery.DefaultFoundational.
		Foundational string
		// Resolver rewrites module specifiers to their public aggregate form.
		Resolver rewrite.Resolver
		// Logger receives skipped entries at debug level. Nil discards.
		Logger *log.Logger
	}

	// Result summarizes a Combine run.
	Result struct {
		// Files is the number of fixture files written.
		Files int
		// Modules is the number of modules that contributed fixtures.
		Modules int
	}
)

// Combine deletes and recreates <PackageRoot>/<Dir> and copies in the fixture
// files of libs. The foundational module's fixtures go to the top level,
// every other module's to a sub-directory named after its identifier name.
// Nested directories inside a module's fixture directory are not copied.
func Combine(libs []*discovery.Library, opts Options) (*Result, error) {
	if opts.Dir == "" {
		opts.Dir = DefaultDir
	}
	if opts.Foundational == "" {
		opts.Foundational = discovery.DefaultFoundational
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	target := filepath.Join(opts.PackageRoot, opts.Dir)
	if err := os.RemoveAll(target); err != nil {
		return nil, fmt.Errorf("remove %s: %w", target, err)
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return nil, err
	}

	result := &Result{}
	for _, lib := range libs {
		source := filepath.Join(lib.Root, opts.Dir)
		entries, err := os.ReadDir(source)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}

		dest := target
		if lib.ShortName != opts.Foundational {
			dest = filepath.Join(target, lib.IdentifierName())
		}
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return nil, err
		}

		for _, e := range entries {
			if e.IsDir() {
				logger.Debug("Skipping nested fixture directory", "module", lib.Name(), "dir", e.Name())
				continue
			}
			data, err := os.ReadFile(filepath.Join(source, e.Name()))
			if err != nil {
				return nil, err
			}
			out := data
			if opts.Resolver != nil {
				out = []byte(rewrite.Imports(string(data), opts.Resolver))
			}
			if err := os.WriteFile(filepath.Join(dest, e.Name()), out, 0o644); err != nil {
				return nil, err
			}
			result.Files++
		}
		result.Modules++
	}
	return result, nil
}
