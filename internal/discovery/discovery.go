// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/exp/slices"

	"github.com/offbyone/aws-cdk/pkg/manifest"
)

const (
	// DefaultModulesDir is the modules directory relative to the workspace root.
	DefaultModulesDir = "packages/@aws-cdk"
	// DefaultScope is the namespace prefix every module name carries.
	DefaultScope = "@aws-cdk"
	// DefaultFoundational is the short name of the module re-exported at the
	// aggregate's top level.
	DefaultFoundational = "core"

	// SkipExcluded means the module opted out via "ubergen.exclude".
	SkipExcluded SkipReason = "excluded"
	// SkipNoBindings means the module has no "jsii" block.
	SkipNoBindings SkipReason = "no_bindings"
	// SkipDeprecatedList means the aggregate lists the module as deprecated.
	SkipDeprecatedList SkipReason = "deprecated_list"
	// SkipDeprecated means the module marks itself deprecated.
	SkipDeprecated SkipReason = "deprecated"
)

// ErrMissingNamespace is returned when a module name lacks the scope prefix.
var ErrMissingNamespace = errors.New("module name is outside the namespace")

type (
	// SkipReason says why a module was left out of the aggregate.
	SkipReason string

	// Library is a module selected for aggregation.
	Library struct {
		// Manifest is the parsed module manifest.
		Manifest *manifest.Package
		// Root is the module directory.
		Root string
		// ShortName is the module name without the "<scope>/" prefix.
		ShortName string
	}

	// Skipped records a module that was left out.
	Skipped struct {
		Name   string
		Path   string
		Reason SkipReason
	}

	// MissingNamespaceError describes a module whose name lacks the scope prefix.
	MissingNamespaceError struct {
		Name  string
		Scope string
		Path  string
	}

	// Options controls where and how modules are discovered.
	Options struct {
		// WorkspaceRoot is the directory holding the workspace marker.
		WorkspaceRoot string
		// ModulesDir is relative to WorkspaceRoot. Defaults to DefaultModulesDir.
		ModulesDir string
		// Scope is the namespace prefix. Defaults to DefaultScope.
		Scope string
		// Logger receives skip decisions. Nil discards.
		Logger *log.Logger
	}

	// Result is the outcome of a discovery pass.
	Result struct {
		// Libraries are the selected modules in directory order.
		Libraries []*Library
		// Skipped are the modules that were left out, in directory order.
		Skipped []Skipped
	}
)

// Error implements the error interface.
func (e *MissingNamespaceError) Error() string {
	return fmt.Sprintf("module %q in %s does not start with %q", e.Name, e.Path, e.Scope+"/")
}

// Unwrap returns ErrMissingNamespace for errors.Is() compatibility.
func (e *MissingNamespaceError) Unwrap() error {
	return ErrMissingNamespace
}

// Name returns the full module name.
func (l *Library) Name() string {
	return l.Manifest.Name
}

// IdentifierName returns the short name with '-' replaced by '_', the form used
// for namespace re-exports and fixture directories.
func (l *Library) IdentifierName() string {
	return strings.ReplaceAll(l.ShortName, "-", "_")
}

// Discover enumerates the module directories and returns the modules eligible
// for aggregation. aggregate is the aggregate's own manifest; its
// "ubergen.deprecatedPackages" list, when present, replaces the modules' own
// deprecation markers as the deprecation criterion.
func Discover(aggregate *manifest.Package, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	modulesDir := opts.ModulesDir
	if modulesDir == "" {
		modulesDir = DefaultModulesDir
	}
	scope := opts.Scope
	if scope == "" {
		scope = DefaultScope
	}

	dir := filepath.Join(opts.WorkspaceRoot, filepath.FromSlash(modulesDir))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read modules directory %s: %w", dir, err)
	}

	deprecatedList := aggregate.Aggregation().DeprecatedPackages

	result := &Result{}
	for _, entry := range entries {
		if !entry.IsDir() {
			logger.Debug("Ignoring non-directory entry", "path", filepath.Join(dir, entry.Name()))
			continue
		}
		moduleRoot := filepath.Join(dir, entry.Name())
		manifestPath := filepath.Join(moduleRoot, manifest.FileName)
		if _, err := os.Stat(manifestPath); errors.Is(err, os.ErrNotExist) {
			logger.Debug("Ignoring directory without manifest", "path", moduleRoot)
			continue
		}

		pkg, err := manifest.Load(manifestPath)
		if err != nil {
			return nil, err
		}

		if reason, skip := skipReason(pkg, deprecatedList); skip {
			logger.Warn("Skipping module", "module", pkg.Name, "reason", reason)
			result.Skipped = append(result.Skipped, Skipped{Name: pkg.Name, Path: moduleRoot, Reason: reason})
			continue
		}

		short, err := ShortName(pkg.Name, scope)
		if err != nil {
			return nil, &MissingNamespaceError{Name: pkg.Name, Scope: scope, Path: manifestPath}
		}

		result.Libraries = append(result.Libraries, &Library{
			Manifest:  pkg,
			Root:      moduleRoot,
			ShortName: short,
		})
	}

	logger.Info("Discovered modules", "selected", len(result.Libraries), "skipped", len(result.Skipped))
	return result, nil
}

// ShortName strips the "<scope>/" prefix from name.
func ShortName(name, scope string) (string, error) {
	prefix := scope + "/"
	if !strings.HasPrefix(name, prefix) || len(name) == len(prefix) {
		return "", ErrMissingNamespace
	}
	return name[len(prefix):], nil
}

// skipReason applies the exclusion rules in order. A present (even empty)
// deprecated list on the aggregate means the module's own marker is ignored.
func skipReason(pkg *manifest.Package, deprecatedList []string) (SkipReason, bool) {
	if pkg.Aggregation().Exclude {
		return SkipExcluded, true
	}
	if pkg.JSII == nil {
		return SkipNoBindings, true
	}
	if deprecatedList != nil {
		if slices.Contains(deprecatedList, pkg.Name) {
			return SkipDeprecatedList, true
		}
		return "", false
	}
	if pkg.Deprecated {
		return SkipDeprecated, true
	}
	return "", false
}
