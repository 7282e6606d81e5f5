// SPDX-License-Identifier: MPL-2.0

package depcheck

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/exp/slices"

	"github.com/offbyone/aws-cdk/internal/discovery"
	"github.com/offbyone/aws-cdk/pkg/manifest"
)

// AnyVersion is the version recorded for a bundled dependency no module pins.
const AnyVersion = "*"

const (
	// ModuleMissing: a module was absent from the aggregate's devDependencies.
	ModuleMissing CorrectionKind = "module_missing"
	// ModuleVersion: a module was listed at the wrong version.
	ModuleVersion CorrectionKind = "module_version"
	// NohoistMissing: a bundled dependency was hoistable in the workspace.
	NohoistMissing CorrectionKind = "nohoist_missing"
	// BundleMissing: a bundled dependency was absent from bundledDependencies.
	BundleMissing CorrectionKind = "bundle_missing"
	// DependencyPin: the aggregate's dependencies entry was missing or wrong.
	DependencyPin CorrectionKind = "dependency_pin"
	// BundleSpurious: a bundledDependencies entry no module requires any more.
	BundleSpurious CorrectionKind = "bundle_spurious"
)

// ErrBundleConflict is returned when modules bundle different versions of one dependency.
var ErrBundleConflict = errors.New("conflicting bundled dependency versions")

type (
	// CorrectionKind classifies a Correction.
	CorrectionKind string

	// Correction is one fix applied to the aggregate or workspace manifest.
	Correction struct {
		Kind CorrectionKind
		// Name is the module or dependency (or nohoist entry) concerned.
		Name string
		// Expected is the value after the fix; empty for removals.
		Expected string
		// Found is the value before the fix; empty when it was missing.
		Found string
	}

	// ConflictError reports two different required versions of one bundled dependency.
	ConflictError struct {
		Name   string
		First  string
		Second string
	}

	// Result is the outcome of Verify. Aggregate and Workspace are corrected
	// copies; the inputs are never modified.
	Result struct {
		Aggregate *manifest.Package
		Workspace *manifest.Workspace

		// Bundled maps each bundled dependency to its required version.
		Bundled map[string]string

		AggregateCorrections []Correction
		WorkspaceCorrections []Correction
	}
)

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("Required to bundle different versions of %s: %s and %s.", e.Name, e.First, e.Second)
}

// Unwrap returns ErrBundleConflict for errors.Is() compatibility.
func (e *ConflictError) Unwrap() error {
	return ErrBundleConflict
}

func (c Correction) String() string {
	switch c.Kind {
	case ModuleMissing:
		return fmt.Sprintf("Missing dependency: %s", c.Name)
	case ModuleVersion:
		return fmt.Sprintf("Incorrect dependency: %s (expected %s, found %s)", c.Name, c.Expected, c.Found)
	case NohoistMissing:
		return fmt.Sprintf("Missing workspace nohoist: %s", c.Name)
	case BundleMissing:
		return fmt.Sprintf("Missing bundled dependency: %s at %s", c.Name, c.Expected)
	case DependencyPin:
		return fmt.Sprintf("Missing or incorrect dependency: %s at %s", c.Name, c.Expected)
	case BundleSpurious:
		return fmt.Sprintf("Spurious bundled dependency: %s", c.Name)
	default:
		return fmt.Sprintf("%s: %s", c.Kind, c.Name)
	}
}

// AggregateChanged reports whether the aggregate manifest needs to be persisted.
func (r *Result) AggregateChanged() bool {
	return len(r.AggregateCorrections) > 0
}

// WorkspaceChanged reports whether the workspace manifest needs to be persisted.
func (r *Result) WorkspaceChanged() bool {
	return len(r.WorkspaceCorrections) > 0
}

// Verify checks that the aggregate declares every module at its current
// version and every bundled third-party dependency consistently, and returns
// corrected copies of the aggregate and workspace manifests along with the
// corrections applied.
func Verify(aggregate *manifest.Package, workspace *manifest.Workspace, libs []*discovery.Library) (*Result, error) {
	agg := aggregate.Clone()
	ws := workspace.Clone()
	res := &Result{Aggregate: agg, Workspace: ws, Bundled: make(map[string]string)}

	for _, lib := range libs {
		if err := collectBundled(res.Bundled, lib.Manifest); err != nil {
			return nil, err
		}

		name, version := lib.Manifest.Name, lib.Manifest.Version
		if existing, ok := agg.DevDependencies.Get(name); ok {
			if existing != version {
				agg.DevDependencies.Set(name, version)
				res.AggregateCorrections = append(res.AggregateCorrections, Correction{
					Kind: ModuleVersion, Name: name, Expected: version, Found: existing,
				})
			}
			continue
		}
		if agg.DevDependencies == nil {
			agg.DevDependencies = manifest.NewDependencies()
		}
		agg.DevDependencies.Set(name, version)
		agg.DevDependencies.SortKeys()
		res.AggregateCorrections = append(res.AggregateCorrections, Correction{
			Kind: ModuleMissing, Name: name, Expected: version,
		})
	}

	spurious := make(map[string]struct{}, len(agg.BundledDependencies))
	for _, name := range agg.BundledDependencies {
		spurious[name] = struct{}{}
	}

	for _, name := range sortedKeys(res.Bundled) {
		version := res.Bundled[name]
		delete(spurious, name)

		nohoist := agg.Name + "/" + name
		if !ws.HasNohoist(nohoist) {
			ws.Nohoist = dedupeSorted(append(ws.Nohoist, nohoist, nohoist+"/**"))
			res.WorkspaceCorrections = append(res.WorkspaceCorrections, Correction{
				Kind: NohoistMissing, Name: nohoist, Expected: nohoist,
			})
		}

		if !slices.Contains(agg.BundledDependencies, name) {
			agg.BundledDependencies = append(agg.BundledDependencies, name)
			slices.Sort(agg.BundledDependencies)
			res.AggregateCorrections = append(res.AggregateCorrections, Correction{
				Kind: BundleMissing, Name: name, Expected: version,
			})
		}

		found, ok := agg.Dependencies.Get(name)
		if !ok || found != version {
			if agg.Dependencies == nil {
				agg.Dependencies = manifest.NewDependencies()
			}
			agg.Dependencies.Set(name, version)
			agg.Dependencies.SortKeys()
			res.AggregateCorrections = append(res.AggregateCorrections, Correction{
				Kind: DependencyPin, Name: name, Expected: version, Found: found,
			})
		}
	}

	if len(spurious) > 0 {
		kept := agg.BundledDependencies[:0:0]
		for _, name := range agg.BundledDependencies {
			if _, drop := spurious[name]; !drop {
				kept = append(kept, name)
			}
		}
		agg.BundledDependencies = kept
		for _, name := range sortedKeys(spurious) {
			agg.Dependencies.Delete(name)
			res.AggregateCorrections = append(res.AggregateCorrections, Correction{
				Kind: BundleSpurious, Name: name,
			})
		}
	}

	return res, nil
}

// collectBundled records the versions lib requires for its bundled dependencies.
func collectBundled(into map[string]string, pkg *manifest.Package) error {
	for _, dep := range pkg.BundleList() {
		required := requiredVersion(pkg, dep)
		if existing, ok := into[dep]; ok && existing != required {
			return &ConflictError{Name: dep, First: existing, Second: required}
		}
		into[dep] = required
	}
	return nil
}

func requiredVersion(pkg *manifest.Package, dep string) string {
	if v, ok := pkg.DevDependencies.Get(dep); ok {
		return v
	}
	if v, ok := pkg.Dependencies.Get(dep); ok {
		return v
	}
	return AnyVersion
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func dedupeSorted(in []string) []string {
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}
