// SPDX-License-Identifier: MPL-2.0

package depcheck

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/offbyone/aws-cdk/internal/discovery"
	"github.com/offbyone/aws-cdk/pkg/manifest"
)

func mustPackage(t *testing.T, doc string) *manifest.Package {
	t.Helper()
	pkg, err := manifest.Parse([]byte(doc), "package.json")
	if err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	return pkg
}

func mustWorkspace(t *testing.T, doc string) *manifest.Workspace {
	t.Helper()
	ws, err := manifest.ParseWorkspace([]byte(doc), "workspace/package.json")
	if err != nil {
		t.Fatalf("parse workspace: %v", err)
	}
	return ws
}

func lib(t *testing.T, doc string) *discovery.Library {
	t.Helper()
	pkg := mustPackage(t, doc)
	short, err := discovery.ShortName(pkg.Name, discovery.DefaultScope)
	if err != nil {
		t.Fatal(err)
	}
	return &discovery.Library{Manifest: pkg, ShortName: short}
}

func kinds(cs []Correction) []CorrectionKind {
	out := make([]CorrectionKind, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Kind)
	}
	return out
}

func TestVerify_Consistent(t *testing.T) {
	t.Parallel()

	agg := mustPackage(t, `{
		"name": "aws-cdk-lib",
		"devDependencies": {"@aws-cdk/aws-s3": "1.2.3"},
		"dependencies": {"zlib": "1.0.0"},
		"bundledDependencies": ["zlib"]
	}`)
	ws := mustWorkspace(t, `{"workspaces": {"nohoist": ["aws-cdk-lib/zlib", "aws-cdk-lib/zlib/**"]}}`)
	libs := []*discovery.Library{
		lib(t, `{"name": "@aws-cdk/aws-s3", "version": "1.2.3", "dependencies": {"zlib": "1.0.0"}, "bundledDependencies": ["zlib"]}`),
	}

	res, err := Verify(agg, ws, libs)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if res.AggregateChanged() || res.WorkspaceChanged() {
		t.Errorf("unexpected corrections: %v / %v", res.AggregateCorrections, res.WorkspaceCorrections)
	}
	if res.Bundled["zlib"] != "1.0.0" {
		t.Errorf("Bundled = %v", res.Bundled)
	}
}

func TestVerify_InsertsMissingModuleSorted(t *testing.T) {
	t.Parallel()

	agg := mustPackage(t, `{"name": "aws-cdk-lib", "devDependencies": {"@aws-cdk/core": "1.2.3", "typescript": "4.0.0"}}`)
	ws := mustWorkspace(t, `{"workspaces": {}}`)
	libs := []*discovery.Library{
		lib(t, `{"name": "@aws-cdk/core", "version": "1.2.3"}`),
		lib(t, `{"name": "@aws-cdk/aws-s3", "version": "1.2.3"}`),
	}

	res, err := Verify(agg, ws, libs)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if got := kinds(res.AggregateCorrections); !reflect.DeepEqual(got, []CorrectionKind{ModuleMissing}) {
		t.Fatalf("corrections = %v", got)
	}
	want := []string{"@aws-cdk/aws-s3", "@aws-cdk/core", "typescript"}
	if got := res.Aggregate.DevDependencies.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("devDependencies keys = %v, want %v", got, want)
	}
	if agg.DevDependencies.Has("@aws-cdk/aws-s3") {
		t.Error("Verify() mutated its input")
	}
}

func TestVerify_CorrectsModuleVersionInPlace(t *testing.T) {
	t.Parallel()

	agg := mustPackage(t, `{"name": "aws-cdk-lib", "devDependencies": {"zeta": "1", "@aws-cdk/core": "0.0.1"}}`)
	ws := mustWorkspace(t, `{}`)
	libs := []*discovery.Library{lib(t, `{"name": "@aws-cdk/core", "version": "1.2.3"}`)}

	res, err := Verify(agg, ws, libs)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if len(res.AggregateCorrections) != 1 {
		t.Fatalf("corrections = %v", res.AggregateCorrections)
	}
	c := res.AggregateCorrections[0]
	if c.Kind != ModuleVersion || c.Found != "0.0.1" || c.Expected != "1.2.3" {
		t.Errorf("correction = %+v", c)
	}
	if got := res.Aggregate.DevDependencies.Keys(); !reflect.DeepEqual(got, []string{"zeta", "@aws-cdk/core"}) {
		t.Errorf("version fix should keep key order, got %v", got)
	}
}

func TestVerify_MissingDevDependencies(t *testing.T) {
	t.Parallel()

	agg := mustPackage(t, `{"name": "aws-cdk-lib", "version": "1.2.3"}`)
	res, err := Verify(agg, mustWorkspace(t, `{}`), []*discovery.Library{lib(t, `{"name": "@aws-cdk/core", "version": "1.2.3"}`)})
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if v, _ := res.Aggregate.DevDependencies.Get("@aws-cdk/core"); v != "1.2.3" {
		t.Errorf("devDependencies[@aws-cdk/core] = %q", v)
	}
}

func TestVerify_BundledDependency(t *testing.T) {
	t.Parallel()

	agg := mustPackage(t, `{"name": "aws-cdk-lib", "devDependencies": {"@aws-cdk/a": "1.0.0", "@aws-cdk/b": "1.0.0"}}`)
	ws := mustWorkspace(t, `{"workspaces": {"packages": ["packages/*"], "nohoist": ["other"]}}`)
	libs := []*discovery.Library{
		// devDependencies wins over dependencies for the required version.
		lib(t, `{"name": "@aws-cdk/a", "version": "1.0.0", "dependencies": {"yaml": "^1"}, "devDependencies": {"yaml": "1.10.0"}, "bundledDependencies": ["yaml"]}`),
		// No declared version means "*".
		lib(t, `{"name": "@aws-cdk/b", "version": "1.0.0", "bundleDependencies": ["minimatch"]}`),
	}

	res, err := Verify(agg, ws, libs)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}

	wantNohoist := []string{
		"aws-cdk-lib/minimatch", "aws-cdk-lib/minimatch/**",
		"aws-cdk-lib/yaml", "aws-cdk-lib/yaml/**",
		"other",
	}
	if !reflect.DeepEqual(res.Workspace.Nohoist, wantNohoist) {
		t.Errorf("nohoist = %v, want %v", res.Workspace.Nohoist, wantNohoist)
	}
	if !reflect.DeepEqual(res.Aggregate.BundledDependencies, []string{"minimatch", "yaml"}) {
		t.Errorf("bundledDependencies = %v", res.Aggregate.BundledDependencies)
	}
	if v, _ := res.Aggregate.Dependencies.Get("yaml"); v != "1.10.0" {
		t.Errorf("dependencies[yaml] = %q, want 1.10.0", v)
	}
	if v, _ := res.Aggregate.Dependencies.Get("minimatch"); v != AnyVersion {
		t.Errorf("dependencies[minimatch] = %q, want *", v)
	}
	if len(res.WorkspaceCorrections) != 2 {
		t.Errorf("workspace corrections = %v", res.WorkspaceCorrections)
	}
	if !reflect.DeepEqual(ws.Nohoist, []string{"other"}) {
		t.Error("Verify() mutated the workspace input")
	}
}

func TestVerify_Conflict(t *testing.T) {
	t.Parallel()

	agg := mustPackage(t, `{"name": "aws-cdk-lib"}`)
	libs := []*discovery.Library{
		lib(t, `{"name": "@aws-cdk/a", "version": "1.0.0", "dependencies": {"X": "1.0.0"}, "bundledDependencies": ["X"]}`),
		lib(t, `{"name": "@aws-cdk/b", "version": "1.0.0", "dependencies": {"X": "2.0.0"}, "bundledDependencies": ["X"]}`),
	}

	_, err := Verify(agg, mustWorkspace(t, `{}`), libs)
	if !errors.Is(err, ErrBundleConflict) {
		t.Fatalf("Verify() error = %v, want ErrBundleConflict", err)
	}
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("error should be *ConflictError, got %T", err)
	}
	if conflict.Name != "X" || conflict.First != "1.0.0" || conflict.Second != "2.0.0" {
		t.Errorf("conflict = %+v", conflict)
	}
	if msg := err.Error(); !strings.Contains(msg, "X") || !strings.Contains(msg, "1.0.0") || !strings.Contains(msg, "2.0.0") {
		t.Errorf("message should name the dependency and both versions: %s", msg)
	}
}

func TestVerify_RemovesSpuriousBundles(t *testing.T) {
	t.Parallel()

	agg := mustPackage(t, `{
		"name": "aws-cdk-lib",
		"dependencies": {"constructs": "^3", "leftpad": "1.0.0"},
		"bundledDependencies": ["leftpad", "gone"]
	}`)

	res, err := Verify(agg, mustWorkspace(t, `{}`), nil)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if got := kinds(res.AggregateCorrections); !reflect.DeepEqual(got, []CorrectionKind{BundleSpurious, BundleSpurious}) {
		t.Errorf("corrections = %v", got)
	}
	if len(res.Aggregate.BundledDependencies) != 0 || res.Aggregate.BundledDependencies == nil {
		t.Errorf("bundledDependencies = %#v, want empty list", res.Aggregate.BundledDependencies)
	}
	if got := res.Aggregate.Dependencies.Keys(); !reflect.DeepEqual(got, []string{"constructs"}) {
		t.Errorf("dependencies = %v", got)
	}
}

func TestVerify_SpuriousWithoutDependencies(t *testing.T) {
	t.Parallel()

	agg := mustPackage(t, `{"name": "aws-cdk-lib", "bundledDependencies": ["gone"]}`)
	res, err := Verify(agg, mustWorkspace(t, `{}`), nil)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if !res.AggregateChanged() {
		t.Error("removing a spurious bundle should count as a change")
	}
}

func TestCorrection_String(t *testing.T) {
	t.Parallel()

	c := Correction{Kind: ModuleVersion, Name: "@aws-cdk/core", Expected: "2", Found: "1"}
	if got := c.String(); got != "Incorrect dependency: @aws-cdk/core (expected 2, found 1)" {
		t.Errorf("String() = %q", got)
	}
}
