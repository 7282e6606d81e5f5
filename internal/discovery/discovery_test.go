// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/offbyone/aws-cdk/internal/testutil"
	"github.com/offbyone/aws-cdk/pkg/manifest"
)

func aggregate(t *testing.T, doc string) *manifest.Package {
	t.Helper()
	pkg, err := manifest.Parse([]byte(doc), "aggregate/package.json")
	if err != nil {
		t.Fatalf("parse aggregate: %v", err)
	}
	return pkg
}

func names(libs []*Library) []string {
	out := make([]string, 0, len(libs))
	for _, l := range libs {
		out = append(out, l.ShortName)
	}
	return out
}

func TestDiscover_RulesAndOrder(t *testing.T) {
	t.Parallel()

	repo := testutil.NewMonorepo(t)
	repo.AddModule("core", `{"name": "@aws-cdk/core", "jsii": {}}`, nil)
	repo.AddModule("aws-s3", `{"name": "@aws-cdk/aws-s3", "jsii": {}}`, nil)
	repo.AddModule("assert", `{"name": "@aws-cdk/assert", "jsii": {}, "ubergen": {"exclude": true}}`, nil)
	repo.AddModule("cdk-build-tools", `{"name": "@aws-cdk/cdk-build-tools"}`, nil)
	repo.AddModule("aws-old", `{"name": "@aws-cdk/aws-old", "jsii": {}, "deprecated": "gone"}`, nil)
	repo.WriteFile("packages/@aws-cdk/README.md", "not a module")
	testutil.MustMkdirAll(t, filepath.Join(repo.ModulesDir(), "empty-dir"), 0o755)

	result, err := Discover(aggregate(t, `{"name": "aws-cdk-lib"}`), Options{WorkspaceRoot: repo.Root})
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}

	if got, want := names(result.Libraries), []string{"aws-s3", "core"}; !reflect.DeepEqual(got, want) {
		t.Errorf("libraries = %v, want %v (lexical directory order)", got, want)
	}

	reasons := map[string]SkipReason{}
	for _, s := range result.Skipped {
		reasons[s.Name] = s.Reason
	}
	want := map[string]SkipReason{
		"@aws-cdk/assert":          SkipExcluded,
		"@aws-cdk/cdk-build-tools": SkipNoBindings,
		"@aws-cdk/aws-old":         SkipDeprecated,
	}
	if !reflect.DeepEqual(reasons, want) {
		t.Errorf("skipped = %v, want %v", reasons, want)
	}
}

func TestDiscover_DeprecatedListOverridesModuleMarker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		aggregate string
		want      []string
	}{
		{
			name:      "no list uses module marker",
			aggregate: `{"name": "aws-cdk-lib"}`,
			want:      []string{"aws-b"},
		},
		{
			name:      "empty list ignores module marker",
			aggregate: `{"name": "aws-cdk-lib", "ubergen": {"deprecatedPackages": []}}`,
			want:      []string{"aws-a", "aws-b"},
		},
		{
			name:      "listed module is skipped",
			aggregate: `{"name": "aws-cdk-lib", "ubergen": {"deprecatedPackages": ["@aws-cdk/aws-b"]}}`,
			want:      []string{"aws-a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := testutil.NewMonorepo(t)
			repo.AddModule("aws-a", `{"name": "@aws-cdk/aws-a", "jsii": {}, "deprecated": true}`, nil)
			repo.AddModule("aws-b", `{"name": "@aws-cdk/aws-b", "jsii": {}}`, nil)

			result, err := Discover(aggregate(t, tt.aggregate), Options{WorkspaceRoot: repo.Root})
			if err != nil {
				t.Fatalf("Discover() error: %v", err)
			}
			if got := names(result.Libraries); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("libraries = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiscover_MissingNamespace(t *testing.T) {
	t.Parallel()

	repo := testutil.NewMonorepo(t)
	repo.AddModule("rogue", `{"name": "rogue", "jsii": {}}`, nil)

	_, err := Discover(aggregate(t, `{"name": "aws-cdk-lib"}`), Options{WorkspaceRoot: repo.Root})
	if !errors.Is(err, ErrMissingNamespace) {
		t.Fatalf("Discover() error = %v, want ErrMissingNamespace", err)
	}
	var nsErr *MissingNamespaceError
	if !errors.As(err, &nsErr) || nsErr.Name != "rogue" {
		t.Errorf("error = %#v", err)
	}
}

func TestDiscover_InvalidManifest(t *testing.T) {
	t.Parallel()

	repo := testutil.NewMonorepo(t)
	repo.AddModule("broken", `{"name": 42}`, nil)

	_, err := Discover(aggregate(t, `{"name": "aws-cdk-lib"}`), Options{WorkspaceRoot: repo.Root})
	if !errors.Is(err, manifest.ErrInvalidManifest) {
		t.Fatalf("Discover() error = %v, want ErrInvalidManifest", err)
	}
}

func TestDiscover_MissingModulesDir(t *testing.T) {
	t.Parallel()

	_, err := Discover(aggregate(t, `{"name": "aws-cdk-lib"}`), Options{WorkspaceRoot: t.TempDir()})
	if err == nil {
		t.Fatal("expected an error for a missing modules directory")
	}
}

func TestShortName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"@aws-cdk/aws-s3", "aws-s3", false},
		{"@aws-cdk/core", "core", false},
		{"@aws-cdk/", "", true},
		{"aws-s3", "", true},
		{"@aws-cdkx/aws-s3", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ShortName(tt.name, DefaultScope)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ShortName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ShortName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLibrary_IdentifierName(t *testing.T) {
	t.Parallel()

	lib := &Library{ShortName: "aws-s3-assets"}
	if got := lib.IdentifierName(); got != "aws_s3_assets" {
		t.Errorf("IdentifierName() = %q", got)
	}
}
