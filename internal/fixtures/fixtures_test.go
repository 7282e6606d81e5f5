// SPDX-License-Identifier: MPL-2.0

package fixtures

import (
	"path/filepath"
	"testing"

	"github.com/offbyone/aws-cdk/internal/discovery"
	"github.com/offbyone/aws-cdk/internal/rewrite"
	"github.com/offbyone/aws-cdk/internal/testutil"
	"github.com/offbyone/aws-cdk/pkg/manifest"
)

func lib(t *testing.T, root, name string) *discovery.Library {
	t.Helper()
	pkg, err := manifest.Parse([]byte(`{"name": "`+name+`"}`), filepath.Join(root, "package.json"))
	if err != nil {
		t.Fatal(err)
	}
	short, err := discovery.ShortName(name, discovery.DefaultScope)
	if err != nil {
		t.Fatal(err)
	}
	return &discovery.Library{Manifest: pkg, Root: root, ShortName: short}
}

func TestCombine(t *testing.T) {
	t.Parallel()

	repo := testutil.NewMonorepo(t)
	coreDir := repo.AddModule("core", `{"name": "@aws-cdk/core"}`, map[string]string{
		"rosetta/default.ts-fixture": "import * as cdk from '@aws-cdk/core';\n",
	})
	lambdaDir := repo.AddModule("aws-lambda", `{"name": "@aws-cdk/aws-lambda"}`, map[string]string{
		"rosetta/default.ts-fixture":    "import * as lambda from '@aws-cdk/aws-lambda';\nimport { Construct } from 'constructs';\n",
		"rosetta/nested/ignored.ts-fix": "x",
	})
	snsDir := repo.AddModule("aws-sns", `{"name": "@aws-cdk/aws-sns"}`, nil)

	libs := []*discovery.Library{
		lib(t, lambdaDir, "@aws-cdk/aws-lambda"),
		lib(t, coreDir, "@aws-cdk/core"),
		lib(t, snsDir, "@aws-cdk/aws-sns"),
	}

	pkgRoot := repo.AggregateDir()
	testutil.MustWriteFile(t, filepath.Join(pkgRoot, DefaultDir, "stale.ts-fixture"), "old")

	result, err := Combine(libs, Options{
		PackageRoot: pkgRoot,
		Resolver:    rewrite.NewExternal(testutil.DefaultAggregate, discovery.DefaultFoundational, libs),
	})
	if err != nil {
		t.Fatalf("Combine() error: %v", err)
	}
	if result.Files != 2 || result.Modules != 2 {
		t.Errorf("Combine() = %+v, want 2 files from 2 modules", result)
	}

	testutil.MustNotExist(t, filepath.Join(pkgRoot, DefaultDir, "stale.ts-fixture"))
	testutil.MustNotExist(t, filepath.Join(pkgRoot, DefaultDir, "aws_lambda", "nested"))
	testutil.MustNotExist(t, filepath.Join(pkgRoot, DefaultDir, "aws_sns"))

	if got, want := testutil.MustReadFile(t, filepath.Join(pkgRoot, DefaultDir, "default.ts-fixture")), "import * as cdk from 'aws-cdk-lib';\n"; got != want {
		t.Errorf("core fixture = %q, want %q", got, want)
	}
	want := "import * as lambda from 'aws-cdk-lib/aws-lambda';\nimport { Construct } from 'constructs';\n"
	if got := testutil.MustReadFile(t, filepath.Join(pkgRoot, DefaultDir, "aws_lambda", "default.ts-fixture")); got != want {
		t.Errorf("lambda fixture = %q, want %q", got, want)
	}
}

func TestCombine_NoFixtures(t *testing.T) {
	t.Parallel()

	pkgRoot := t.TempDir()
	result, err := Combine(nil, Options{PackageRoot: pkgRoot, Dir: "examples"})
	if err != nil {
		t.Fatalf("Combine() error: %v", err)
	}
	if result.Files != 0 {
		t.Errorf("Files = %d, want 0", result.Files)
	}
	if entries := testutil.MustReadDir(t, filepath.Join(pkgRoot, "examples")); len(entries) != 0 {
		t.Errorf("fixture dir should be empty, has %d entries", len(entries))
	}
}
