// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"testing"
)

const (
	// DefaultScope is the namespace the fixture modules live under.
	DefaultScope = "@aws-cdk"
	// DefaultAggregate is the fixture aggregate package name.
	DefaultAggregate = "aws-cdk-lib"
)

// Monorepo is an on-disk workspace fixture:
//
//	<Root>/lerna.json
//	<Root>/package.json               workspace manifest
//	<Root>/packages/@aws-cdk/<short>/ modules
//	<Root>/packages/aws-cdk-lib/      aggregate package
type Monorepo struct {
	Root string
	t    testing.TB
}

// NewMonorepo creates an empty workspace in a temporary directory with a
// workspace manifest that has an empty nohoist list.
func NewMonorepo(t testing.TB) *Monorepo {
	t.Helper()
	m := &Monorepo{Root: t.TempDir(), t: t}
	m.WriteFile("lerna.json", `{"packages": ["packages/*", "packages/@aws-cdk/*"]}`+"\n")
	m.WriteFile("package.json", `{
  "name": "aws-cdk-monorepo",
  "private": true,
  "workspaces": {
    "packages": ["packages/*", "packages/@aws-cdk/*"],
    "nohoist": []
  }
}
`)
	return m
}

// AggregateDir returns the aggregate package directory.
func (m *Monorepo) AggregateDir() string {
	return filepath.Join(m.Root, "packages", DefaultAggregate)
}

// ModulesDir returns the directory holding the scoped modules.
func (m *Monorepo) ModulesDir() string {
	return filepath.Join(m.Root, "packages", DefaultScope)
}

// WriteAggregate writes the aggregate manifest.
func (m *Monorepo) WriteAggregate(manifestJSON string) {
	m.t.Helper()
	MustWriteFile(m.t, filepath.Join(m.AggregateDir(), "package.json"), manifestJSON)
}

// AddModule writes a module manifest plus files (paths relative to the module
// directory) and returns the module directory.
func (m *Monorepo) AddModule(short, manifestJSON string, files map[string]string) string {
	m.t.Helper()
	dir := filepath.Join(m.ModulesDir(), short)
	MustWriteFile(m.t, filepath.Join(dir, "package.json"), manifestJSON)
	for rel, content := range files {
		MustWriteFile(m.t, filepath.Join(dir, filepath.FromSlash(rel)), content)
	}
	return dir
}

// WriteFile writes a file relative to the workspace root.
func (m *Monorepo) WriteFile(rel, content string) {
	m.t.Helper()
	MustWriteFile(m.t, filepath.Join(m.Root, filepath.FromSlash(rel)), content)
}

// ReadFile reads a file relative to the workspace root.
func (m *Monorepo) ReadFile(rel string) string {
	m.t.Helper()
	return MustReadFile(m.t, filepath.Join(m.Root, filepath.FromSlash(rel)))
}

// ReadAggregateFile reads a file relative to the aggregate directory.
func (m *Monorepo) ReadAggregateFile(rel string) string {
	m.t.Helper()
	return MustReadFile(m.t, filepath.Join(m.AggregateDir(), filepath.FromSlash(rel)))
}
