// SPDX-License-Identifier: MPL-2.0

// Package exports builds the aggregate's public export map.
//
// The export map decides which import paths consumers may use. It starts from
// a fixed base and grows by one entry per module plus the module's own
// exported subpaths, re-rooted under the module's short name.
package exports

import (
	"path"
	"strings"

	"github.com/offbyone/aws-cdk/internal/discovery"
	"github.com/offbyone/aws-cdk/pkg/manifest"
)

// NewBase returns the export map every aggregate starts from.
func NewBase() *manifest.ExportMap {
	m := manifest.NewExportMap()
	m.Set(".", "./index.js")
	m.Set("./package.json", "./package.json")
	m.Set("./.jsii", "./.jsii")
	m.Set("./.warnings.jsii.js", "./.warnings.jsii.js")
	return m
}

// CopySubmodule adds lib's exports to target, re-rooted under lib's short
// name, then points "./<short>" at the module's generated index. An existing
// entry for the same key is overwritten in place.
func CopySubmodule(target *manifest.ExportMap, lib *discovery.Library) {
	short := lib.ShortName
	lib.Manifest.Exports.Range(func(key, value string) bool {
		target.Set("./"+join(short, key), "./"+join(short, value))
		return true
	})
	target.Set("./"+short, "./"+short+"/index.js")
}

// join is path.Join that keeps a trailing slash, so directory exports such
// as "./lib/" stay directory exports.
func join(base, rel string) string {
	joined := path.Join(base, rel)
	if strings.HasSuffix(rel, "/") && !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	return joined
}
