// SPDX-License-Identifier: MPL-2.0

package transform

import (
	"strings"

	"github.com/offbyone/aws-cdk/internal/rewrite"
)

// ReadmeName is the documentation file rewritten for consumers of the aggregate.
const ReadmeName = "README.md"

const (
	// KindSkip entries are not copied.
	KindSkip FileKind = iota
	// KindDirectory entries are recreated and descended into.
	KindDirectory
	// KindSource entries get their module specifiers made relative.
	KindSource
	// KindMappingFile entries get their class names re-rooted in the aggregate.
	KindMappingFile
	// KindReadme entries get external specifiers and lose the stability banner.
	KindReadme
	// KindOpaque entries are copied byte for byte.
	KindOpaque
)

// DefaultIgnore lists the entry names never copied into the aggregate.
var DefaultIgnore = []string{
	".eslintrc.js",
	".gitignore",
	".jest.config.js",
	".jsii",
	".npmignore",
	"node_modules",
	"package.json",
	"test",
	"tsconfig.json",
	"tsconfig.tsbuildinfo",
	"LICENSE",
	"NOTICE",
}

type (
	// FileKind is the treatment an entry of a module tree receives.
	FileKind int

	// Entry describes a directory entry for classification.
	Entry struct {
		Name    string
		IsDir   bool
		Symlink bool
	}

	// Rules drive Classify.
	Rules struct {
		ignore      map[string]struct{}
		mappingFile string
	}
)

// String returns the kind name used in logs.
func (k FileKind) String() string {
	switch k {
	case KindSkip:
		return "skip"
	case KindDirectory:
		return "directory"
	case KindSource:
		return "source"
	case KindMappingFile:
		return "mapping"
	case KindReadme:
		return "readme"
	case KindOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// NewRules returns classification rules. An empty ignore list means
// DefaultIgnore and an empty mappingFile means rewrite.DefaultMappingFile.
func NewRules(ignore []string, mappingFile string) Rules {
	if len(ignore) == 0 {
		ignore = DefaultIgnore
	}
	if mappingFile == "" {
		mappingFile = rewrite.DefaultMappingFile
	}
	set := make(map[string]struct{}, len(ignore))
	for _, name := range ignore {
		set[name] = struct{}{}
	}
	return Rules{ignore: set, mappingFile: mappingFile}
}

// DefaultRules returns NewRules(nil, "").
func DefaultRules() Rules {
	return NewRules(nil, "")
}

// Classify decides how e is treated. hasSibling reports whether another
// entry of the same directory exists; it is used to skip compiled output
// (X.js, X.d.ts) that sits next to its X.ts source.
func (r Rules) Classify(e Entry, hasSibling func(name string) bool) FileKind {
	if _, ignored := r.ignore[e.Name]; ignored {
		return KindSkip
	}
	if stem, ok := compiledStem(e.Name); ok && hasSibling(stem+".ts") {
		return KindSkip
	}
	if e.Symlink {
		return KindSkip
	}
	if e.IsDir {
		return KindDirectory
	}

	switch {
	case strings.HasSuffix(e.Name, ".ts"):
		return KindSource
	case e.Name == r.mappingFile:
		return KindMappingFile
	case e.Name == ReadmeName:
		return KindReadme
	default:
		return KindOpaque
	}
}

// compiledStem returns X for "X.d.ts" and "X.js".
func compiledStem(name string) (string, bool) {
	if stem, ok := strings.CutSuffix(name, ".d.ts"); ok {
		return stem, true
	}
	if stem, ok := strings.CutSuffix(name, ".js"); ok {
		return stem, true
	}
	return "", false
}
