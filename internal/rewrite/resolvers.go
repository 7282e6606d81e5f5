// SPDX-License-Identifier: MPL-2.0

package rewrite

import (
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/offbyone/aws-cdk/internal/discovery"
)

// DefaultCacheSize bounds the number of memoised relative resolutions.
const DefaultCacheSize = 4096

type (
	// libraryMatcher finds the library a specifier refers to. Names are tried
	// longest first so "@s/aws-s3" never captures "@s/aws-s3-assets/x".
	libraryMatcher struct {
		libs []*discovery.Library
	}

	// Relative resolves library specifiers to paths relative to a directory
	// inside the aggregate's library root. It is safe for concurrent use.
	Relative struct {
		libRoot string
		matcher libraryMatcher
		cache   *lru.Cache[string, string]
	}

	// relativeTo is a Relative bound to one target directory.
	relativeTo struct {
		r         *Relative
		targetDir string
	}

	// External resolves library specifiers to subpaths of the aggregate
	// package, the form consumers of the published aggregate use.
	External struct {
		aggregate    string
		foundational string
		matcher      libraryMatcher
	}
)

func newLibraryMatcher(libs []*discovery.Library) libraryMatcher {
	sorted := make([]*discovery.Library, len(libs))
	copy(sorted, libs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Name()) > len(sorted[j].Name())
	})
	return libraryMatcher{libs: sorted}
}

// match returns the library spec refers to and the subpath after its name.
func (m libraryMatcher) match(spec string) (*discovery.Library, string, bool) {
	for _, lib := range m.libs {
		name := lib.Name()
		if spec == name {
			return lib, "", true
		}
		if strings.HasPrefix(spec, name+"/") {
			return lib, spec[len(name)+1:], true
		}
	}
	return nil, "", false
}

// NewRelative returns a Relative resolver for the libraries laid out under
// libRoot as libRoot/<short name>.
func NewRelative(libRoot string, libs []*discovery.Library) (*Relative, error) {
	cache, err := lru.New[string, string](DefaultCacheSize)
	if err != nil {
		return nil, err
	}
	return &Relative{libRoot: libRoot, matcher: newLibraryMatcher(libs), cache: cache}, nil
}

// For returns a Resolver producing paths relative to targetDir.
func (r *Relative) For(targetDir string) Resolver {
	return relativeTo{r: r, targetDir: targetDir}
}

// Resolve implements Resolver.
func (t relativeTo) Resolve(spec string) (string, bool) {
	key := t.targetDir + "\x00" + spec
	if v, ok := t.r.cache.Get(key); ok {
		return v, true
	}

	lib, sub, ok := t.r.matcher.match(spec)
	if !ok {
		return "", false
	}
	imported := filepath.Join(t.r.libRoot, lib.ShortName)
	if sub != "" {
		imported = filepath.Join(imported, filepath.FromSlash(sub))
	}
	rel, err := filepath.Rel(t.targetDir, imported)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}

	t.r.cache.Add(key, rel)
	return rel, true
}

// NewExternal returns an External resolver. The foundational module maps to
// the aggregate name itself; every other module to "<aggregate>/<short name>".
func NewExternal(aggregate, foundational string, libs []*discovery.Library) *External {
	return &External{aggregate: aggregate, foundational: foundational, matcher: newLibraryMatcher(libs)}
}

// Resolve implements Resolver.
func (e *External) Resolve(spec string) (string, bool) {
	lib, sub, ok := e.matcher.match(spec)
	if !ok {
		return "", false
	}
	if lib.ShortName == e.foundational && sub == "" {
		return e.aggregate, true
	}
	out := e.aggregate + "/" + lib.ShortName
	if sub != "" {
		out += "/" + sub
	}
	return out, true
}
