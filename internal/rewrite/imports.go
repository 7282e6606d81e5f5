// SPDX-License-Identifier: MPL-2.0

package rewrite

import (
	"regexp"
	"strings"
)

type (
	// Resolver maps a module specifier to its replacement. ok=false leaves the
	// specifier untouched.
	Resolver interface {
		Resolve(specifier string) (replacement string, ok bool)
	}

	// ResolverFunc adapts a function to Resolver.
	ResolverFunc func(specifier string) (string, bool)
)

// specifierPattern matches the module specifier of
//
//	import x from 'm'     export * from 'm'
//	import 'm'            import('m')
//	require('m')          import x = require('m')
//
// capturing the lead-in, opening quote, specifier and closing quote.
var specifierPattern = regexp.MustCompile(`(\bfrom\s*|\bimport\s*|\b(?:require|import)\s*\(\s*)(['"])([^'"\r\n]+)(['"])`)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(specifier string) (string, bool) {
	return f(specifier)
}

// Imports rewrites every module specifier in source that resolve knows about.
// Quote style and surrounding text are preserved.
func Imports(source string, resolve Resolver) string {
	matches := specifierPattern.FindAllStringSubmatchIndex(source, -1)
	if len(matches) == 0 {
		return source
	}

	var out strings.Builder
	out.Grow(len(source))
	last := 0
	for _, m := range matches {
		openQuote := source[m[4]:m[5]]
		closeQuote := source[m[8]:m[9]]
		if openQuote != closeQuote {
			continue
		}
		spec := source[m[6]:m[7]]
		replacement, ok := resolve.Resolve(spec)
		if !ok || replacement == spec {
			continue
		}
		out.WriteString(source[last:m[6]])
		out.WriteString(replacement)
		last = m[7]
	}
	out.WriteString(source[last:])
	return out.String()
}
