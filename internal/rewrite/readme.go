// SPDX-License-Identifier: MPL-2.0

package rewrite

import (
	"regexp"
)

var (
	stabilityBanner = regexp.MustCompile(`(?s)<!--BEGIN STABILITY BANNER-->.+<!--END STABILITY BANNER-->`)

	// codeFence matches a fenced code block whose info string starts with ts,
	// typescript or text, capturing the opening line, body and closing fence.
	codeFence = regexp.MustCompile("(?ms)(^[ \t]*```(?:ts|typescript|text)\\b[^\\n]*\\n)(.*?)(^[ \t]*```)")
)

// StripStabilityBanner removes the stability banner block, markers included.
// The match is greedy: everything from the first BEGIN marker to the last
// END marker goes.
func StripStabilityBanner(readme string) string {
	return stabilityBanner.ReplaceAllLiteralString(readme, "")
}

// Readme rewrites module specifiers inside the TypeScript code samples of a
// README. Prose outside fenced code blocks is left alone.
func Readme(readme string, resolve Resolver) string {
	return codeFence.ReplaceAllStringFunc(readme, func(block string) string {
		m := codeFence.FindStringSubmatchIndex(block)
		if m == nil {
			return block
		}
		return block[:m[4]] + Imports(block[m[4]:m[5]], resolve) + block[m[5]:]
	})
}
