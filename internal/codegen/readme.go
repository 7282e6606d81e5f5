// SPDX-License-Identifier: MPL-2.0

package codegen

import (
	"fmt"
	"os"
	"strings"
)

// ReadmeStub returns the README of a module reduced to its generated
// bindings. scope is the module's first resource scope and packageName the
// module's package name; the code sample imports it so the usual README
// rewriting applies.
func ReadmeStub(scope, packageName string) (string, error) {
	svc, err := ServiceName(scope)
	if err != nil {
		return "", err
	}
	identifier := strings.NewReplacer("-", "", ".", "").Replace(svc)

	lines := []string{
		fmt.Sprintf("# %s Construct Library", scope),
		"<!--BEGIN STABILITY BANNER-->",
		"",
		"---",
		"",
		"![cfn-resources: Stable](https://img.shields.io/badge/cfn--resources-stable-success.svg?style=for-the-badge)",
		"",
		"> All classes with the `Cfn` prefix in this module are always stable and safe to use.",
		"",
		"---",
		"",
		"<!--END STABILITY BANNER-->",
		"",
		"This module is part of the [AWS Cloud Development Kit](https://github.com/aws/aws-cdk) project.",
		"",
		"```ts",
		fmt.Sprintf("import * as %s from '%s';", identifier, packageName),
		"```",
		"",
	}
	return strings.Join(lines, "\n"), nil
}

// WriteReadmeStub writes ReadmeStub(scope, packageName) to path.
func WriteReadmeStub(path, scope, packageName string) error {
	content, err := ReadmeStub(scope, packageName)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
