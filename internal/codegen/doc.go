// SPDX-License-Identifier: MPL-2.0

// Package codegen is the interface to the resource-schema code generator.
//
// Experimental modules may be reduced to their generated resource bindings.
// Generator abstracts the tool that turns resource scopes (such as
// "AWS::S3") into source files; ShellGenerator runs a configured command
// through an embedded POSIX shell so no system shell is required.
package codegen
