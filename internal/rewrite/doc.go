// SPDX-License-Identifier: MPL-2.0

// Package rewrite turns package-qualified module references into the form
// they take inside the aggregate.
//
// Imports rewrites the module specifiers of import, export, require and
// dynamic import statements through a Resolver. Relative resolves a library
// name to a path relative to the importing directory, for sources copied into
// the aggregate. External resolves it to a subpath of the aggregate package,
// for documentation and example fixtures read by consumers. Readme,
// StripStabilityBanner and MappingFile handle the remaining file kinds that
// carry module names.
package rewrite
