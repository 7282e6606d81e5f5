// SPDX-License-Identifier: MPL-2.0

// Package discovery finds the modules that make up the aggregate.
//
// Every directory under the modules directory that holds a package manifest is
// a candidate. Candidates are dropped when they opt out ("ubergen.exclude"),
// have no binding configuration ("jsii"), or are deprecated, either through
// the aggregate's "ubergen.deprecatedPackages" list or, when that list is
// absent, through their own "deprecated" field.
package discovery
