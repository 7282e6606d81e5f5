// SPDX-License-Identifier: MPL-2.0

// Package manifest models the package manifests read and written by ubergen.
//
// A Package exposes the fields the aggregation pipeline consumes (name,
// version, dependency maps, bundle lists, exports, binding targets and the
// "ubergen" block) while keeping the rest of the document in its original
// order, so Save only changes what the pipeline changed. Workspace models the
// workspace root manifest and its hoisting exclusion list.
//
// Both documents are validated against the embedded manifest_schema.cue before
// decoding, so a malformed manifest reports the offending JSON path.
package manifest
