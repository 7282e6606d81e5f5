// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE parsing and validation utilities.
//
// Two flows are supported:
//
//  1. ParseAndDecode compiles an embedded schema, unifies user data with a
//     schema definition, validates and decodes the result into a Go struct.
//     The tool configuration (ubergen.cue, or ubergen.toml converted to
//     JSON) is loaded this way.
//  2. Validate performs the same compile/unify/validate steps without
//     decoding. JSON is a subset of CUE, so package manifests are checked
//     against their schema with Validate and then decoded with encoding/json,
//     which keeps control over key order.
//
// # Usage
//
//	//go:embed manifest_schema.cue
//	var schema []byte
//
//	if err := cueutil.Validate(schema, data, "#Package", cueutil.WithFilename(path)); err != nil {
//	    return nil, err // error carries the JSON path of the offending field
//	}
package cueutil
