// SPDX-License-Identifier: MPL-2.0

package rewrite

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/offbyone/aws-cdk/pkg/orderedjson"
)

// DefaultMappingFile is the resource-type to class mapping shipped by modules
// that generate resource bindings.
const DefaultMappingFile = "cfn-types-2-classes.json"

// MappingFile rewrites the values of a resource-type mapping document so they
// name classes of the aggregate. With scope "@aws-cdk" and aggregate
// "aws-cdk-lib":
//
//	"@aws-cdk/core.CfnResource"   -> "aws-cdk-lib.CfnResource"
//	"@aws-cdk/aws-s3.CfnBucket"   -> "aws-cdk-lib/aws-s3.CfnBucket"
//
// Submodule values keep the full short name of the module. Values outside
// scope, including scopes that merely share its prefix, are left alone.
// foundational is the short name of the module re-exported at the top level.
// Keys and their order are kept; the output uses the standard JSON layout.
func MappingFile(data []byte, scope, foundational, aggregate string) ([]byte, error) {
	doc := orderedjson.New[string]()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parse mapping file: %w", err)
	}

	foundationalPrefix := scope + "/" + foundational + "."
	for _, key := range doc.Keys() {
		value, _ := doc.Get(key)
		switch {
		case strings.HasPrefix(value, foundationalPrefix):
			value = aggregate + "." + value[len(foundationalPrefix):]
		case strings.HasPrefix(value, scope+"/"):
			value = aggregate + value[len(scope):]
		}
		doc.Set(key, value)
	}

	var buf bytes.Buffer
	if err := orderedjson.Encode(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
