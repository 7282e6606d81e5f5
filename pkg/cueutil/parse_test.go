// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

const testSchema = `
#Doc: {
	name:     string & !=""
	count?:   int
	tags?:    [...string]
	...
}
`

type testDoc struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	t.Run("decodes valid CUE", func(t *testing.T) {
		t.Parallel()

		data := []byte(`name: "aws-cdk-lib"
count: 3
tags: ["a", "b"]`)
		result, err := ParseAndDecode[testDoc]([]byte(testSchema), data, "#Doc", WithFilename("doc.cue"))
		if err != nil {
			t.Fatalf("ParseAndDecode() error: %v", err)
		}
		if result.Value.Name != "aws-cdk-lib" || result.Value.Count != 3 || len(result.Value.Tags) != 2 {
			t.Errorf("unexpected decoded value %+v", result.Value)
		}
	})

	t.Run("reports schema violations with path", func(t *testing.T) {
		t.Parallel()

		data := []byte(`name: "x"
count: "three"`)
		_, err := ParseAndDecode[testDoc]([]byte(testSchema), data, "#Doc", WithFilename("doc.cue"))
		if err == nil {
			t.Fatal("expected error")
		}
		if !errors.Is(err, ErrSchemaViolation) {
			t.Errorf("error should wrap ErrSchemaViolation, got %v", err)
		}
		if !strings.Contains(err.Error(), "doc.cue") || !strings.Contains(err.Error(), "count") {
			t.Errorf("error should name file and field, got %v", err)
		}
	})

	t.Run("missing schema definition", func(t *testing.T) {
		t.Parallel()

		_, err := ParseAndDecode[testDoc]([]byte(testSchema), []byte(`name: "x"`), "#Missing")
		if err == nil || !strings.Contains(err.Error(), "#Missing") {
			t.Errorf("expected missing definition error, got %v", err)
		}
	})

	t.Run("file size limit", func(t *testing.T) {
		t.Parallel()

		_, err := ParseAndDecode[testDoc]([]byte(testSchema), []byte(`name: "xxxxxxxx"`), "#Doc", WithMaxFileSize(4))
		if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
			t.Errorf("expected size error, got %v", err)
		}
	})
}

func TestValidate_AcceptsJSON(t *testing.T) {
	t.Parallel()

	data := []byte(`{"name": "@aws-cdk/core", "tags": ["x"], "extra": {"kept": true}}`)
	if _, err := Validate([]byte(testSchema), data, "#Doc", WithFilename("package.json")); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
}

func TestValidate_RejectsJSON(t *testing.T) {
	t.Parallel()

	data := []byte(`{"name": "", "tags": [1]}`)
	_, err := Validate([]byte(testSchema), data, "#Doc", WithFilename("package.json"))
	if err == nil {
		t.Fatal("expected validation error")
	}
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error should be *ValidationError, got %T", err)
	}
	if vErr.FilePath != "package.json" {
		t.Errorf("FilePath = %q, want package.json", vErr.FilePath)
	}
}
