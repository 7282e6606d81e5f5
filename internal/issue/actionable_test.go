// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "locate workspace root"},
			expected: "failed to locate workspace root",
		},
		{
			name: "operation with resource",
			err: &ActionableError{
				Operation: "load package manifest",
				Resource:  "packages/aws-cdk-lib/package.json",
			},
			expected: "failed to load package manifest: packages/aws-cdk-lib/package.json",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "load package manifest",
				Resource:  "package.json",
				Cause:     errors.New("file not found"),
			},
			expected: "failed to load package manifest: package.json: file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_ErrorsIs(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("drift")
	err := NewErrorContext().WithOperation("verify dependencies").Wrap(sentinel).BuildError()
	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should find the wrapped cause")
	}

	var ae *ActionableError
	if !errors.As(err, &ae) {
		t.Fatal("errors.As should find *ActionableError")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	inner := errors.New("permission denied")
	err := &ActionableError{
		Operation:   "write index file",
		Resource:    "index.ts",
		Suggestions: []string{"Check directory permissions", "Re-run the build"},
		Cause:       errors.Join(errors.New("open index.ts"), inner),
	}

	short := err.Format(false)
	if !strings.Contains(short, "  • Check directory permissions") || !strings.Contains(short, "  • Re-run the build") {
		t.Errorf("Format(false) missing suggestions:\n%s", short)
	}
	if strings.Contains(short, "Error chain:") {
		t.Errorf("Format(false) should not include the error chain:\n%s", short)
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "Error chain:") || !strings.Contains(verbose, "1. ") {
		t.Errorf("Format(true) should include the error chain:\n%s", verbose)
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	t.Run("missing operation yields nil", func(t *testing.T) {
		t.Parallel()

		if got := NewErrorContext().WithResource("x").Build(); got != nil {
			t.Errorf("Build() = %v, want nil", got)
		}
		if got := NewErrorContext().BuildError(); got != nil {
			t.Errorf("BuildError() = %v, want nil", got)
		}
	})

	t.Run("collects suggestions", func(t *testing.T) {
		t.Parallel()

		ae := NewErrorContext().
			WithOperation("combine fixtures").
			WithSuggestion("one").
			WithSuggestion("two").
			WithSuggestion("three").
			Build()
		if ae == nil || len(ae.Suggestions) != 3 || !ae.HasSuggestions() {
			t.Fatalf("Build() = %+v", ae)
		}
	})
}

func TestErrorContext_Wrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	ae := NewErrorContext().
		WithOperation("copy module sources").
		WithResource("aws-s3").
		Wrap(cause).
		Build()
	if ae.Resource != "aws-s3" || !errors.Is(ae, cause) {
		t.Errorf("Build() = %+v", ae)
	}
	if got := NewErrorContext().WithOperation("discover modules").Build().Error(); got != "failed to discover modules" {
		t.Errorf("Error() = %q, want %q", got, "failed to discover modules")
	}
}
