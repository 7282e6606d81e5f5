// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/offbyone/aws-cdk/internal/issue"
	"github.com/offbyone/aws-cdk/internal/testutil"
)

func TestFindRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(root, DefaultMarker), "{}")
	nested := filepath.Join(root, "packages", "aws-cdk-lib", "lib")
	testutil.MustMkdirAll(t, nested, 0o755)

	tests := []struct {
		name  string
		start string
	}{
		{"from root", root},
		{"from nested directory", nested},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := FindRoot(tt.start, "")
			if err != nil {
				t.Fatalf("FindRoot() error: %v", err)
			}
			want, _ := filepath.Abs(root)
			if got != want {
				t.Errorf("FindRoot() = %q, want %q", got, want)
			}
		})
	}
}

func TestFindRoot_CustomMarker(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(root, "lerna.json"), "{}")
	inner := filepath.Join(root, "sub")
	testutil.MustWriteFile(t, filepath.Join(inner, "workspace.marker"), "")

	got, err := FindRoot(filepath.Join(inner, "deeper"), "workspace.marker")
	if err != nil {
		t.Fatalf("FindRoot() error: %v", err)
	}
	if got != inner {
		t.Errorf("FindRoot() = %q, want nearest marker at %q", got, inner)
	}
}

func TestFindRoot_NotFound(t *testing.T) {
	t.Parallel()

	_, err := FindRoot(t.TempDir(), "ubergen-test-marker-that-does-not-exist.json")
	if !errors.Is(err, ErrWorkspaceRootNotFound) {
		t.Fatalf("FindRoot() error = %v, want ErrWorkspaceRootNotFound", err)
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || !ae.HasSuggestions() {
		t.Errorf("error should be actionable with suggestions, got %v", err)
	}
}
