// SPDX-License-Identifier: MPL-2.0

// Package workspace locates the root of the monorepo the aggregate lives in.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/offbyone/aws-cdk/internal/issue"
)

// DefaultMarker is the file that marks the workspace root.
const DefaultMarker = "lerna.json"

// ErrWorkspaceRootNotFound is returned when no ancestor holds the marker file.
var ErrWorkspaceRootNotFound = errors.New("workspace root not found")

// FindRoot walks from start up through its parents and returns the first
// directory containing marker. An empty start means the working directory,
// an empty marker means DefaultMarker.
func FindRoot(start, marker string) (string, error) {
	if marker == "" {
		marker = DefaultMarker
	}
	if start == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		start = cwd
	}

	absStart, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve start path: %w", err)
	}

	cur := absStart
	for {
		markerPath := filepath.Join(cur, marker)
		if _, err := os.Stat(markerPath); err == nil {
			return cur, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", markerPath, err)
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}

	return "", issue.NewErrorContext().
		WithOperation("locate workspace root").
		WithResource(absStart).
		WithSuggestion(fmt.Sprintf("Run ubergen from a directory inside a workspace that has a %s file", marker)).
		WithSuggestion("Set workspace.marker if the workspace uses a different marker file").
		Wrap(ErrWorkspaceRootNotFound).
		BuildError()
}

// ManifestPath returns the workspace manifest path under root.
func ManifestPath(root string) string {
	return filepath.Join(root, "package.json")
}
