// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/offbyone/aws-cdk/internal/bindings"
	"github.com/offbyone/aws-cdk/internal/codegen"
	"github.com/offbyone/aws-cdk/internal/depcheck"
	"github.com/offbyone/aws-cdk/internal/issue"
	"github.com/offbyone/aws-cdk/internal/pipeline"
	"github.com/offbyone/aws-cdk/internal/workspace"
	"github.com/offbyone/aws-cdk/pkg/manifest"
)

const (
	// ExitGeneric is used for any failure without a more specific code.
	ExitGeneric = 1
	// ExitConfig is used for configuration errors: an unreadable configuration,
	// no workspace root, an unsafe library root or an unsupported binding target.
	ExitConfig = 2
	// ExitConflict is used when modules bundle different versions of a dependency.
	ExitConflict = 3
	// ExitDrift is used after a manifest was corrected and written back.
	ExitDrift = 4
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// classifyError maps a pipeline failure to an exit code and the catalog
// entry explaining it. A zero Id means no catalog entry applies.
func classifyError(err error) (int, issue.Id) {
	var cmdErr *codegen.CommandError
	switch {
	case errors.Is(err, depcheck.ErrBundleConflict):
		return ExitConflict, issue.BundleConflictId
	case errors.Is(err, pipeline.ErrWorkspaceDrift):
		return ExitDrift, issue.WorkspaceDriftId
	case errors.Is(err, pipeline.ErrManifestDrift):
		return ExitDrift, issue.ManifestDriftId
	case errors.Is(err, workspace.ErrWorkspaceRootNotFound):
		return ExitConfig, issue.WorkspaceRootNotFoundId
	case errors.Is(err, pipeline.ErrUnsafeLibRoot):
		return ExitConfig, issue.UnsafeLibRootId
	case errors.Is(err, manifest.ErrInvalidManifest):
		return ExitGeneric, issue.ManifestInvalidId
	case errors.Is(err, bindings.ErrUnsupportedLanguage):
		return ExitConfig, issue.UnsupportedLanguageId
	case errors.Is(err, codegen.ErrNoGenerator), errors.As(err, &cmdErr):
		return ExitGeneric, issue.CodegenFailedId
	case errors.Is(err, os.ErrPermission):
		return ExitGeneric, issue.PermissionDeniedId
	default:
		return ExitGeneric, 0
	}
}
