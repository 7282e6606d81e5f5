// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/offbyone/aws-cdk/internal/bindings"
	"github.com/offbyone/aws-cdk/internal/codegen"
	"github.com/offbyone/aws-cdk/internal/config"
	"github.com/offbyone/aws-cdk/internal/depcheck"
	"github.com/offbyone/aws-cdk/internal/issue"
	"github.com/offbyone/aws-cdk/internal/pipeline"
	"github.com/offbyone/aws-cdk/internal/workspace"
)

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantID   issue.Id
	}{
		{"conflict", &depcheck.ConflictError{Name: "x", First: "1.0.0", Second: "2.0.0"}, ExitConflict, issue.BundleConflictId},
		{"manifest drift", fmt.Errorf("verify: %w", pipeline.ErrManifestDrift), ExitDrift, issue.ManifestDriftId},
		{"both drifts", errors.Join(pipeline.ErrWorkspaceDrift, pipeline.ErrManifestDrift), ExitDrift, issue.WorkspaceDriftId},
		{"no root", issue.NewErrorContext().WithOperation("locate workspace root").Wrap(workspace.ErrWorkspaceRootNotFound).BuildError(), ExitConfig, issue.WorkspaceRootNotFoundId},
		{"unsafe lib root", issue.NewErrorContext().WithOperation("check library root").Wrap(pipeline.ErrUnsafeLibRoot).BuildError(), ExitConfig, issue.UnsafeLibRootId},
		{"unsupported language", fmt.Errorf("transform @aws-cdk/aws-s3: %w", bindings.ErrUnsupportedLanguage), ExitConfig, issue.UnsupportedLanguageId},
		{"codegen exit", &codegen.CommandError{Command: "false", ExitCode: 1}, ExitGeneric, issue.CodegenFailedId},
		{"no generator", codegen.ErrNoGenerator, ExitGeneric, issue.CodegenFailedId},
		{"permission", &os.PathError{Op: "open", Path: "x", Err: os.ErrPermission}, ExitGeneric, issue.PermissionDeniedId},
		{"other", errors.New("boom"), ExitGeneric, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			code, id := classifyError(tt.err)
			if code != tt.wantCode || id != tt.wantID {
				t.Errorf("classifyError() = (%d, %d), want (%d, %d)", code, id, tt.wantCode, tt.wantID)
			}
		})
	}
}

func TestExitError(t *testing.T) {
	t.Parallel()

	if got := (&ExitError{Code: 4}).Error(); got != "exit status 4" {
		t.Errorf("Error() = %q", got)
	}
	inner := errors.New("inner")
	if err := (&ExitError{Code: 1, Err: inner}); !errors.Is(err, inner) || err.Error() != "inner" {
		t.Errorf("ExitError should wrap inner, got %q", err.Error())
	}
}

func TestFormatErrorForDisplay_Joined(t *testing.T) {
	t.Parallel()

	first := issue.NewErrorContext().
		WithOperation("verify workspace configuration").
		WithSuggestion("Re-run the workspace install").
		Wrap(pipeline.ErrWorkspaceDrift).
		BuildError()
	second := issue.NewErrorContext().
		WithOperation("verify aggregate dependencies").
		WithSuggestion("Commit the updated package.json file").
		Wrap(pipeline.ErrManifestDrift).
		BuildError()

	got := formatErrorForDisplay(errors.Join(first, second), false)
	for _, want := range []string{"failed to verify workspace configuration", "• Re-run the workspace install", "failed to verify aggregate dependencies", "• Commit the updated package.json file"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Error chain") {
		t.Error("non-verbose output should not include the error chain")
	}
	if verbose := formatErrorForDisplay(first, true); !strings.Contains(verbose, "Error chain:") {
		t.Errorf("verbose output should include the error chain:\n%s", verbose)
	}
}

func TestRerunCommand(t *testing.T) {
	t.Parallel()

	root := &cobra.Command{Use: "ubergen"}
	run := &cobra.Command{Use: "run"}
	root.AddCommand(run)

	tests := []struct {
		dir  string
		want string
	}{
		{"/repo/packages/aws-cdk-lib", "ubergen run --package-dir /repo/packages/aws-cdk-lib"},
		{"/my repo/lib", "ubergen run --package-dir '/my repo/lib'"},
	}
	for _, tt := range tests {
		if got := rerunCommand(run, tt.dir); got != tt.want {
			t.Errorf("rerunCommand(%q) = %q, want %q", tt.dir, got, tt.want)
		}
	}
}

func TestConfigValue_CoversEveryKey(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Codegen.Command = "true"
	for _, key := range config.Keys() {
		if configValue(cfg, key) == "" {
			t.Errorf("configValue(%q) is empty", key)
		}
	}
}
