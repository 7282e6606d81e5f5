// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestId_Constants(t *testing.T) {
	seen := make(map[Id]bool)
	for _, i := range Values() {
		if seen[i.Id()] {
			t.Errorf("duplicate ID: %d", i.Id())
		}
		seen[i.Id()] = true
	}

	if WorkspaceRootNotFoundId != 1 {
		t.Errorf("WorkspaceRootNotFoundId = %d, want 1", WorkspaceRootNotFoundId)
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		id       Id
		wantNil  bool
		contains string
	}{
		{WorkspaceRootNotFoundId, false, "No workspace root found"},
		{ManifestInvalidId, false, "manifest is invalid"},
		{ConfigLoadFailedId, false, "Failed to load configuration"},
		{BundleConflictId, false, "Conflicting bundled dependency"},
		{ManifestDriftId, false, "aggregate manifest was out of date"},
		{WorkspaceDriftId, false, "hoisting list was out of date"},
		{UnsupportedLanguageId, false, "Unsupported binding language"},
		{CodegenFailedId, false, "Code generation failed"},
		{PermissionDeniedId, false, "Permission denied"},
		{UnsafeLibRootId, false, "Unsafe library root"},
		{Id(9999), true, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			issue := Get(tt.id)

			if tt.wantNil {
				if issue != nil {
					t.Errorf("Get(%d) should return nil", tt.id)
				}
				return
			}

			if issue == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}
			if !strings.Contains(string(issue.MarkdownMsg()), tt.contains) {
				t.Errorf("Get(%d).MarkdownMsg() should contain '%s'", tt.id, tt.contains)
			}
		})
	}
}

func TestValues(t *testing.T) {
	issues := Values()
	if len(issues) != int(UnsafeLibRootId) {
		t.Errorf("Values() returned %d issues, want %d", len(issues), UnsafeLibRootId)
	}
	for idx, issue := range issues {
		if issue.Id() != Id(idx+1) {
			t.Errorf("Values()[%d].Id() = %d, want ordered ids", idx, issue.Id())
		}
	}

	// Mutating the returned slice must not change the catalog.
	issues[0] = nil
	if Values()[0] == nil {
		t.Error("Values() should return a copy")
	}
}

func TestIssue_Render_WithLinks(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	render = func(in string, stylePath string) (string, error) {
		return in, nil
	}

	testIssue := &Issue{
		id:       Id(9999),
		mdMsg:    "# Test Issue\n\nThis is a test.",
		docLinks: []HttpLink{"https://docs.example.com"},
		extLinks: []HttpLink{"https://external.example.com"},
	}

	rendered, err := testIssue.Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if !strings.Contains(rendered, "See also") || !strings.Contains(rendered, "https://external.example.com") {
		t.Errorf("Render() with links should list them, got:\n%s", rendered)
	}
	if links := testIssue.DocLinks(); len(links) != 1 {
		t.Errorf("DocLinks() = %v", links)
	}
}

func TestAllIssuesAreRenderable(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	render = func(in string, stylePath string) (string, error) {
		return in, nil
	}

	for _, issue := range Values() {
		rendered, err := issue.Render("")
		if err != nil {
			t.Errorf("Issue %d failed to render: %v", issue.Id(), err)
		}
		if strings.Contains(rendered, "See also") {
			t.Errorf("Issue %d has no links but rendered a See also section", issue.Id())
		}
	}
}

func TestIssue_RenderWithGlamour(t *testing.T) {
	rendered, err := Get(BundleConflictId).Render("notty")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(rendered, "Conflicting bundled dependency versions") {
		t.Errorf("glamour output lost the heading:\n%s", rendered)
	}
}
