// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"encoding/json"
	"os"

	"github.com/offbyone/aws-cdk/pkg/cueutil"
	"github.com/offbyone/aws-cdk/pkg/orderedjson"

	"golang.org/x/exp/slices"
)

type (
	// Workspace is the workspace root manifest. Only the hoisting exclusion
	// list (workspaces.nohoist) is modelled.
	Workspace struct {
		// Packages holds the workspace package globs, if declared.
		Packages []string
		// Nohoist lists the packages excluded from hoisting.
		Nohoist []string
		// Path is the file the manifest was loaded from.
		Path string

		raw        *orderedjson.Map[json.RawMessage]
		workspaces *orderedjson.Map[json.RawMessage]
	}

	workspaceObject struct {
		Packages []string `json:"packages"`
		Nohoist  []string `json:"nohoist"`
	}
)

// LoadWorkspace reads the workspace manifest at path.
func LoadWorkspace(path string) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ws, err := ParseWorkspace(data, path)
	if err != nil {
		return nil, err
	}
	ws.Path = path
	return ws, nil
}

// ParseWorkspace validates and decodes a workspace manifest. The
// "workspaces" field may be an object, a list of package globs, or absent.
func ParseWorkspace(data []byte, filename string) (*Workspace, error) {
	if _, err := cueutil.Validate(manifestSchema, data, "#Workspace", cueutil.WithFilename(filename)); err != nil {
		return nil, &InvalidManifestError{Path: filename, Cause: err}
	}

	raw := orderedjson.New[json.RawMessage]()
	if err := json.Unmarshal(data, raw); err != nil {
		return nil, &InvalidManifestError{Path: filename, Cause: err}
	}
	ws := &Workspace{raw: raw}

	field, ok := raw.Get("workspaces")
	if !ok {
		return ws, nil
	}

	var globs []string
	if err := json.Unmarshal(field, &globs); err == nil {
		ws.Packages = globs
		return ws, nil
	}

	obj := orderedjson.New[json.RawMessage]()
	if err := json.Unmarshal(field, obj); err != nil {
		return nil, &InvalidManifestError{Path: filename, Cause: err}
	}
	var fields workspaceObject
	if err := json.Unmarshal(field, &fields); err != nil {
		return nil, &InvalidManifestError{Path: filename, Cause: err}
	}
	ws.workspaces = obj
	ws.Packages = fields.Packages
	ws.Nohoist = fields.Nohoist
	return ws, nil
}

// Clone returns a copy with independent package and nohoist lists.
func (w *Workspace) Clone() *Workspace {
	c := *w
	c.Packages = slices.Clone(w.Packages)
	c.Nohoist = slices.Clone(w.Nohoist)
	return &c
}

// HasNohoist reports whether entry is on the hoisting exclusion list.
func (w *Workspace) HasNohoist(entry string) bool {
	return slices.Contains(w.Nohoist, entry)
}

// MarshalJSON writes the original document with workspaces.nohoist replaced.
// A list-form "workspaces" field is promoted to the object form once a
// nohoist list exists.
func (w *Workspace) MarshalJSON() ([]byte, error) {
	doc := orderedjson.New[json.RawMessage]()
	if w.raw != nil {
		doc = w.raw.Clone()
	}

	if w.Nohoist == nil && w.workspaces == nil {
		return doc.MarshalJSON()
	}

	obj := orderedjson.New[json.RawMessage]()
	if w.workspaces != nil {
		obj = w.workspaces.Clone()
	}
	if w.Packages != nil {
		if err := setField(obj, "packages", w.Packages); err != nil {
			return nil, err
		}
	}
	if w.Nohoist != nil {
		if err := setField(obj, "nohoist", w.Nohoist); err != nil {
			return nil, err
		}
	}
	if err := setField(doc, "workspaces", obj); err != nil {
		return nil, err
	}
	return doc.MarshalJSON()
}

// Save writes the workspace manifest back to w.Path.
func (w *Workspace) Save() error {
	return orderedjson.WriteFile(w.Path, w)
}
