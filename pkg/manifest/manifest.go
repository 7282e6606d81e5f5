// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/offbyone/aws-cdk/pkg/cueutil"
	"github.com/offbyone/aws-cdk/pkg/orderedjson"

	"golang.org/x/exp/slices"
)

const (
	// FileName is the manifest file name inside every package directory.
	FileName = "package.json"

	// StabilityExperimental marks a module whose API is not yet stable.
	StabilityExperimental = "experimental"
)

var (
	//go:embed manifest_schema.cue
	manifestSchema []byte

	// ErrInvalidManifest is returned when a manifest cannot be parsed or does
	// not satisfy the manifest schema.
	ErrInvalidManifest = errors.New("invalid package manifest")
)

type (
	// ExportMap is the ordered "exports" table: public subpath -> internal file.
	ExportMap = orderedjson.Map[string]

	// Dependencies is an ordered name -> version map.
	Dependencies = orderedjson.Map[string]

	// InvalidManifestError describes a manifest that failed to load.
	// It wraps ErrInvalidManifest for errors.Is() compatibility.
	InvalidManifestError struct {
		Path  string
		Cause error
	}

	// Package is a parsed package manifest. Fields the pipeline reads are
	// exposed; everything else is kept in document order and written back
	// untouched by Marshal.
	Package struct {
		Name      string
		Version   string
		Stability string
		Types     string
		Main      string
		// Deprecated is true when the manifest carries a truthy "deprecated" field.
		Deprecated bool

		Dependencies    *Dependencies
		DevDependencies *Dependencies
		// BundleDependencies is the legacy "bundleDependencies" spelling.
		BundleDependencies []string
		// BundledDependencies is the "bundledDependencies" list. A nil slice means
		// the field is absent from the document.
		BundledDependencies []string

		Exports  *ExportMap
		JSII     *JSII
		CDKBuild *CDKBuild
		Ubergen  *AggregationConfig

		// Path is the file the manifest was loaded from (empty for parsed data).
		Path string

		raw *orderedjson.Map[json.RawMessage]
	}

	// JSII is the multi-language binding configuration block.
	JSII struct {
		Targets *orderedjson.Map[json.RawMessage] `json:"targets,omitempty"`
	}

	// CDKBuild carries build settings; only the code-generation scopes are read.
	CDKBuild struct {
		Cloudformation Scopes `json:"cloudformation,omitempty"`
	}

	// Scopes is a list of resource-schema scopes such as "AWS::S3". It accepts a
	// single string or an array in JSON.
	Scopes []string

	// AggregationConfig is the "ubergen" block of a manifest.
	AggregationConfig struct {
		// Exclude keeps a module out of the aggregate.
		Exclude bool `json:"exclude,omitempty"`
		// DeprecatedPackages lists module names the aggregate refuses to include.
		// A non-nil empty slice is meaningful: see discovery.
		DeprecatedPackages []string `json:"deprecatedPackages,omitempty"`
		// ExcludeExperimentalModules strips experimental modules to their generated bindings.
		ExcludeExperimentalModules bool `json:"excludeExperimentalModules,omitempty"`
	}

	packageFields struct {
		Name                string             `json:"name"`
		Version             string             `json:"version"`
		Stability           string             `json:"stability"`
		Types               string             `json:"types"`
		Main                string             `json:"main"`
		Deprecated          json.RawMessage    `json:"deprecated"`
		Dependencies        *Dependencies      `json:"dependencies"`
		DevDependencies     *Dependencies      `json:"devDependencies"`
		BundleDependencies  []string           `json:"bundleDependencies"`
		BundledDependencies []string           `json:"bundledDependencies"`
		Exports             *ExportMap         `json:"exports"`
		JSII                *JSII              `json:"jsii"`
		CDKBuild            *CDKBuild          `json:"cdk-build"`
		Ubergen             *AggregationConfig `json:"ubergen"`
	}
)

// Error implements the error interface.
func (e *InvalidManifestError) Error() string {
	return fmt.Sprintf("invalid package manifest %s: %v", e.Path, e.Cause)
}

// Unwrap exposes both ErrInvalidManifest and the underlying cause.
func (e *InvalidManifestError) Unwrap() []error {
	return []error{ErrInvalidManifest, e.Cause}
}

// NewDependencies returns an empty dependency map.
func NewDependencies() *Dependencies {
	return orderedjson.New[string]()
}

// NewExportMap returns an empty export map.
func NewExportMap() *ExportMap {
	return orderedjson.New[string]()
}

// UnmarshalJSON accepts either a string or an array of strings.
func (s *Scopes) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = Scopes{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("cloudformation scopes must be a string or a list of strings: %w", err)
	}
	*s = list
	return nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pkg, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	pkg.Path = path
	return pkg, nil
}

// Parse validates data against the manifest schema and decodes it. filename
// is used in error messages only.
func Parse(data []byte, filename string) (*Package, error) {
	if _, err := cueutil.Validate(manifestSchema, data, "#Package", cueutil.WithFilename(filename)); err != nil {
		return nil, &InvalidManifestError{Path: filename, Cause: err}
	}

	raw := orderedjson.New[json.RawMessage]()
	if err := json.Unmarshal(data, raw); err != nil {
		return nil, &InvalidManifestError{Path: filename, Cause: err}
	}
	var fields packageFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &InvalidManifestError{Path: filename, Cause: err}
	}

	return &Package{
		Name:                fields.Name,
		Version:             fields.Version,
		Stability:           fields.Stability,
		Types:               fields.Types,
		Main:                fields.Main,
		Deprecated:          truthy(fields.Deprecated),
		Dependencies:        fields.Dependencies,
		DevDependencies:     fields.DevDependencies,
		BundleDependencies:  fields.BundleDependencies,
		BundledDependencies: fields.BundledDependencies,
		Exports:             fields.Exports,
		JSII:                fields.JSII,
		CDKBuild:            fields.CDKBuild,
		Ubergen:             fields.Ubergen,
		raw:                 raw,
	}, nil
}

// BundleList returns the module's bundled dependency names, preferring the
// legacy "bundleDependencies" spelling when both are present.
func (p *Package) BundleList() []string {
	if p.BundleDependencies != nil {
		return p.BundleDependencies
	}
	return p.BundledDependencies
}

// IsExperimental reports whether the module declares experimental stability.
func (p *Package) IsExperimental() bool {
	return p.Stability == StabilityExperimental
}

// Aggregation returns the "ubergen" block, or an empty one.
func (p *Package) Aggregation() AggregationConfig {
	if p.Ubergen == nil {
		return AggregationConfig{}
	}
	return *p.Ubergen
}

// GenerationScopes returns the declared code-generation scopes, nil if none.
func (p *Package) GenerationScopes() []string {
	if p.CDKBuild == nil {
		return nil
	}
	return p.CDKBuild.Cloudformation
}

// Clone returns a copy whose mutable fields (dependency maps, bundle lists
// and exports) can be changed without affecting p.
func (p *Package) Clone() *Package {
	c := *p
	if p.Dependencies != nil {
		c.Dependencies = p.Dependencies.Clone()
	}
	if p.DevDependencies != nil {
		c.DevDependencies = p.DevDependencies.Clone()
	}
	if p.Exports != nil {
		c.Exports = p.Exports.Clone()
	}
	c.BundleDependencies = slices.Clone(p.BundleDependencies)
	c.BundledDependencies = slices.Clone(p.BundledDependencies)
	return &c
}

// MarshalJSON writes the original document with the mutable fields replaced
// by their current values. New fields are appended at the end.
func (p *Package) MarshalJSON() ([]byte, error) {
	doc := orderedjson.New[json.RawMessage]()
	if p.raw != nil {
		doc = p.raw.Clone()
	} else {
		if err := setField(doc, "name", p.Name); err != nil {
			return nil, err
		}
		if p.Version != "" {
			if err := setField(doc, "version", p.Version); err != nil {
				return nil, err
			}
		}
	}

	if p.Dependencies != nil {
		if err := setField(doc, "dependencies", p.Dependencies); err != nil {
			return nil, err
		}
	}
	if p.DevDependencies != nil {
		if err := setField(doc, "devDependencies", p.DevDependencies); err != nil {
			return nil, err
		}
	}
	if p.BundledDependencies != nil {
		if err := setField(doc, "bundledDependencies", p.BundledDependencies); err != nil {
			return nil, err
		}
	} else {
		doc.Delete("bundledDependencies")
	}
	if p.Exports != nil {
		if err := setField(doc, "exports", p.Exports); err != nil {
			return nil, err
		}
	}

	return doc.MarshalJSON()
}

// Save writes the manifest to p.Path.
func (p *Package) Save() error {
	if p.Path == "" {
		return fmt.Errorf("save manifest %s: no path", p.Name)
	}
	return orderedjson.WriteFile(p.Path, p)
}

func setField(doc *orderedjson.Map[json.RawMessage], key string, value any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	doc.Set(key, json.RawMessage(bytes.TrimRight(buf.Bytes(), "\n")))
	return nil
}

func truthy(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	case nil:
		return false
	default:
		return true
	}
}
