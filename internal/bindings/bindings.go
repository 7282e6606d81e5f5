// SPDX-License-Identifier: MPL-2.0

// Package bindings translates a module's multi-language binding targets into
// the per-submodule descriptor the aggregate ships next to each module.
package bindings

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/offbyone/aws-cdk/pkg/orderedjson"
)

const (
	// FileName is the descriptor written into each non-foundational module directory.
	FileName = ".jsiirc.json"

	// DefaultPythonPrefix is stripped from a module's python module name before
	// it is appended to the aggregate's.
	DefaultPythonPrefix = "aws_cdk."
)

// ErrUnsupportedLanguage is returned for binding targets that cannot be translated.
var ErrUnsupportedLanguage = errors.New("unsupported language for submodule configuration translation")

type (
	// Targets is an ordered language -> configuration object map.
	Targets = orderedjson.Map[json.RawMessage]

	// UnsupportedLanguageError names the language that could not be translated.
	UnsupportedLanguageError struct {
		Language string
	}

	// Descriptor is the content of a binding side-file.
	Descriptor struct {
		Targets *Targets `json:"targets,omitempty"`
	}

	// Translator turns module targets into submodule targets.
	Translator struct {
		// PythonPrefix is removed from module python names. Defaults to DefaultPythonPrefix.
		PythonPrefix string
		// FileName is the side-file name. Defaults to FileName.
		FileName string
	}

	dotnetConfig struct {
		Namespace string `json:"namespace"`
	}

	javaConfig struct {
		Package string `json:"package"`
	}

	pythonConfig struct {
		Module string `json:"module"`
	}
)

// Error implements the error interface.
func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("Unsupported language for submodule configuration translation: %s", e.Language)
}

// Unwrap returns ErrUnsupportedLanguage for errors.Is() compatibility.
func (e *UnsupportedLanguageError) Unwrap() error {
	return ErrUnsupportedLanguage
}

// Translate reduces moduleTargets to the fields a submodule needs:
//
//	dotnet -> {namespace}
//	java   -> {package}
//	python -> {module: <aggregate module>.<module without prefix>}
//
// Languages the aggregate does not target are dropped. A nil moduleTargets
// yields nil.
func (tr Translator) Translate(aggregateTargets, moduleTargets *Targets) (*Targets, error) {
	if moduleTargets == nil {
		return nil, nil
	}
	prefix := tr.PythonPrefix
	if prefix == "" {
		prefix = DefaultPythonPrefix
	}

	result := orderedjson.New[json.RawMessage]()
	var rangeErr error
	moduleTargets.Range(func(language string, raw json.RawMessage) bool {
		var translated any
		switch language {
		case "dotnet":
			if !aggregateTargets.Has(language) {
				return true
			}
			var cfg dotnetConfig
			if rangeErr = decodeTarget(language, raw, &cfg); rangeErr != nil {
				return false
			}
			translated = cfg
		case "java":
			if !aggregateTargets.Has(language) {
				return true
			}
			var cfg javaConfig
			if rangeErr = decodeTarget(language, raw, &cfg); rangeErr != nil {
				return false
			}
			translated = cfg
		case "python":
			aggRaw, ok := aggregateTargets.Get(language)
			if !ok {
				return true
			}
			var agg, mod pythonConfig
			if rangeErr = decodeTarget(language, aggRaw, &agg); rangeErr != nil {
				return false
			}
			if rangeErr = decodeTarget(language, raw, &mod); rangeErr != nil {
				return false
			}
			translated = pythonConfig{Module: agg.Module + "." + strings.TrimPrefix(mod.Module, prefix)}
		default:
			rangeErr = &UnsupportedLanguageError{Language: language}
			return false
		}

		encoded, err := json.Marshal(translated)
		if err != nil {
			rangeErr = err
			return false
		}
		result.Set(language, encoded)
		return true
	})
	if rangeErr != nil {
		return nil, rangeErr
	}
	return result, nil
}

// Write translates moduleTargets and writes the descriptor into dir.
func (tr Translator) Write(dir string, aggregateTargets, moduleTargets *Targets) error {
	targets, err := tr.Translate(aggregateTargets, moduleTargets)
	if err != nil {
		return err
	}
	name := tr.FileName
	if name == "" {
		name = FileName
	}
	return orderedjson.WriteFile(filepath.Join(dir, name), Descriptor{Targets: targets})
}

func decodeTarget(language string, raw json.RawMessage, into any) error {
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("decode %s target: %w", language, err)
	}
	return nil
}
