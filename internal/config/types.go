// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/offbyone/aws-cdk/internal/bindings"
	"github.com/offbyone/aws-cdk/internal/discovery"
	"github.com/offbyone/aws-cdk/internal/fixtures"
	"github.com/offbyone/aws-cdk/internal/rewrite"
	"github.com/offbyone/aws-cdk/internal/transform"
	"github.com/offbyone/aws-cdk/internal/workspace"
)

const (
	// LogLevelDebug logs per-file decisions.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs phase progress.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs skips and corrections only.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs failures only.
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidParallelism is returned for a non-positive transform.parallelism.
	ErrInvalidParallelism = errors.New("invalid parallelism")
	// ErrEmptyValue is the sentinel wrapped by EmptyValueError.
	ErrEmptyValue = errors.New("empty configuration value")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level of emitted log records.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidParallelismError is returned for a non-positive parallelism.
	InvalidParallelismError struct {
		Value int
	}

	// EmptyValueError names a required key that resolved to an empty string.
	EmptyValueError struct {
		Key string
	}

	// InvalidConfigError collects the field errors of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// WorkspaceConfig locates the workspace root.
	WorkspaceConfig struct {
		// Marker is the file identifying the workspace root directory.
		Marker string `json:"marker" mapstructure:"marker" toml:"marker"`
	}

	// ModulesConfig locates and names the modules to aggregate.
	ModulesConfig struct {
		// Dir is the modules directory relative to the workspace root.
		Dir string `json:"dir" mapstructure:"dir" toml:"dir"`
		// Scope is the namespace prefix of module names.
		Scope string `json:"scope" mapstructure:"scope" toml:"scope"`
		// Foundational is the module re-exported at the aggregate's top level.
		Foundational string `json:"foundational" mapstructure:"foundational" toml:"foundational"`
	}

	// FixturesConfig names the documentation-example fixture directory.
	FixturesConfig struct {
		Dir string `json:"dir" mapstructure:"dir" toml:"dir"`
	}

	// FilesConfig controls which files get special treatment.
	FilesConfig struct {
		// Mapping is the resource-type mapping file name.
		Mapping string `json:"mapping" mapstructure:"mapping" toml:"mapping"`
		// Bindings is the binding side-file name.
		Bindings string `json:"bindings" mapstructure:"bindings" toml:"bindings"`
		// Ignore lists entry names never copied.
		Ignore []string `json:"ignore" mapstructure:"ignore" toml:"ignore"`
	}

	// BindingsConfig controls binding-target translation.
	BindingsConfig struct {
		PythonPrefix string `json:"python_prefix" mapstructure:"python_prefix" toml:"python_prefix"`
	}

	// TransformConfig tunes the file-tree transformer.
	TransformConfig struct {
		Parallelism int `json:"parallelism" mapstructure:"parallelism" toml:"parallelism"`
	}

	// CodegenConfig configures resource binding generation.
	CodegenConfig struct {
		// Command is a shell snippet; empty disables generation.
		Command string `json:"command" mapstructure:"command" toml:"command"`
	}

	// LogConfig configures logging.
	LogConfig struct {
		Level LogLevel `json:"level" mapstructure:"level" toml:"level"`
	}

	// Config holds the ubergen settings.
	Config struct {
		Workspace WorkspaceConfig `json:"workspace" mapstructure:"workspace" toml:"workspace"`
		Modules   ModulesConfig   `json:"modules" mapstructure:"modules" toml:"modules"`
		Fixtures  FixturesConfig  `json:"fixtures" mapstructure:"fixtures" toml:"fixtures"`
		Files     FilesConfig     `json:"files" mapstructure:"files" toml:"files"`
		Bindings  BindingsConfig  `json:"bindings" mapstructure:"bindings" toml:"bindings"`
		Transform TransformConfig `json:"transform" mapstructure:"transform" toml:"transform"`
		Codegen   CodegenConfig   `json:"codegen" mapstructure:"codegen" toml:"codegen"`
		Log       LogConfig       `json:"log" mapstructure:"log" toml:"log"`
	}
)

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error {
	return ErrInvalidLogLevel
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels,
// and a list of validation errors if it is not.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Level converts l to a logger level. Unknown values map to info.
func (l LogLevel) Level() log.Level {
	level, err := log.ParseLevel(string(l))
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// Error implements the error interface.
func (e *InvalidParallelismError) Error() string {
	return fmt.Sprintf("invalid parallelism %d (must be at least 1)", e.Value)
}

// Unwrap returns ErrInvalidParallelism for errors.Is() compatibility.
func (e *InvalidParallelismError) Unwrap() error { return ErrInvalidParallelism }

// Error implements the error interface.
func (e *EmptyValueError) Error() string {
	return fmt.Sprintf("%s must not be empty", e.Key)
}

// Unwrap returns ErrEmptyValue for errors.Is() compatibility.
func (e *EmptyValueError) Unwrap() error { return ErrEmptyValue }

// IsValid returns whether the TransformConfig has valid fields.
func (c TransformConfig) IsValid() (bool, []error) {
	if c.Parallelism < 1 {
		return false, []error{&InvalidParallelismError{Value: c.Parallelism}}
	}
	return true, nil
}

// IsValid returns whether the Config has valid fields. Values coming from a
// config file are already schema-checked; this catches what environment
// variables and flags can still break.
func (c *Config) IsValid() (bool, []error) {
	var errs []error
	required := []struct {
		key   string
		value string
	}{
		{"workspace.marker", c.Workspace.Marker},
		{"modules.dir", c.Modules.Dir},
		{"modules.scope", c.Modules.Scope},
		{"modules.foundational", c.Modules.Foundational},
		{"fixtures.dir", c.Fixtures.Dir},
		{"files.mapping", c.Files.Mapping},
		{"files.bindings", c.Files.Bindings},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, &EmptyValueError{Key: r.key})
		}
	}
	if valid, fieldErrs := c.Transform.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Log.Level.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msg := fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msg += "\n  " + fe.Error()
	}
	return msg
}

// Unwrap returns ErrInvalidConfig and the field errors for errors.Is()
// compatibility.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Workspace: WorkspaceConfig{Marker: workspace.DefaultMarker},
		Modules: ModulesConfig{
			Dir:          discovery.DefaultModulesDir,
			Scope:        discovery.DefaultScope,
			Foundational: discovery.DefaultFoundational,
		},
		Fixtures: FixturesConfig{Dir: fixtures.DefaultDir},
		Files: FilesConfig{
			Mapping:  rewrite.DefaultMappingFile,
			Bindings: bindings.FileName,
			Ignore:   append([]string(nil), transform.DefaultIgnore...),
		},
		Bindings:  BindingsConfig{PythonPrefix: bindings.DefaultPythonPrefix},
		Transform: TransformConfig{Parallelism: transform.DefaultParallelism},
		Log:       LogConfig{Level: LogLevelInfo},
	}
}
