// SPDX-License-Identifier: MPL-2.0

package config

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/offbyone/aws-cdk/internal/issue"
	"github.com/offbyone/aws-cdk/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "ubergen"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "ubergen"
	// EnvPrefix prefixes every environment variable override.
	EnvPrefix = "UBERGEN"
	// DotEnvFileName is read from the package directory when present.
	DotEnvFileName = ".env"

	extCUE  = ".cue"
	extTOML = ".toml"
)

//go:embed config_schema.cue
var configSchema []byte

// keys lists every configuration key; each one is bound to its
// UBERGEN_<KEY> environment variable.
var keys = []string{
	"workspace.marker",
	"modules.dir",
	"modules.scope",
	"modules.foundational",
	"fixtures.dir",
	"files.mapping",
	"files.bindings",
	"files.ignore",
	"bindings.python_prefix",
	"transform.parallelism",
	"codegen.command",
	"log.level",
}

// Keys returns the configuration keys in display order.
func Keys() []string {
	return append([]string(nil), keys...)
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// loadWithOptions performs option-driven config loading. It returns the
// config and the path of the config file used, if any.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	resolvedPath := ""
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithSuggestion("Use 'ubergen config show' to see the effective configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		resolvedPath = opts.ConfigFilePath
	} else if opts.Dir != "" {
		for _, ext := range []string{extCUE, extTOML} {
			candidate := filepath.Join(opts.Dir, ConfigFileName+ext)
			if fileExists(candidate) {
				resolvedPath = candidate
				break
			}
		}
	}

	if resolvedPath != "" {
		if err := loadFileIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE or TOML syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("See 'ubergen config --help' for configuration options").
				Wrap(err).
				BuildError()
		}
	}

	if opts.Dir != "" {
		dotEnv := filepath.Join(opts.Dir, DotEnvFileName)
		if fileExists(dotEnv) {
			if err := loadDotEnvIntoViper(v, dotEnv); err != nil {
				return nil, "", issue.NewErrorContext().
					WithOperation("load configuration").
					WithResource(dotEnv).
					WithSuggestion("Check that every line is KEY=value").
					Wrap(err).
					BuildError()
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check the UBERGEN_* environment variables and command-line flags").
			WithSuggestion("Run 'ubergen config show' to see where each value comes from").
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

func setDefaults(v *viper.Viper, defaults *Config) {
	v.SetDefault("workspace.marker", defaults.Workspace.Marker)
	v.SetDefault("modules.dir", defaults.Modules.Dir)
	v.SetDefault("modules.scope", defaults.Modules.Scope)
	v.SetDefault("modules.foundational", defaults.Modules.Foundational)
	v.SetDefault("fixtures.dir", defaults.Fixtures.Dir)
	v.SetDefault("files.mapping", defaults.Files.Mapping)
	v.SetDefault("files.bindings", defaults.Files.Bindings)
	v.SetDefault("files.ignore", defaults.Files.Ignore)
	v.SetDefault("bindings.python_prefix", defaults.Bindings.PythonPrefix)
	v.SetDefault("transform.parallelism", defaults.Transform.Parallelism)
	v.SetDefault("codegen.command", defaults.Codegen.Command)
	v.SetDefault("log.level", string(defaults.Log.Level))
}

// loadFileIntoViper validates a CUE or TOML config file against the #Config
// schema and merges its contents into Viper. TOML documents are converted to
// JSON first, which CUE reads natively.
func loadFileIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), extTOML) {
		var doc map[string]any
		if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if data, err = json.Marshal(doc); err != nil {
			return fmt.Errorf("convert %s: %w", path, err)
		}
	}

	// Config fields are optional, so no concreteness requirement applies.
	result, err := cueutil.ParseAndDecode[map[string]any](configSchema, data, "#Config",
		cueutil.WithFilename(path), cueutil.WithConcrete(false))
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(*result.Value); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// loadDotEnvIntoViper merges the UBERGEN_* entries of a dotenv file into
// Viper's config layer, below real environment variables. The process
// environment is left untouched.
func loadDotEnvIntoViper(v *viper.Viper, path string) error {
	env, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	configMap := make(map[string]any)
	for _, key := range keys {
		value, ok := env[EnvName(key)]
		if !ok {
			continue
		}
		section, field, _ := strings.Cut(key, ".")
		sub, _ := configMap[section].(map[string]any)
		if sub == nil {
			sub = make(map[string]any)
			configMap[section] = sub
		}
		sub[field] = value
	}
	if len(configMap) == 0 {
		return nil
	}
	return v.MergeConfigMap(configMap)
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// MarshalTOML renders cfg as an ubergen.toml document.
func MarshalTOML(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// ubergen configuration\n\n")

	fmt.Fprintf(&sb, "workspace: marker: %q\n", cfg.Workspace.Marker)

	sb.WriteString("\nmodules: {\n")
	fmt.Fprintf(&sb, "\tdir:          %q\n", cfg.Modules.Dir)
	fmt.Fprintf(&sb, "\tscope:        %q\n", cfg.Modules.Scope)
	fmt.Fprintf(&sb, "\tfoundational: %q\n", cfg.Modules.Foundational)
	sb.WriteString("}\n")

	fmt.Fprintf(&sb, "\nfixtures: dir: %q\n", cfg.Fixtures.Dir)

	sb.WriteString("\nfiles: {\n")
	fmt.Fprintf(&sb, "\tmapping:  %q\n", cfg.Files.Mapping)
	fmt.Fprintf(&sb, "\tbindings: %q\n", cfg.Files.Bindings)
	if len(cfg.Files.Ignore) > 0 {
		sb.WriteString("\tignore: [\n")
		for _, name := range cfg.Files.Ignore {
			fmt.Fprintf(&sb, "\t\t%q,\n", name)
		}
		sb.WriteString("\t]\n")
	}
	sb.WriteString("}\n")

	fmt.Fprintf(&sb, "\nbindings: python_prefix: %q\n", cfg.Bindings.PythonPrefix)
	fmt.Fprintf(&sb, "\ntransform: parallelism: %d\n", cfg.Transform.Parallelism)
	if cfg.Codegen.Command != "" {
		fmt.Fprintf(&sb, "\ncodegen: command: %q\n", cfg.Codegen.Command)
	}
	fmt.Fprintf(&sb, "\nlog: level: %q\n", cfg.Log.Level)

	return sb.String()
}
