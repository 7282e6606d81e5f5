// SPDX-License-Identifier: MPL-2.0

// Package config loads ubergen settings using Viper.
//
// Values are layered in increasing precedence: built-in defaults, a config
// file (ubergen.cue or ubergen.toml in the aggregate package directory, or an
// explicit --config path), a .env file in the same directory, UBERGEN_*
// environment variables and finally command-line overrides. Config files are
// validated against the embedded CUE schema (config_schema.cue) before they
// are merged, so a typo in a key or an out-of-range value is reported with its
// location instead of being silently ignored.
package config
