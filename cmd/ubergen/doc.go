// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the ubergen command-line interface.
//
// Every command loads its configuration through App.Config, builds a
// pipeline.Options from it and renders the resulting pipeline.Report.
// Failures are printed by the command itself and surface as an *ExitError
// carrying the process exit code.
package cmd
