// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/offbyone/aws-cdk/internal/config"
)

const (
	formatText = "text"
	formatCUE  = "cue"
	formatTOML = "toml"
)

// newConfigCommand creates the `ubergen config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect ubergen configuration",
		Long: `Inspect ubergen configuration.

Configuration is read, in increasing precedence, from built-in defaults,
ubergen.cue or ubergen.toml in the package directory (or the --config
file), a .env file in the package directory, UBERGEN_* environment
variables and command-line flags.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var format string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, app, format)
		},
	}
	showCmd.Flags().StringVarP(&format, "format", "f", formatText, "output format (text, cue, toml)")
	cfgCmd.AddCommand(showCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "keys",
		Short: "List configuration keys and their environment variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, key := range config.Keys() {
				fmt.Fprintf(app.stdout, "%-24s %s\n", key, config.EnvName(key))
			}
			return nil
		},
	})

	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App, format string) error {
	switch format {
	case formatText, formatCUE, formatTOML:
	default:
		return fmt.Errorf("unknown format %q (valid: %s, %s, %s)", format, formatText, formatCUE, formatTOML)
	}

	s, err := app.newSession(cmd)
	if err != nil {
		return err
	}

	switch format {
	case formatCUE:
		fmt.Fprint(app.stdout, config.GenerateCUE(s.cfg))
	case formatTOML:
		out, err := config.MarshalTOML(s.cfg)
		if err != nil {
			return fmt.Errorf("encode configuration: %w", err)
		}
		fmt.Fprint(app.stdout, string(out))
	default:
		printConfig(app.stdout, s)
	}
	return nil
}

func printConfig(w io.Writer, s *session) {
	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if s.configPath != "" {
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("Config file"), s.configPath)
	} else {
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)
	for _, key := range config.Keys() {
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render(key), SuccessStyle.Render(configValue(s.cfg, key)))
	}
}

func configValue(cfg *config.Config, key string) string {
	switch key {
	case "workspace.marker":
		return cfg.Workspace.Marker
	case "modules.dir":
		return cfg.Modules.Dir
	case "modules.scope":
		return cfg.Modules.Scope
	case "modules.foundational":
		return cfg.Modules.Foundational
	case "fixtures.dir":
		return cfg.Fixtures.Dir
	case "files.mapping":
		return cfg.Files.Mapping
	case "files.bindings":
		return cfg.Files.Bindings
	case "files.ignore":
		return strings.Join(cfg.Files.Ignore, ", ")
	case "bindings.python_prefix":
		return cfg.Bindings.PythonPrefix
	case "transform.parallelism":
		return strconv.Itoa(cfg.Transform.Parallelism)
	case "codegen.command":
		return cfg.Codegen.Command
	case "log.level":
		return cfg.Log.Level.String()
	default:
		return ""
	}
}
