// SPDX-License-Identifier: MPL-2.0

package codegen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

const (
	// EnvScopes carries the space-separated scope list to the generator command.
	EnvScopes = "UBERGEN_SCOPES"
	// EnvOutDir carries the output directory to the generator command.
	EnvOutDir = "UBERGEN_OUT_DIR"
)

var (
	// ErrNoGenerator is returned when generation is needed but no command is configured.
	ErrNoGenerator = errors.New("no code generator configured")

	// ErrInvalidScope is returned for a scope that is not of the form "Vendor::Service".
	ErrInvalidScope = errors.New("invalid resource scope")
)

type (
	// Generator produces resource binding sources for scopes into outDir.
	Generator interface {
		Generate(ctx context.Context, scopes []string, outDir string) error
	}

	// ShellGenerator runs a shell command in-process. The command sees the
	// scopes as positional parameters and in $UBERGEN_SCOPES, and the output
	// directory in $UBERGEN_OUT_DIR. It runs in Dir (or the output directory).
	ShellGenerator struct {
		Command string
		Dir     string
		// Env is appended to the process environment.
		Env    []string
		Stdout io.Writer
		Stderr io.Writer
	}

	// CommandError reports a generator command that exited non-zero.
	CommandError struct {
		Command  string
		ExitCode int
	}

	unconfigured struct{}
)

// Error implements the error interface.
func (e *CommandError) Error() string {
	return fmt.Sprintf("code generator %q exited with status %d", e.Command, e.ExitCode)
}

// Unconfigured returns a Generator that always fails with ErrNoGenerator.
func Unconfigured() Generator {
	return unconfigured{}
}

func (unconfigured) Generate(context.Context, []string, string) error {
	return ErrNoGenerator
}

// Generate implements Generator.
func (g *ShellGenerator) Generate(ctx context.Context, scopes []string, outDir string) error {
	if strings.TrimSpace(g.Command) == "" {
		return ErrNoGenerator
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(g.Command), "codegen")
	if err != nil {
		return fmt.Errorf("parse code generator command: %w", err)
	}

	env := append(os.Environ(), g.Env...)
	env = append(env,
		EnvScopes+"="+strings.Join(scopes, " "),
		EnvOutDir+"="+outDir,
	)

	dir := g.Dir
	if dir == "" {
		dir = outDir
	}
	stdout, stderr := g.Stdout, g.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	opts := []interp.RunnerOption{
		interp.StdIO(strings.NewReader(""), stdout, stderr),
		interp.Env(expand.ListEnviron(env...)),
		interp.Dir(dir),
	}
	if len(scopes) > 0 {
		opts = append(opts, interp.Params(append([]string{"--"}, scopes...)...))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return fmt.Errorf("create code generator shell: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &CommandError{Command: g.Command, ExitCode: int(exitStatus)}
		}
		return fmt.Errorf("run code generator: %w", err)
	}
	return nil
}

// ServiceName returns the generated file stem for scope: the lower-cased
// service segment, with "AWS::Serverless" mapped to "sam".
func ServiceName(scope string) (string, error) {
	if scope == "AWS::Serverless" {
		scope = "AWS::SAM"
	}
	parts := strings.Split(scope, "::")
	if len(parts) < 2 || parts[1] == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}
	return strings.ToLower(parts[1]), nil
}

// IndexSource returns the library index that re-exports the generated file of
// each scope, one statement per line.
func IndexSource(scopes []string) (string, error) {
	lines := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		svc, err := ServiceName(scope)
		if err != nil {
			return "", err
		}
		lines = append(lines, fmt.Sprintf("export * from './%s.generated';", svc))
	}
	return strings.Join(lines, "\n"), nil
}
