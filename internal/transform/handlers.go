// SPDX-License-Identifier: MPL-2.0

package transform

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/offbyone/aws-cdk/internal/rewrite"
)

// fileHandler is the Handler used by Transformer.
type fileHandler struct {
	t *Transformer
}

func (h fileHandler) Directory(ctx context.Context, src, dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	return h.t.Tree(ctx, src, dst)
}

func (h fileHandler) Source(_ context.Context, src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	out := rewrite.Imports(string(data), h.t.relative.For(filepath.Dir(dst)))
	return h.t.writeFile(dst, []byte(out), 0o644)
}

func (h fileHandler) MappingFile(_ context.Context, src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	out, err := rewrite.MappingFile(data, h.t.opts.Scope, h.t.opts.Foundational, h.t.opts.AggregateName)
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}
	return h.t.writeFile(dst, out, 0o644)
}

func (h fileHandler) Readme(_ context.Context, src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	out := rewrite.StripStabilityBanner(rewrite.Readme(string(data), h.t.external))
	return h.t.writeFile(dst, []byte(out), 0o644)
}

// Opaque copies src to dst keeping the permission bits. Copying a file onto
// itself is a no-op.
func (h fileHandler) Opaque(_ context.Context, src, dst string) error {
	if filepath.Clean(src) == filepath.Clean(dst) {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	h.t.filesWritten.Add(1)
	return nil
}
