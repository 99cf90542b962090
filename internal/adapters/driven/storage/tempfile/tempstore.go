// Package tempfile saves downloaded content to the system temp directory.
package tempfile

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driven"
)

// Prefix starts every temp file name.
const Prefix = "sercha_sp_"

// Ensure Store implements the interface.
var _ driven.TempStore = (*Store)(nil)

// Store writes each saved stream to a new uniquely named file.
// Files are never removed by the store.
type Store struct {
	dir string
}

// NewStore creates a store in dir. Empty dir means os.TempDir().
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Save copies r into a new temp file and returns its path.
// The file name keeps name's extension so downstream extractors can sniff it.
func (s *Store) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	f, err := os.CreateTemp(s.dir, Prefix+"*"+safeExt(name))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	_, err = io.Copy(f, ctxReader{ctx: ctx, r: r})
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	return f.Name(), nil
}

func safeExt(name string) string {
	ext := filepath.Ext(name)
	if ext == "" || strings.ContainsAny(ext, `/\*`) {
		return ""
	}
	return ext
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
