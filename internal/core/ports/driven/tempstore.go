package driven

import (
	"context"
	"io"
)

// TempStore persists downloaded binaries to a caller-visible location.
type TempStore interface {
	// Save writes r to a new temporary file and returns its path.
	// name is a hint used for the file suffix.
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}
