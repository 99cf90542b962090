package driven

import (
	"context"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
)

// RecordSink receives normalised records for downstream indexing.
// It is invoked once per emitted record.
type RecordSink interface {
	// WriteChange emits one change record.
	WriteChange(ctx context.Context, record domain.ChangeRecord) error

	// WriteDocument emits one document record.
	WriteDocument(ctx context.Context, record domain.DocumentRecord) error

	// Close flushes buffered records and releases resources.
	Close() error
}

// Progress receives human-readable progress lines.
// It is purely observational and must not affect control flow.
type Progress interface {
	Printf(format string, args ...any)
}

// NopProgress discards every progress line.
type NopProgress struct{}

// Printf implements Progress.
func (NopProgress) Printf(string, ...any) {}
