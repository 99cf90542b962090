package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driven"
)

// Ensure JSONLSink implements the interface.
var _ driven.RecordSink = (*JSONLSink)(nil)

// JSONLSink writes one JSON object per line.
type JSONLSink struct {
	mu  sync.Mutex
	enc *json.Encoder
	out io.Writer
}

// NewJSONLSink creates a sink writing to w. Close closes w if it is an io.Closer
// other than the process's standard streams.
func NewJSONLSink(w io.Writer) *JSONLSink {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLSink{enc: enc, out: w}
}

// WriteChange writes a change record line.
func (s *JSONLSink) WriteChange(_ context.Context, record domain.ChangeRecord) error {
	return s.write(record)
}

// WriteDocument writes a document record line.
func (s *JSONLSink) WriteDocument(_ context.Context, record domain.DocumentRecord) error {
	return s.write(record)
}

func (s *JSONLSink) write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(v); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer when it owns one.
func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.out.(interface{ Sync() error }); ok {
		_ = f.Sync()
	}
	if c, ok := s.out.(io.Closer); ok && !isStdStream(s.out) {
		return c.Close()
	}
	return nil
}

func isStdStream(w io.Writer) bool {
	return w == os.Stdout || w == os.Stderr
}
