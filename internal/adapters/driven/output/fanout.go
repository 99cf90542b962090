package output

import (
	"context"
	"errors"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driven"
)

// Ensure Fanout implements the interface.
var _ driven.RecordSink = Fanout(nil)

// Fanout forwards every record to each sink in order.
// The first failing sink stops delivery of that record.
type Fanout []driven.RecordSink

// WriteChange implements driven.RecordSink.
func (f Fanout) WriteChange(ctx context.Context, record domain.ChangeRecord) error {
	for _, s := range f {
		if err := s.WriteChange(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

// WriteDocument implements driven.RecordSink.
func (f Fanout) WriteDocument(ctx context.Context, record domain.DocumentRecord) error {
	for _, s := range f {
		if err := s.WriteDocument(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and joins their errors.
func (f Fanout) Close() error {
	var errs []error
	for _, s := range f {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
