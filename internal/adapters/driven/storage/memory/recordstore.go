package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driven"
)

// Ensure RecordStore implements the interface.
var _ driven.RecordSink = (*RecordStore)(nil)

// RecordStore is an in-memory RecordSink that keeps records in emission order.
type RecordStore struct {
	mu        sync.RWMutex
	changes   []domain.ChangeRecord
	documents []domain.DocumentRecord
	closed    bool
}

// NewRecordStore creates an empty record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{}
}

// WriteChange appends a change record.
func (s *RecordStore) WriteChange(_ context.Context, record domain.ChangeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changes = append(s.changes, record)
	return nil
}

// WriteDocument appends a document record.
func (s *RecordStore) WriteDocument(_ context.Context, record domain.DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = append(s.documents, record)
	return nil
}

// Close marks the store closed. Records remain readable.
func (s *RecordStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Changes returns a copy of the change records.
func (s *RecordStore) Changes() []domain.ChangeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.changes)
}

// Documents returns a copy of the document records.
func (s *RecordStore) Documents() []domain.DocumentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.documents)
}

// Closed reports whether Close has been called.
func (s *RecordStore) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
