package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driven"
)

// Run is one recorded command execution.
type Run struct {
	ID         string
	Command    string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Ensure RunSink implements the interface.
var _ driven.RecordSink = (*RunSink)(nil)

// RunSink records the records of one run.
type RunSink struct {
	store *Store
	owned bool
	runID string

	mu  sync.Mutex
	seq int
}

// OpenRun opens the store in dataDir and starts a run that owns it.
// Closing the sink closes the store.
func OpenRun(ctx context.Context, dataDir, command string) (*RunSink, error) {
	store, err := NewStore(dataDir)
	if err != nil {
		return nil, err
	}
	sink, err := store.StartRun(ctx, command)
	if err != nil {
		store.Close()
		return nil, err
	}
	sink.owned = true
	return sink, nil
}

// StartRun inserts a new run and returns a sink for its records.
func (s *Store) StartRun(ctx context.Context, command string) (*RunSink, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, command, started_at) VALUES (?, ?, ?)",
		id, command, formatTime(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}
	return &RunSink{store: s, runID: id}, nil
}

// RunID returns the run's UUID.
func (r *RunSink) RunID() string {
	return r.runID
}

// WriteChange stores a change record.
func (r *RunSink) WriteChange(ctx context.Context, record domain.ChangeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++

	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO change_records (run_id, seq, operation, unique_id, site_name)
		VALUES (?, ?, ?, ?, ?)`,
		r.runID, r.seq, string(record.Operation), record.UniqueID, record.SiteName)
	if err != nil {
		return fmt.Errorf("inserting change record: %w", err)
	}
	return nil
}

// WriteDocument stores a document record.
func (r *RunSink) WriteDocument(ctx context.Context, record domain.DocumentRecord) error {
	props, err := json.Marshal(record.Properties)
	if err != nil {
		return fmt.Errorf("marshaling properties: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++

	_, err = r.store.db.ExecContext(ctx, `
		INSERT INTO document_records
			(run_id, seq, doc_path, relative_path, site_name, unique_id, doc_id, properties)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.runID, r.seq, record.Path, record.RelativePath, record.SiteName,
		record.UniqueID, record.DocID, string(props))
	if err != nil {
		return fmt.Errorf("inserting document record: %w", err)
	}
	return nil
}

// Close marks the run finished and closes the store if the sink owns it.
func (r *RunSink) Close() error {
	_, err := r.store.db.Exec("UPDATE runs SET finished_at = ? WHERE id = ?", formatTime(time.Now()), r.runID)
	if err != nil {
		err = fmt.Errorf("finishing run: %w", err)
	}
	if r.owned {
		err = errors.Join(err, r.store.Close())
	}
	return err
}

// Runs lists runs, most recent first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, command, started_at, finished_at FROM runs ORDER BY started_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run      Run
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.Command, &started, &finished); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.StartedAt = parseTime(started)
		if finished.Valid {
			t := parseTime(finished.String)
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Changes returns a run's change records in emission order.
func (s *Store) Changes(ctx context.Context, runID string) ([]domain.ChangeRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT operation, unique_id, site_name FROM change_records WHERE run_id = ? ORDER BY seq", runID)
	if err != nil {
		return nil, fmt.Errorf("querying change records: %w", err)
	}
	defer rows.Close()

	var records []domain.ChangeRecord
	for rows.Next() {
		var rec domain.ChangeRecord
		var op string
		if err := rows.Scan(&op, &rec.UniqueID, &rec.SiteName); err != nil {
			return nil, fmt.Errorf("scanning change record: %w", err)
		}
		rec.Operation = domain.Operation(op)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Documents returns a run's document records in emission order.
func (s *Store) Documents(ctx context.Context, runID string) ([]domain.DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc_path, relative_path, site_name, unique_id, doc_id, properties
		FROM document_records WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying document records: %w", err)
	}
	defer rows.Close()

	var records []domain.DocumentRecord
	for rows.Next() {
		var rec domain.DocumentRecord
		var props string
		if err := rows.Scan(&rec.Path, &rec.RelativePath, &rec.SiteName, &rec.UniqueID, &rec.DocID, &props); err != nil {
			return nil, fmt.Errorf("scanning document record: %w", err)
		}
		if err := json.Unmarshal([]byte(props), &rec.Properties); err != nil {
			return nil, fmt.Errorf("unmarshaling properties: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}
