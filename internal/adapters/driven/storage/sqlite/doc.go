// Package sqlite records crawl runs and their emitted records in SQLite.
//
// It uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. Every run gets a UUID; change and document records are stored with
// their emission sequence so a run can be replayed in order.
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Applied versions are tracked in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-sp/data/records.db
package sqlite
