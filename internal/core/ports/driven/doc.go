// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - SessionProvider: Turns credentials into an authenticated Session
//   - QueryTransport: Search, change-log and file requests against the tenant
//   - RecordSink: Receives change records and document records for indexing
//
// # Optional Interfaces
//
// These can be nil - the services fall back to a no-op:
//
//   - Progress: Human-readable progress lines
//   - TempStore: Only needed for binary downloads
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
