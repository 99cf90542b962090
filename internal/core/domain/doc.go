// Package domain defines the core business entities for the SharePoint crawler.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Session: An authenticated handle scoped to one tenant
//   - ChangeEvent / ChangeSet: Change-log rows and their reconciled result
//   - ChangeRecord: A normalised to_index / to_delete record for the indexer
//   - DocumentRecord: A normalised search result row
//   - SearchQuery: A structural search request rendered by the transport
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
