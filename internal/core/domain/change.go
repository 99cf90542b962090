package domain

import (
	"sort"
	"strings"
	"time"
)

// ChangeKind represents the type of a change-log event.
type ChangeKind int

const (
	// ChangeOther is any change type the crawler does not reconcile
	// (renames, restores, security changes, ...).
	ChangeOther ChangeKind = iota

	// ChangeAdd indicates a new object.
	ChangeAdd

	// ChangeUpdate indicates a modified object.
	ChangeUpdate

	// ChangeDelete indicates a removed object.
	ChangeDelete
)

// String returns the change kind name.
func (k ChangeKind) String() string {
	switch k {
	case ChangeAdd:
		return "Add"
	case ChangeUpdate:
		return "Update"
	case ChangeDelete:
		return "Delete"
	default:
		return "Other"
	}
}

// ChangeToken is an opaque resume point returned by the remote service.
// It is stored and replayed verbatim and must never be parsed.
type ChangeToken string

// RawChange is one change-log row as delivered by the transport.
type RawChange struct {
	// Kind is the mapped change type.
	Kind ChangeKind

	// Token is the row's change token.
	Token ChangeToken

	// Time is the unparsed event timestamp.
	Time string

	// Properties holds the remaining row fields, including UniqueId.
	Properties Properties
}

// ChangeEvent is a decoded change for one object. Immutable once produced.
type ChangeEvent struct {
	ObjectUniqueID string
	Kind           ChangeKind
	Token          ChangeToken
	Timestamp      time.Time
}

// ChangeSet is the reconciled result of a container's change-log crawl.
// An object id appears in ToIndex or ToDelete; deletes are never withdrawn
// within one run, so an id may appear in both when it was re-added after a delete.
type ChangeSet struct {
	ToIndex  map[string]ChangeToken
	ToDelete map[string]ChangeToken
}

// NewChangeSet creates an empty change set.
func NewChangeSet() *ChangeSet {
	return &ChangeSet{
		ToIndex:  make(map[string]ChangeToken),
		ToDelete: make(map[string]ChangeToken),
	}
}

// Len returns the total number of entries across both maps.
func (s *ChangeSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ToIndex) + len(s.ToDelete)
}

// Records flattens the change set into change records for a site.
// Index records come first; ids are sorted within each operation so output is stable.
func (s *ChangeSet) Records(site string) []ChangeRecord {
	if s == nil {
		return nil
	}

	siteName := strings.ToLower(site)
	records := make([]ChangeRecord, 0, s.Len())
	for _, id := range sortedKeys(s.ToIndex) {
		records = append(records, ChangeRecord{Operation: OperationIndex, UniqueID: id, SiteName: siteName})
	}
	for _, id := range sortedKeys(s.ToDelete) {
		records = append(records, ChangeRecord{Operation: OperationDelete, UniqueID: id, SiteName: siteName})
	}
	return records
}

func sortedKeys(m map[string]ChangeToken) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Operation is the action the downstream indexer must take for a record.
type Operation string

const (
	// OperationIndex asks the indexer to (re)index the object.
	OperationIndex Operation = "to_index"

	// OperationDelete asks the indexer to drop the object.
	OperationDelete Operation = "to_delete"
)

// ChangeRecord is one normalised change emitted to the sink.
type ChangeRecord struct {
	Operation Operation `json:"operation"`
	UniqueID  string    `json:"uniqueId"`
	SiteName  string    `json:"siteName"`
}
