package services

import (
	"time"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
)

// changeTimeLayouts are the timestamp formats accepted on change rows.
var changeTimeLayouts = []string{"2006-01-02T15:04:05Z", time.RFC3339}

// Reconciler folds an ordered stream of change events into a ChangeSet.
// The last processed event per object wins, with one asymmetry: an object
// that entered ToDelete stays there even if it is added again later.
type Reconciler struct {
	since time.Time
	set   *domain.ChangeSet
}

// NewReconciler creates a reconciler that ignores events strictly before since.
func NewReconciler(since time.Time) *Reconciler {
	return &Reconciler{
		since: since,
		set:   domain.NewChangeSet(),
	}
}

// Apply processes one event and reports whether it changed the set.
func (r *Reconciler) Apply(ev domain.ChangeEvent) bool {
	if ev.ObjectUniqueID == "" || ev.Timestamp.Before(r.since) {
		return false
	}

	switch ev.Kind {
	case domain.ChangeAdd, domain.ChangeUpdate:
		r.set.ToIndex[ev.ObjectUniqueID] = ev.Token
	case domain.ChangeDelete:
		r.set.ToDelete[ev.ObjectUniqueID] = ev.Token
		delete(r.set.ToIndex, ev.ObjectUniqueID)
	default:
		return false
	}
	return true
}

// ApplyRaw decodes a raw row and applies it. Malformed rows are skipped.
func (r *Reconciler) ApplyRaw(raw domain.RawChange) bool {
	ev, ok := DecodeChange(raw)
	if !ok {
		return false
	}
	return r.Apply(ev)
}

// Result returns the accumulated change set.
func (r *Reconciler) Result() *domain.ChangeSet {
	return r.set
}

// DecodeChange turns a raw change row into an event. It returns false for
// rows without a parseable timestamp or without a UniqueId property.
func DecodeChange(raw domain.RawChange) (domain.ChangeEvent, bool) {
	id, ok := raw.Properties.Get(domain.PropUniqueID)
	if !ok || id == "" {
		return domain.ChangeEvent{}, false
	}

	ts, ok := parseChangeTime(raw.Time)
	if !ok {
		return domain.ChangeEvent{}, false
	}

	return domain.ChangeEvent{
		ObjectUniqueID: id,
		Kind:           raw.Kind,
		Token:          raw.Token,
		Timestamp:      ts,
	}, true
}

func parseChangeTime(s string) (time.Time, bool) {
	for _, layout := range changeTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
