package services

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
)

var since = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func event(kind domain.ChangeKind, id string, ts time.Time) domain.ChangeEvent {
	return domain.ChangeEvent{ObjectUniqueID: id, Kind: kind, Token: domain.ChangeToken(id + ts.String()), Timestamp: ts}
}

func TestReconciler_AddThenDelete(t *testing.T) {
	r := NewReconciler(since)

	assert.True(t, r.Apply(event(domain.ChangeAdd, "a", since.Add(time.Hour))))
	assert.True(t, r.Apply(event(domain.ChangeUpdate, "b", since.Add(time.Hour))))
	assert.True(t, r.Apply(event(domain.ChangeDelete, "a", since.Add(2*time.Hour))))

	set := r.Result()
	assert.Equal(t, []string{"b"}, keys(set.ToIndex))
	assert.Equal(t, []string{"a"}, keys(set.ToDelete))
}

func TestReconciler_TimeBoundaryIsInclusive(t *testing.T) {
	r := NewReconciler(since)

	assert.True(t, r.Apply(event(domain.ChangeAdd, "exact", since)))
	assert.False(t, r.Apply(event(domain.ChangeAdd, "early", since.Add(-time.Microsecond))))

	assert.Equal(t, []string{"exact"}, keys(r.Result().ToIndex))
}

func TestReconciler_IgnoresOtherKinds(t *testing.T) {
	r := NewReconciler(since)

	assert.False(t, r.Apply(event(domain.ChangeOther, "a", since)))
	assert.False(t, r.Apply(event(domain.ChangeAdd, "", since)))
	assert.Zero(t, r.Result().Len())
}

// A delete is never withdrawn within a run: an object re-added after its
// delete is reported in both maps and the indexer sees the delete.
func TestReconciler_DeleteIsSticky(t *testing.T) {
	r := NewReconciler(since)

	r.Apply(event(domain.ChangeAdd, "a", since))
	r.Apply(event(domain.ChangeDelete, "a", since.Add(time.Minute)))
	r.Apply(event(domain.ChangeAdd, "a", since.Add(2*time.Minute)))

	set := r.Result()
	assert.Contains(t, set.ToIndex, "a")
	assert.Contains(t, set.ToDelete, "a")
}

func TestReconciler_KeepsLatestToken(t *testing.T) {
	r := NewReconciler(since)

	r.Apply(domain.ChangeEvent{ObjectUniqueID: "a", Kind: domain.ChangeAdd, Token: "t1", Timestamp: since})
	r.Apply(domain.ChangeEvent{ObjectUniqueID: "a", Kind: domain.ChangeUpdate, Token: "t2", Timestamp: since})

	assert.Equal(t, domain.ChangeToken("t2"), r.Result().ToIndex["a"])
}

func TestDecodeChange(t *testing.T) {
	tests := []struct {
		name string
		raw  domain.RawChange
		ok   bool
	}{
		{"zulu layout", change(domain.ChangeAdd, "a", "t", "2024-01-01T10:00:00Z"), true},
		{"offset layout", change(domain.ChangeAdd, "a", "t", "2024-01-01T10:00:00+02:00"), true},
		{"missing id", change(domain.ChangeAdd, "", "t", "2024-01-01T10:00:00Z"), false},
		{"missing time", change(domain.ChangeAdd, "a", "t", ""), false},
		{"bad time", change(domain.ChangeAdd, "a", "t", "yesterday"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := DecodeChange(tt.raw)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, "a", ev.ObjectUniqueID)
				assert.Equal(t, domain.ChangeToken("t"), ev.Token)
			}
		})
	}
}

// genEvents draws a sequence of events over a small id space so ids repeat.
func genEvents(t *rapid.T) []domain.ChangeEvent {
	kinds := []domain.ChangeKind{domain.ChangeAdd, domain.ChangeUpdate, domain.ChangeDelete, domain.ChangeOther}
	n := rapid.IntRange(0, 40).Draw(t, "events")
	events := make([]domain.ChangeEvent, n)
	for i := range events {
		events[i] = domain.ChangeEvent{
			ObjectUniqueID: rapid.SampledFrom([]string{"a", "b", "c", "d"}).Draw(t, "id"),
			Kind:           rapid.SampledFrom(kinds).Draw(t, "kind"),
			Token:          domain.ChangeToken(rapid.StringN(1, 8, -1).Draw(t, "token")),
			Timestamp:      since.Add(time.Duration(rapid.IntRange(-60, 60).Draw(t, "offset")) * time.Minute),
		}
	}
	return events
}

func TestReconciler_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		events := genEvents(t)

		r := NewReconciler(since)
		for _, ev := range events {
			r.Apply(ev)
		}
		set := r.Result()

		// Replaying the same stream must not change the outcome.
		again := NewReconciler(since)
		for _, ev := range append(events, events...) {
			again.Apply(ev)
		}
		if !assert.ObjectsAreEqual(keys(set.ToIndex), keys(again.Result().ToIndex)) ||
			!assert.ObjectsAreEqual(keys(set.ToDelete), keys(again.Result().ToDelete)) {
			t.Fatalf("replay changed the result")
		}

		last := map[string]domain.ChangeKind{}
		deleted := map[string]bool{}
		for _, ev := range events {
			if ev.Timestamp.Before(since) || ev.Kind == domain.ChangeOther {
				continue
			}
			last[ev.ObjectUniqueID] = ev.Kind
			if ev.Kind == domain.ChangeDelete {
				deleted[ev.ObjectUniqueID] = true
			}
		}

		for id, kind := range last {
			_, indexed := set.ToIndex[id]
			_, removed := set.ToDelete[id]
			switch kind {
			case domain.ChangeDelete:
				if indexed || !removed {
					t.Fatalf("%s: last event is a delete but indexed=%v removed=%v", id, indexed, removed)
				}
			default:
				if !indexed {
					t.Fatalf("%s: last event is %s but not indexed", id, kind)
				}
			}
			if deleted[id] != removed {
				t.Fatalf("%s: deleted=%v but removed=%v", id, deleted[id], removed)
			}
		}
		if len(set.ToIndex)+len(set.ToDelete) > 2*len(last) {
			t.Fatalf("set holds ids that had no qualifying event")
		}
		for id := range set.ToIndex {
			if _, ok := last[id]; !ok {
				t.Fatalf("%s indexed without a qualifying event", id)
			}
		}
	})
}

// Feeding a finished ToIndex back in as updates leaves it unchanged.
func TestReconciler_IndexSetIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		first := NewReconciler(since)
		for _, ev := range genEvents(t) {
			first.Apply(ev)
		}
		set := first.Result()

		again := NewReconciler(since)
		for _, id := range keys(set.ToIndex) {
			offset := time.Duration(rapid.IntRange(0, 60).Draw(t, "offset")) * time.Minute
			ok := again.Apply(domain.ChangeEvent{
				ObjectUniqueID: id,
				Kind:           domain.ChangeUpdate,
				Token:          set.ToIndex[id],
				Timestamp:      since.Add(offset),
			})
			if !ok {
				t.Fatalf("%s: update at or after the boundary was rejected", id)
			}
		}

		if !assert.ObjectsAreEqual(set.ToIndex, again.Result().ToIndex) {
			t.Fatalf("re-applied ToIndex %v differs from %v", again.Result().ToIndex, set.ToIndex)
		}
	})
}

func keys(m map[string]domain.ChangeToken) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
