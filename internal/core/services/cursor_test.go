package services

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
)

// slicePages serves rows by offset and counts requests.
func slicePages(rows []domain.Row, calls *int) PageFunc {
	return func(_ context.Context, from, size int) ([]domain.Row, error) {
		*calls++
		if from >= len(rows) {
			return nil, nil
		}
		return rows[from:min(from+size, len(rows))], nil
	}
}

func numberedRows(n int) []domain.Row {
	rows := make([]domain.Row, n)
	for i := range rows {
		rows[i] = row("n", strconv.Itoa(i))
	}
	return rows
}

func TestPageCursor_TerminatesAfterEmptyPage(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 2000).Draw(t, "rows")
		size := rapid.IntRange(1, 600).Draw(t, "page_size")

		calls := 0
		cursor := NewPageCursor(slicePages(numberedRows(n), &calls), size)

		var seen []string
		err := cursor.Each(context.Background(), func(r domain.Row) error {
			v, _ := r.Properties().Get("n")
			seen = append(seen, v)
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		wantCalls := (n+size-1)/size + 1
		if calls != wantCalls || cursor.Pages() != wantCalls {
			t.Fatalf("rows=%d size=%d: got %d requests, want %d", n, size, calls, wantCalls)
		}
		if len(seen) != n {
			t.Fatalf("got %d rows, want %d", len(seen), n)
		}
		for i, v := range seen {
			if v != strconv.Itoa(i) {
				t.Fatalf("row %d out of order: %s", i, v)
			}
		}
	})
}

func TestPageCursor_Offsets(t *testing.T) {
	var offsets []int
	fetch := func(_ context.Context, from, size int) ([]domain.Row, error) {
		offsets = append(offsets, from)
		assert.Equal(t, domain.DefaultPageSize, size)
		if from >= 1200 {
			return nil, nil
		}
		return numberedRows(min(size, 1200-from)), nil
	}

	cursor := NewPageCursor(fetch, 0)
	require.NoError(t, cursor.Each(context.Background(), func(domain.Row) error { return nil }))
	assert.Equal(t, []int{0, 500, 1000, 1500}, offsets)
}

func TestPageCursor_PropagatesPageError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	fetch := func(_ context.Context, from, _ int) ([]domain.Row, error) {
		calls++
		if from > 0 {
			return nil, boom
		}
		return numberedRows(2), nil
	}

	cursor := NewPageCursor(fetch, 2)

	rows, ok, err := cursor.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, rows, 2)

	_, ok, err = cursor.Next(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)

	// No retry after a failure.
	_, ok, err = cursor.Next(context.Background())
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, calls)
}

func TestPageCursor_StopsOnCallbackError(t *testing.T) {
	calls := 0
	cursor := NewPageCursor(slicePages(numberedRows(10), &calls), 3)
	stop := errors.New("stop")

	count := 0
	err := cursor.Each(context.Background(), func(domain.Row) error {
		count++
		if count == 4 {
			return stop
		}
		return nil
	})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, calls)
}

func TestPageCursor_Cancelled(t *testing.T) {
	calls := 0
	cursor := NewPageCursor(slicePages(numberedRows(10), &calls), 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cursor.Each(ctx, func(domain.Row) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}
