package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
)

const siteA = "https://t/sites/a"

var containerA = &domain.Container{SiteURL: siteA, ListID: "list-a", Title: "Documents"}

func TestChangeLogRetriever_AddThenDeleteAcrossPages(t *testing.T) {
	transport := newMockTransport()
	transport.changePages[siteA] = [][]domain.RawChange{
		{change(domain.ChangeAdd, "X", "t1", "2024-01-02T00:00:00Z")},
		{change(domain.ChangeDelete, "X", "t2", "2024-01-03T00:00:00Z")},
	}

	set, err := NewChangeLogRetriever(transport).Retrieve(context.Background(), &domain.Session{}, containerA, since)
	require.NoError(t, err)

	assert.Empty(t, set.ToIndex)
	assert.Equal(t, domain.ChangeToken("t2"), set.ToDelete["X"])
	assert.Equal(t, []domain.ChangeToken{"", "t1", "t2"}, transport.tokens[siteA])
}

func TestChangeLogRetriever_TokenFromFilteredRow(t *testing.T) {
	transport := newMockTransport()
	transport.changePages[siteA] = [][]domain.RawChange{
		{
			change(domain.ChangeAdd, "X", "t1", "2024-01-02T00:00:00Z"),
			// Too old and missing an id: filtered, but its token still drives the next page.
			change(domain.ChangeAdd, "", "t2", "2023-01-01T00:00:00Z"),
		},
	}

	set, err := NewChangeLogRetriever(transport).Retrieve(context.Background(), &domain.Session{}, containerA, since)
	require.NoError(t, err)

	assert.Equal(t, []string{"X"}, keys(set.ToIndex))
	assert.Equal(t, []domain.ChangeToken{"", "t2"}, transport.tokens[siteA])
}

func TestChangeLogRetriever_EmptyLog(t *testing.T) {
	transport := newMockTransport()

	set, err := NewChangeLogRetriever(transport).Retrieve(context.Background(), &domain.Session{}, containerA, since)
	require.NoError(t, err)
	assert.Zero(t, set.Len())
	assert.Len(t, transport.tokens[siteA], 1)
}

func TestChangeLogRetriever_KeepsPartialSetOnError(t *testing.T) {
	transport := newMockTransport()
	transport.changePages[siteA] = [][]domain.RawChange{
		{change(domain.ChangeUpdate, "X", "t1", "2024-01-02T00:00:00Z")},
	}
	transport.changeErr[siteA] = errTransport

	set, err := NewChangeLogRetriever(transport).Retrieve(context.Background(), &domain.Session{}, containerA, since)
	require.ErrorIs(t, err, errTransport)
	assert.Contains(t, err.Error(), "page 2")
	assert.Equal(t, []string{"X"}, keys(set.ToIndex))
}

func TestChangeLogRetriever_StopsOnRepeatedToken(t *testing.T) {
	transport := newMockTransport()
	page := []domain.RawChange{change(domain.ChangeAdd, "X", "same", "2024-01-02T00:00:00Z")}
	transport.changePages[siteA] = [][]domain.RawChange{page, page, page, page}

	set, err := NewChangeLogRetriever(transport).Retrieve(context.Background(), &domain.Session{}, containerA, since)
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, keys(set.ToIndex))
	assert.Equal(t, []domain.ChangeToken{"", "same"}, transport.tokens[siteA])
}

func TestChangeLogRetriever_StopsOnMissingToken(t *testing.T) {
	transport := newMockTransport()
	transport.changePages[siteA] = [][]domain.RawChange{
		{change(domain.ChangeAdd, "X", "", "2024-01-02T00:00:00Z")},
		{change(domain.ChangeAdd, "Y", "t2", "2024-01-02T00:00:00Z")},
	}

	set, err := NewChangeLogRetriever(transport).Retrieve(context.Background(), &domain.Session{}, containerA, since)
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, keys(set.ToIndex))
}

func TestChangeLogRetriever_Cancelled(t *testing.T) {
	transport := newMockTransport()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	set, err := NewChangeLogRetriever(transport).Retrieve(ctx, &domain.Session{}, containerA, since)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotNil(t, set)
	assert.Empty(t, transport.tokens[siteA])
}
