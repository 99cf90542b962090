package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultPageSize is the number of rows requested per search page.
const DefaultPageSize = 500

// SortByLastModifiedDesc orders results most recently modified first.
const SortByLastModifiedDesc = "LastModifiedTime:descending"

// kqlTimeLayout is the timestamp layout accepted by search predicates.
const kqlTimeLayout = "2006-01-02T15:04:05"

// siteContentClasses matches site collections and sub-webs.
const siteContentClasses = "contentclass:STS_Site OR contentclass:STS_Web"

// BaseSelectProperties are always requested for document searches.
var BaseSelectProperties = []string{PropPath, PropLastModifiedTime, PropSiteName, PropUniqueID}

// SearchQuery is a structural search request. The transport is responsible
// for quoting and URL-encoding it.
type SearchQuery struct {
	// QueryText is the free-text query, unquoted.
	QueryText string

	// SelectProperties lists the result columns. Empty means the service default.
	SelectProperties []string

	// SortList is the sort specification, e.g. "LastModifiedTime:descending".
	SortList string

	// RowLimit is the page size. Zero means the service default.
	RowLimit int

	// StartRow is the zero-based offset of the first row.
	StartRow int
}

// QueryFunc builds the query for one page.
type QueryFunc func(from, size int) SearchQuery

// SiteDiscoveryQuery returns a paged query over every site and sub-web,
// most recently modified first.
func SiteDiscoveryQuery() QueryFunc {
	return func(from, size int) SearchQuery {
		return SearchQuery{
			QueryText: siteContentClasses,
			SortList:  SortByLastModifiedDesc,
			RowLimit:  size,
			StartRow:  from,
		}
	}
}

// DocumentSearchQuery returns a paged document query combining the caller's
// request with structural predicates. since and request are optional.
func DocumentSearchQuery(request string, since *time.Time, extra []string) QueryFunc {
	text := DocumentQueryText(request, since)
	props := MergeSelectProperties(BaseSelectProperties, extra)
	return func(from, size int) SearchQuery {
		return SearchQuery{
			QueryText:        text,
			SelectProperties: props,
			SortList:         SortByLastModifiedDesc,
			RowLimit:         size,
			StartRow:         from,
		}
	}
}

// DocumentQueryText builds "(request) AND LastModifiedTime>t AND IsDocument:true",
// omitting the parts that were not supplied.
func DocumentQueryText(request string, since *time.Time) string {
	parts := make([]string, 0, 3)
	if r := strings.TrimSpace(request); r != "" {
		parts = append(parts, "("+r+")")
	}
	if since != nil {
		parts = append(parts, "LastModifiedTime>"+since.UTC().Format(kqlTimeLayout))
	}
	parts = append(parts, "IsDocument:true")
	return strings.Join(parts, " AND ")
}

// PathQuery matches the single document at an absolute path.
func PathQuery(path string) SearchQuery {
	return SearchQuery{
		QueryText: fmt.Sprintf("Path:%q", path),
		RowLimit:  1,
	}
}

// UniqueIDQuery matches a document by unique id inside a site.
func UniqueIDQuery(site, uniqueID string) SearchQuery {
	text := fmt.Sprintf("UniqueId:%q", NormalizeUniqueID(uniqueID))
	if site != "" {
		text += fmt.Sprintf(" AND Path:%q", strings.TrimRight(site, "/")+"*")
	}
	return SearchQuery{
		QueryText:        text,
		SelectProperties: BaseSelectProperties,
		RowLimit:         1,
	}
}

// MergeSelectProperties appends extra to base, skipping blanks and duplicates.
// Order is preserved.
func MergeSelectProperties(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	merged := make([]string, 0, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, p := range list {
			p = strings.TrimSpace(p)
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			merged = append(merged, p)
		}
	}
	return merged
}

// ParseSelectProperties parses a comma-separated property list.
func ParseSelectProperties(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return MergeSelectProperties(nil, strings.Split(s, ","))
}
