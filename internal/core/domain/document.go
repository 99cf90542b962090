package domain

import "strings"

// Well-known search result properties.
const (
	PropPath             = "Path"
	PropUniqueID         = "UniqueId"
	PropSiteName         = "SiteName"
	PropLastModifiedTime = "LastModifiedTime"
	PropDocID            = "DocId"
)

// Properties is a flat view of a result row's key/value cells.
type Properties map[string]string

// Get returns the value for key and whether it was present.
func (p Properties) Get(key string) (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p[key]
	return v, ok
}

// Cell is one key/value pair of a raw result row. Either side may be missing.
type Cell struct {
	Key   *string `json:"Key"`
	Value *string `json:"Value"`
}

// Row is a raw search result row.
type Row struct {
	Cells []Cell
}

// Properties decodes the row's cells into a flat map.
// Cells missing either the key or the value are ignored.
func (r Row) Properties() Properties {
	props := make(Properties, len(r.Cells))
	for _, c := range r.Cells {
		if c.Key == nil || c.Value == nil {
			continue
		}
		props[*c.Key] = *c.Value
	}
	return props
}

// DocumentRecord is a normalised search result.
type DocumentRecord struct {
	// Path is the absolute document URL.
	Path string `json:"docPath"`

	// RelativePath is Path without scheme and host, always starting with "/".
	// Empty when Path is missing.
	RelativePath string `json:"relativePath"`

	// SiteName is the containing site URL as reported by search.
	SiteName string `json:"siteName"`

	// UniqueID is the object id without enclosing braces.
	UniqueID string `json:"uniqueId,omitempty"`

	// DocID is the search engine's document id.
	DocID string `json:"docId,omitempty"`

	// Properties is the full decoded row, passed through to the sink.
	Properties Properties `json:"properties"`
}

// NewDocumentRecord normalises a decoded result row.
func NewDocumentRecord(props Properties) DocumentRecord {
	rec := DocumentRecord{Properties: props}
	if path, ok := props.Get(PropPath); ok {
		rec.Path = path
		rec.RelativePath = RelativePath(path)
	}
	if site, ok := props.Get(PropSiteName); ok {
		rec.SiteName = site
	}
	if id, ok := props.Get(PropUniqueID); ok {
		rec.UniqueID = NormalizeUniqueID(id)
	}
	if docID, ok := props.Get(PropDocID); ok {
		rec.DocID = docID
	}
	return rec
}

// RelativePath strips the scheme and host from an absolute URL.
//
//	https://tenant.sharepoint.com/sites/a/f.docx -> /sites/a/f.docx
//
// A path without a scheme separator is treated as host-prefixed.
func RelativePath(path string) string {
	rest := path
	if _, after, found := strings.Cut(path, "//"); found {
		rest = after
	}
	_, tail, _ := strings.Cut(rest, "/")
	return "/" + tail
}

// NormalizeUniqueID strips enclosing brace characters from an object id.
func NormalizeUniqueID(id string) string {
	return strings.Trim(id, "{}")
}

// ListItem is the subset of a document library item needed for lookup.
type ListItem struct {
	ID string

	// EncodedAbsURL is the item's absolute, URL-encoded location.
	EncodedAbsURL string

	// FileSystemObjectType is 0 for files, 1 for folders.
	FileSystemObjectType int
}

// IsFile returns true if the item is a file rather than a folder.
func (i *ListItem) IsFile() bool {
	return i.FileSystemObjectType == 0
}

// Container is an opened per-site document library.
type Container struct {
	// SiteURL is the site the library belongs to.
	SiteURL string

	// ListID is the library's GUID.
	ListID string

	// Title is the library display title.
	Title string
}
