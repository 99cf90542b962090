// Package sharepoint implements the query transport over the SharePoint REST API.
//
// All calls use the verbose OData envelope (application/json;odata=verbose) and
// present the session's access token as a bearer credential. Requests are
// throttled proactively and retried when the service answers 429 or 503.
package sharepoint
