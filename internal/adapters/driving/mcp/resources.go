package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
)

const uriScheme = "sharepoint://"

// registerResources registers the resource handlers whose ports are configured.
func (s *Server) registerResources() {
	if s.ports.Sites != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "sites",
			Name:        "sites",
			Description: "Shared sites of the tenant, most recently modified first",
			MIMEType:    "application/json",
		}, s.handleSitesResource)
	}

	if s.ports.Document != nil {
		s.server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: uriScheme + "documents/{uniqueId}",
			Name:        "document",
			Description: "Search record of a document by unique id",
			MIMEType:    "application/json",
		}, s.handleDocumentResource)
	}
}

// handleSitesResource returns the discovered sites.
func (s *Server) handleSitesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	sites, err := s.ports.Sites.Sites(ctx, s.ports.Credentials)
	if err != nil {
		return nil, fmt.Errorf("listing sites: %w", err)
	}
	if sites == nil {
		sites = []string{}
	}
	return jsonResource(req.Params.URI, sites)
}

// handleDocumentResource returns the record of one document.
func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractUniqueID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	rec, err := s.ports.Document.ByUniqueID(ctx, s.ports.Credentials, "", id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return jsonResource(req.Params.URI, rec)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractUniqueID extracts the id from a URI like sharepoint://documents/{uniqueId}.
func extractUniqueID(uri string) string {
	const prefix = uriScheme + "documents/"

	id, ok := strings.CutPrefix(uri, prefix)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
