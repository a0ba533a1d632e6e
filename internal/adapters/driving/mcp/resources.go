package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// uriScheme is the custom URI scheme for askdocs resources.
const uriScheme = "askdocs://"

// registerResources registers the resources whose ports are available.
func (s *Server) registerResources() {
	if s.ports.Documents != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "documents",
			Name:        "documents",
			Description: "Documents in the configured folder with their index state",
			MIMEType:    "application/json",
		}, s.handleDocumentsResource)

		s.server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: uriScheme + "documents/{documentId}",
			Name:        "document",
			Description: "Index state of a single document",
			MIMEType:    "application/json",
		}, s.handleDocumentResource)
	}

	if s.ports.Ingest != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "index/status",
			Name:        "index-status",
			Description: "Size of the persisted index and the last indexing run",
			MIMEType:    "application/json",
		}, s.handleStatusResource)
	}
}

func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	docs, err := s.ports.Documents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return jsonResource(req.Params.URI, docs)
}

func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docs, err := s.ports.Documents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	for _, d := range docs {
		if d.ID == docID {
			return jsonResource(req.Params.URI, d)
		}
	}
	return nil, mcp.ResourceNotFoundError(req.Params.URI)
}

func (s *Server) handleStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	status, err := s.ports.Ingest.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading index status: %w", err)
	}
	if status == nil {
		status = &domain.IndexStatus{}
	}
	return jsonResource(req.Params.URI, status)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractDocumentID extracts the document ID from a URI like askdocs://documents/{documentId}.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	return strings.TrimPrefix(uri, prefix)
}
