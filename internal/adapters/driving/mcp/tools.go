package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// TurnInput is one prior message of the conversation.
type TurnInput struct {
	Role    string `json:"role" jsonschema:"user or assistant"`
	Content string `json:"content" jsonschema:"the message text"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string      `json:"question" jsonschema:"the question to answer from the indexed documents"`
	History  []TurnInput `json:"history,omitempty" jsonschema:"earlier turns of the conversation, oldest first"`
}

// SourceOutput is one cited passage.
type SourceOutput struct {
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	Excerpt      string  `json:"excerpt"`
	Distance     float64 `json:"distance"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer          string         `json:"answer"`
	Sources         []SourceOutput `json:"sources"`
	IsClarification bool           `json:"is_clarification"`
	RephrasedQuery  string         `json:"rephrased_query,omitempty"`
}

// IndexFolderInput is the input schema for the index_folder tool.
type IndexFolderInput struct {
	DocumentID string `json:"document_id,omitempty" jsonschema:"index only this document and add it to the existing index"`
}

// IndexFolderOutput is the output schema for the index_folder tool.
type IndexFolderOutput struct {
	RunID              string                  `json:"run_id"`
	ChunksIndexed      int                     `json:"chunks_indexed"`
	DocumentsProcessed int                     `json:"documents_processed"`
	FailedDocuments    []domain.FailedDocument `json:"failed_documents,omitempty"`
}

// IndexStatusInput is the (empty) input schema for the index_status tool.
type IndexStatusInput struct{}

// IndexStatusOutput is the output schema for the index_status tool.
type IndexStatusOutput struct {
	Exists    bool   `json:"exists"`
	Passages  int    `json:"passages"`
	Documents int    `json:"documents"`
	LastRun   string `json:"last_run,omitempty"`
}

// ListDocumentsInput is the (empty) input schema for the list_documents tool.
type ListDocumentsInput struct{}

// DocumentOutput describes one document in the folder.
type DocumentOutput struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Modified string `json:"modified"`
	Indexed  bool   `json:"indexed"`
	Stale    bool   `json:"stale"`
}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// registerTools registers the tools whose ports are available.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the indexed documents, citing the passages used",
	}, s.handleAsk)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "index_folder",
			Description: "Index every document in the configured folder, or a single document by ID",
		}, s.handleIndexFolder)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "index_status",
			Description: "Report whether an index exists, its size and the last indexing run",
		}, s.handleIndexStatus)
	}

	if s.ports.Documents != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_documents",
			Description: "List the documents in the configured folder and whether each is indexed",
		}, s.handleListDocuments)
	}
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, AskOutput{}, toolError(fmt.Errorf("%w: question is empty", domain.ErrInvalidInput))
	}

	history := make([]domain.ConversationTurn, 0, len(input.History))
	for i, t := range input.History {
		role := domain.Role(strings.ToLower(t.Role))
		if !role.IsValid() {
			return nil, AskOutput{}, toolError(fmt.Errorf("%w: history turn %d has role %q",
				domain.ErrInvalidInput, i+1, t.Role))
		}
		history = append(history, domain.ConversationTurn{Role: role, Content: t.Content})
	}

	answer, err := s.ports.Chat.Ask(ctx, question, history)
	if err != nil {
		return nil, AskOutput{}, toolError(err)
	}

	output := AskOutput{
		Answer:          answer.Text,
		Sources:         make([]SourceOutput, len(answer.Sources)),
		IsClarification: answer.IsClarification,
		RephrasedQuery:  answer.RephrasedQuery,
	}
	for i, c := range answer.Sources {
		output.Sources[i] = SourceOutput{
			DocumentID:   c.DocumentID,
			DocumentName: c.DocumentName,
			Excerpt:      c.Excerpt,
			Distance:     c.Distance,
		}
	}
	return nil, output, nil
}

func (s *Server) handleIndexFolder(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndexFolderInput,
) (*mcp.CallToolResult, IndexFolderOutput, error) {
	var (
		result *domain.IngestResult
		err    error
	)
	if id := strings.TrimSpace(input.DocumentID); id != "" {
		result, err = s.ports.Ingest.IngestOne(ctx, id)
	} else {
		result, err = s.ports.Ingest.IngestFolder(ctx)
	}
	if err != nil {
		return nil, IndexFolderOutput{}, toolError(err)
	}

	return nil, IndexFolderOutput{
		RunID:              result.RunID,
		ChunksIndexed:      result.ChunksIndexed,
		DocumentsProcessed: result.DocumentsProcessed,
		FailedDocuments:    result.FailedDocuments,
	}, nil
}

func (s *Server) handleIndexStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ IndexStatusInput,
) (*mcp.CallToolResult, IndexStatusOutput, error) {
	status, err := s.ports.Ingest.Status(ctx)
	if err != nil {
		return nil, IndexStatusOutput{}, toolError(err)
	}

	output := IndexStatusOutput{
		Exists:    status.Exists,
		Passages:  status.Passages,
		Documents: status.Documents,
	}
	if run := status.LastRun; run != nil {
		output.LastRun = fmt.Sprintf("%s %s at %s: %d passages from %d documents",
			run.Kind, run.Status, run.StartedAt.UTC().Format("2006-01-02T15:04:05Z"),
			run.ChunksIndexed, run.DocumentsProcessed)
	}
	return nil, output, nil
}

func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.ports.Documents.List(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, toolError(err)
	}

	output := ListDocumentsOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i, d := range docs {
		output.Documents[i] = DocumentOutput{
			ID:       d.ID,
			Name:     d.Name,
			Modified: d.ModifiedTime,
			Indexed:  d.Indexed,
			Stale:    d.Stale,
		}
	}
	return nil, output, nil
}
