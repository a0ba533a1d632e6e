package mcp

import (
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Chat answers questions. Required.
	Chat driving.ChatService

	// Ingest builds the index. Optional; index tools are omitted without it.
	Ingest driving.IngestService

	// Documents lists the folder. Optional.
	Documents driving.DocumentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
