// Package tui provides the interactive chat terminal UI for askdocs.
// It is a driving adapter: all work goes through the driving ports.
package tui

import (
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Chat answers questions. Required.
	Chat driving.ChatService

	// Ingest reports the index status in the header. Optional.
	Ingest driving.IngestService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
