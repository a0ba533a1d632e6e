// Package mcp provides an MCP (Model Context Protocol) server adapter for askdocs.
// It lets AI assistants ask questions about the indexed documents and manage the index.
package mcp

import (
	"errors"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// ErrMissingChatService is returned when the chat service is not provided.
var ErrMissingChatService = errors.New("mcp: chat service is required")

// toolError turns a service error into the message shown to the assistant.
func toolError(err error) error {
	c := domain.Classify(err)
	if c.Remediation == "" {
		return errors.New(string(c.Kind) + ": " + c.Message)
	}
	return errors.New(string(c.Kind) + ": " + c.Message + ". " + c.Remediation)
}
