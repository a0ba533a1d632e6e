package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// Scopes are the read-only scopes requested for the service account.
var Scopes = []string{drive.DriveReadonlyScope, docs.DocumentsReadonlyScope}

// Credentials is a loaded service account key.
type Credentials struct {
	creds *googleoauth.Credentials

	// Email is the service account address folders must be shared with.
	Email string
}

// LoadCredentials reads a service account key file.
func LoadCredentials(ctx context.Context, path string) (*Credentials, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no service account credentials file configured "+
			"(set source.credentials_file or GOOGLE_APPLICATION_CREDENTIALS)", domain.ErrConfiguration)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: credentials file %s does not exist", domain.ErrConfiguration, path)
		}
		return nil, fmt.Errorf("%w: read credentials: %w", domain.ErrConfiguration, err)
	}
	return ParseCredentials(ctx, data)
}

// ParseCredentials parses a service account key.
func ParseCredentials(ctx context.Context, data []byte) (*Credentials, error) {
	var key struct {
		Type        string `json:"type"`
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("%w: credentials are not valid JSON: %w", domain.ErrConfiguration, err)
	}
	if key.Type != "service_account" {
		return nil, fmt.Errorf("%w: credentials type is %q, expected a service account key",
			domain.ErrConfiguration, key.Type)
	}

	//nolint:staticcheck // the key type is checked above
	creds, err := googleoauth.CredentialsFromJSON(ctx, data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: parse credentials: %w", domain.ErrConfiguration, err)
	}
	return &Credentials{creds: creds, Email: key.ClientEmail}, nil
}

// NewDriveService creates a Google Drive API client. Extra options follow
// the credentials, so tests can redirect the endpoint.
func NewDriveService(ctx context.Context, c *Credentials, opts ...option.ClientOption) (*drive.Service, error) {
	return drive.NewService(ctx, c.clientOptions(opts)...)
}

// NewDocsService creates a Google Docs API client.
func NewDocsService(ctx context.Context, c *Credentials, opts ...option.ClientOption) (*docs.Service, error) {
	return docs.NewService(ctx, c.clientOptions(opts)...)
}

func (c *Credentials) clientOptions(extra []option.ClientOption) []option.ClientOption {
	var opts []option.ClientOption
	if c != nil && c.creds != nil {
		opts = append(opts, option.WithCredentials(c.creds))
	}
	return append(opts, extra...)
}
