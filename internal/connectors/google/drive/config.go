package drive

import "github.com/custodia-labs/askdocs/internal/connectors/google"

// Google Workspace MIME types.
const (
	MimeTypeGoogleDoc = "application/vnd.google-apps.document"
	MimeTypeFolder    = "application/vnd.google-apps.folder"
)

// Config holds Google Drive source configuration.
type Config struct {
	// PageSize is the page size for files.list requests.
	PageSize int64
	// RateLimit paces every Drive and Docs request.
	RateLimit google.RateLimitConfig
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		PageSize:  100,
		RateLimit: google.DefaultRateLimit,
	}
}
