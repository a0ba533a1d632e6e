// Package google provides shared infrastructure for the Google Drive source.
//
// It contains:
//   - Service-account credential loading and API client factories
//   - Translation of Google API errors (401, 403, 404, 429) into domain errors
//   - Rate limiting to respect Google API quotas
//
// # Usage
//
//	creds, err := google.LoadCredentials(ctx, "service-account.json")
//	files, err := google.NewDriveService(ctx, creds)
//	docs, err := google.NewDocsService(ctx, creds)
//
// # OAuth2 Scopes
//
// The source only reads:
//   - https://www.googleapis.com/auth/drive.readonly
//   - https://www.googleapis.com/auth/documents.readonly
//
// The folder must be shared with the service account's email address.
package google
