package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// StatusCode returns the HTTP status of a Google API error, or 0.
func StatusCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsForbidden returns true if the error indicates insufficient permissions.
func IsForbidden(err error) bool {
	return StatusCode(err) == http.StatusForbidden
}

// IsRateLimited returns true if the error indicates rate limiting.
// Drive reports per-user limits as 403 with a rateLimitExceeded reason.
func IsRateLimited(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	if gerr.Code == http.StatusTooManyRequests {
		return true
	}
	if gerr.Code == http.StatusForbidden {
		for _, item := range gerr.Errors {
			if item.Reason == "rateLimitExceeded" || item.Reason == "userRateLimitExceeded" {
				return true
			}
		}
	}
	return false
}

// WrapError converts a Google API error into domain errors.
// what names the resource, e.g. `folder "abc"`.
func WrapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	switch {
	case IsRateLimited(err):
		return fmt.Errorf("%w: %w: %s: %w", domain.ErrSourceAccess, domain.ErrRateLimited, what, err)
	case IsNotFound(err):
		return fmt.Errorf("%w: %w: %s: %w", domain.ErrSourceAccess, domain.ErrNotFound, what, err)
	case IsForbidden(err):
		return fmt.Errorf("%w: %w: %s: %w", domain.ErrSourceAccess, domain.ErrPermissionDenied, what, err)
	case StatusCode(err) == http.StatusUnauthorized:
		return fmt.Errorf("%w: invalid service account credentials: %w", domain.ErrSourceAccess, err)
	default:
		return fmt.Errorf("%w: %s: %w", domain.ErrSourceAccess, what, err)
	}
}
