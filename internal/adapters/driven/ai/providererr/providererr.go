// Package providererr translates AI provider HTTP failures into domain errors.
package providererr

import (
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// maxBodyInError caps how much of a response body is echoed into an error.
const maxBodyInError = 300

// FromStatus returns an error for a non-2xx response from provider.
// 429 maps to domain.ErrRateLimited and 5xx to domain.ErrBackendUnavailable.
// 401 and 403 are rejected credentials: domain.ErrBackendUnavailable and
// domain.ErrConfiguration, so callers never retry them.
// Other statuses are returned unclassified.
func FromStatus(provider string, status int, body string) error {
	body = truncate(body, maxBodyInError)
	msg := fmt.Sprintf("%s: API returned status %d: %s", provider, status, body)

	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, msg)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return fmt.Errorf("%w: %w: %s", domain.ErrBackendUnavailable, domain.ErrConfiguration, msg)
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s", domain.ErrBackendUnavailable, msg)
	default:
		return fmt.Errorf("%s", msg)
	}
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// Transport wraps a network-level failure (DNS, refused connection, timeout).
func Transport(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrBackendUnavailable, provider, err)
}
