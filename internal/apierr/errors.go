// Package apierr provides the error sentinels shared by every generative-text
// provider adapter, plus the transport retry helper they use.
//
// Adapters classify provider-specific failures into these sentinels with
// fmt.Errorf("%s: %w", msg, sentinel). Callers check with errors.Is.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for Capability failures.
var (
	// ErrRateLimit indicates the provider throttled the request (HTTP 429).
	// It is fatal for the current run: throttling policy belongs to the provider.
	ErrRateLimit = errors.New("provider rate limit exceeded")

	// ErrQuotaExceeded indicates the account quota or billing limit was reached.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTimeout indicates a request timed out or the provider returned a 5xx.
	ErrTimeout = errors.New("request timeout")

	// ErrAuthFailed indicates the API key was rejected.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrBadRequest indicates a client error (4xx) that is not otherwise classified.
	ErrBadRequest = errors.New("bad request")

	// ErrEmptyResponse indicates the provider answered without any usable text.
	ErrEmptyResponse = errors.New("empty response from provider")
)

// FromStatus maps an HTTP status code and provider message to a wrapped sentinel.
// Returns nil for statuses that carry no classification (2xx, unknown codes).
func FromStatus(status int, msg string) error {
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch status {
	case http.StatusTooManyRequests:
		// Providers reuse 429 for exhausted billing quotas.
		lower := strings.ToLower(msg)
		if strings.Contains(lower, "quota") || strings.Contains(lower, "billing") {
			return fmt.Errorf("%s: %w", msg, ErrQuotaExceeded)
		}
		return fmt.Errorf("%s: %w", msg, ErrRateLimit)
	case http.StatusPaymentRequired:
		return fmt.Errorf("%s: %w", msg, ErrQuotaExceeded)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w", msg, ErrAuthFailed)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout,
		http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return fmt.Errorf("%s: %w", msg, ErrTimeout)
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		return fmt.Errorf("%s: %w", msg, ErrBadRequest)
	}
	return nil
}

// IsTransient reports whether err is a transport-level failure worth retrying.
// Provider throttling is deliberately excluded.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTimeout)
}
