// internal/gateway/errors.go
package gateway

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnauthenticated is returned when the service answers 401. The
// bearer token carried in the SessionContext has been invalidated and
// must not be reused.
var ErrUnauthenticated = errors.New("authentication required")

// ErrNotFound is returned when the requested item does not exist or is
// not visible to the caller.
var ErrNotFound = errors.New("not found")

// ValidationError reports a 422 response. Fields, when present, maps
// field names to messages.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (%d field(s))", e.Message, len(e.Fields))
}

// AuthorizationDenied reports a 403 response. The service keeps the
// reason opaque, so this error carries none.
type AuthorizationDenied struct{}

func (e *AuthorizationDenied) Error() string { return "forbidden" }

// RateLimited reports a 429 response. RetryAfter is the server's
// suggested wait, zero when the header was absent.
type RateLimited struct {
	RetryAfter time.Duration
}

func (e *RateLimited) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

// TransientStoreError reports that every attempt at a retryable request
// failed with a transport error or 5xx response.
type TransientStoreError struct {
	Attempts int
	Last     error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("request failed after %d attempt(s): %v", e.Attempts, e.Last)
}

func (e *TransientStoreError) Unwrap() error { return e.Last }
