// Package respond centralizes JSON encoding and the API error shape.
//
// Every error body is {"error": "..."} so clients can map failures by
// HTTP status alone. Validation failures use 422 and may carry a field
// map; authorization failures are opaque 403s.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const maxBodyBytes = 1 << 20 // 1 MiB request body cap

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes {"error": msg} with the given status.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"error": msg})
}

// Validation writes a 422 with an error message and optional per-field
// details.
func Validation(w http.ResponseWriter, msg string, fields map[string]string) {
	body := map[string]any{"error": msg}
	if len(fields) > 0 {
		body["fields"] = fields
	}
	JSON(w, http.StatusUnprocessableEntity, body)
}

// Forbidden writes the opaque authorization failure. The body never
// explains which grant was missing.
func Forbidden(w http.ResponseWriter) {
	Error(w, http.StatusForbidden, "forbidden")
}

// Unauthorized writes a 401. Bearer clients discard their token on
// seeing this.
func Unauthorized(w http.ResponseWriter) {
	Error(w, http.StatusUnauthorized, "authentication required")
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, "not found")
}

// RateLimited writes a 429 with a Retry-After header.
func RateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	secs := int(retryAfter.Round(time.Second).Seconds())
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	Error(w, http.StatusTooManyRequests, "rate limit exceeded")
}

// Unavailable writes a 503 for store or transport faults. The cause is
// logged by the caller, never leaked to the client.
func Unavailable(w http.ResponseWriter) {
	Error(w, http.StatusServiceUnavailable, "service unavailable")
}

// ErrBodyTooLarge is returned by Decode when the request body exceeds
// the cap.
var ErrBodyTooLarge = errors.New("request body too large")

// Decode reads a JSON request body into dst, rejecting unknown fields
// and oversized bodies.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return ErrBodyTooLarge
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
