// internal/gateway/session.go
package gateway

import "github.com/google/uuid"

// SessionContext carries the caller's identity for a single request.
// It is passed per call; the client holds no identity state of its own.
type SessionContext struct {
	// SessionID correlates requests from one logical client session.
	SessionID string
	// BearerToken authenticates the caller. Empty means anonymous.
	BearerToken string
}

// NewSessionContext mints a session context with a fresh correlation id
// and the given bearer token.
func NewSessionContext(token string) *SessionContext {
	return &SessionContext{
		SessionID:   uuid.NewString(),
		BearerToken: token,
	}
}

// Invalidate clears the bearer token. The client calls it when the
// service answers 401; the token is dead and must not be resent.
func (sc *SessionContext) Invalidate() {
	sc.BearerToken = ""
}

// Authenticated reports whether the context still carries a token.
func (sc *SessionContext) Authenticated() bool {
	return sc != nil && sc.BearerToken != ""
}

// NewIdempotencyKey mints a key for safely retryable creates.
func NewIdempotencyKey() string { return uuid.NewString() }
