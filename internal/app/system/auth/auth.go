// Package auth manages request identity for the JSON API.
//
// Two credentials are accepted: a bearer token in the Authorization
// header, and a signed session cookie set at login. Either one resolves
// to a user id, and the user record is loaded fresh on every request so
// grant changes and deactivation take effect immediately.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/contenthub/internal/app/system/authz"
	"github.com/dalemusser/contenthub/internal/domain/models"
)

const (
	SessionName = "contenthub-session"

	isAuthKey    = "is_authenticated"
	userIDKey    = "user_id"
	sessionIDKey = "sid"
)

// UserLoader loads a user record by id. Satisfied by the users store.
type UserLoader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// TokenResolver maps a raw bearer token to the user that owns it.
// Satisfied by the tokens store.
type TokenResolver interface {
	Resolve(ctx context.Context, raw string) (primitive.ObjectID, error)
}

// Manager issues and resolves request identity. One instance is shared
// by all handlers.
type Manager struct {
	store  *sessions.CookieStore
	users  UserLoader
	tokens TokenResolver
	logger *zap.Logger
}

// NewManager builds a Manager with a cookie session store keyed by
// sessionKey. The `secure` flag controls whether cookies are marked
// Secure and which SameSite mode is used: production wants Secure +
// SameSite=None, local dev over http://localhost wants secure=false.
func NewManager(sessionKey, domain string, secure bool, users UserLoader, tokens TokenResolver, logger *zap.Logger) (*Manager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &Manager{store: store, users: users, tokens: tokens, logger: logger}, nil
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the resolved user and a found flag.
func CurrentUser(r *http.Request) (*models.User, bool) {
	u, ok := r.Context().Value(currentUserKey).(*models.User)
	return u, ok
}

// WithTestUser returns a request whose context carries the given user,
// bypassing cookie and token resolution. Handler tests use this.
func WithTestUser(r *http.Request, u *models.User) *http.Request {
	return withUser(r, u)
}

// SignIn marks the session as authenticated for the given user and
// writes the cookie. It returns the correlation session id, minting one
// if the caller was anonymous until now.
func (m *Manager) SignIn(w http.ResponseWriter, r *http.Request, u *models.User) (string, error) {
	sess, _ := m.store.Get(r, SessionName)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID.Hex()
	sid, ok := sess.Values[sessionIDKey].(string)
	if !ok || sid == "" {
		sid = uuid.NewString()
		sess.Values[sessionIDKey] = sid
	}
	return sid, sess.Save(r, w)
}

// SignOut clears the session cookie. Bearer tokens are revoked
// separately by the logout handler.
func (m *Manager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, SessionName)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// SessionID returns the correlation id for the caller's session,
// minting and persisting one when the cookie does not carry it yet.
// The id exists before login so OAuth state and idempotency records
// can be tied to the anonymous caller.
func (m *Manager) SessionID(w http.ResponseWriter, r *http.Request) string {
	sess, _ := m.store.Get(r, SessionName)
	if sid, ok := sess.Values[sessionIDKey].(string); ok && sid != "" {
		return sid
	}
	sid := uuid.NewString()
	sess.Values[sessionIDKey] = sid
	if err := sess.Save(r, w); err != nil {
		m.logger.Warn("failed to persist session id", zap.Error(err))
	}
	return sid
}

// LoadUser resolves the caller's identity and injects the user into the
// request context. A bearer token wins over the cookie. Unknown or
// revoked credentials are not an error here; the request simply remains
// anonymous and RequireSignedIn rejects it downstream.
func (m *Manager) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := m.resolveBearer(r); ok {
			if u := m.loadActive(r.Context(), id); u != nil {
				next.ServeHTTP(w, withUser(r, u))
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		if id, ok := m.resolveCookie(r); ok {
			if u := m.loadActive(r.Context(), id); u != nil {
				next.ServeHTTP(w, withUser(r, u))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadUser).
// Anonymous callers get a 401 with a JSON body.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			writeJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission ensures the current user holds a grant for the
// given resource and action. Anonymous callers get 401, signed-in
// callers without the grant get 403.
func RequirePermission(resource models.Resource, action models.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !authz.Allow(u, resource, action) {
				writeJSONError(w, http.StatusForbidden, "permission denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin ensures the current user holds the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := CurrentUser(r)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !u.Role.IsAdmin() {
			writeJSONError(w, http.StatusForbidden, "permission denied")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// helpers

func (m *Manager) resolveBearer(r *http.Request) (primitive.ObjectID, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return primitive.NilObjectID, false
	}
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		return primitive.NilObjectID, false
	}
	id, err := m.tokens.Resolve(r.Context(), raw)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

func (m *Manager) resolveCookie(r *http.Request) (primitive.ObjectID, bool) {
	sess, _ := m.store.Get(r, SessionName)
	if isAuth, _ := sess.Values[isAuthKey].(bool); !isAuth {
		return primitive.NilObjectID, false
	}
	hex, _ := sess.Values[userIDKey].(string)
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// loadActive fetches the user and drops deactivated accounts.
func (m *Manager) loadActive(ctx context.Context, id primitive.ObjectID) *models.User {
	u, err := m.users.GetByID(ctx, id)
	if err != nil || u == nil {
		return nil
	}
	if !u.IsActive {
		return nil
	}
	return u
}

func withUser(r *http.Request, u *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`+"\n", msg)
}
