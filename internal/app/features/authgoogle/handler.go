// Package authgoogle implements the external-provider login path.
// The flow is browser-driven: GET /auth/google redirects to the
// provider's consent screen, and the callback signs the user into the
// cookie session. Accounts are matched by provider identity first,
// then by verified email; unknown users are provisioned with the
// default role and no grants.
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/dalemusser/contenthub/internal/app/store/oauthstate"
	"github.com/dalemusser/contenthub/internal/app/store/users"
	"github.com/dalemusser/contenthub/internal/app/system/auth"
	"github.com/dalemusser/contenthub/internal/app/system/timeouts"
	"github.com/dalemusser/contenthub/internal/domain/models"
)

// externalIDPrefix namespaces provider subject ids so a future second
// provider cannot collide with Google subjects.
const externalIDPrefix = "google:"

// stateTTL bounds how long a consent round-trip may take.
const stateTTL = 10 * time.Minute

// Handler handles Google OAuth authentication.
type Handler struct {
	Users        *userstore.Store
	States       *oauthstate.Store
	Auth         *auth.Manager
	Log          *zap.Logger
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://contenthub.example.com/auth/google/callback"
	SuccessURL   string // where the browser lands after login
	FailureURL   string // login page that renders ?error= codes
}

// NewHandler creates the Google OAuth handler.
func NewHandler(users *userstore.Store, states *oauthstate.Store, am *auth.Manager, clientID, clientSecret, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		Users:        users,
		States:       states,
		Auth:         am,
		Log:          logger,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
		SuccessURL:   "/",
		FailureURL:   "/login",
	}
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// ServeLogin handles GET /auth/google. It stores a single-use state
// token bound to the caller's correlation session and redirects to the
// consent screen.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		h.fail(w, r, "google_not_configured")
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		h.fail(w, r, "internal")
		return
	}

	sid := h.Auth.SessionID(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.States.Save(ctx, state, sid, time.Now().UTC().Add(stateTTL)); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		h.fail(w, r, "internal")
		return
	}

	url := h.oauth2Config().AuthCodeURL(state)

	h.Log.Debug("initiating Google OAuth flow",
		zap.String("redirect_url", url),
		zap.String("sid", sid))

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// ServeCallback handles GET /auth/google/callback: it validates the
// state, exchanges the code, resolves or provisions the account, and
// signs the browser session in.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		h.fail(w, r, "google_denied")
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		h.fail(w, r, "invalid_state")
		return
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	stateSID, valid, err := h.States.Validate(ctxTimeout, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		h.fail(w, r, "internal")
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		h.fail(w, r, "invalid_state")
		return
	}

	// The state must have been minted for this browser session.
	if sid := h.Auth.SessionID(w, r); stateSID != "" && sid != stateSID {
		h.Log.Warn("OAuth state session mismatch",
			zap.String("state_sid", stateSID),
			zap.String("request_sid", sid))
		h.fail(w, r, "invalid_state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		h.fail(w, r, "invalid_code")
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		h.fail(w, r, "token_exchange")
		return
	}

	googleUser, err := fetchGoogleUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		h.fail(w, r, "user_info")
		return
	}

	u, err := h.resolveUser(ctxTimeout, googleUser)
	if err != nil {
		if errors.Is(err, userstore.ErrAccountDisabled) {
			h.fail(w, r, "account_disabled")
			return
		}
		h.Log.Error("failed to resolve Google user", zap.Error(err))
		h.fail(w, r, "internal")
		return
	}

	if _, err := h.Auth.SignIn(w, r, u); err != nil {
		h.Log.Error("session write failed after Google login", zap.Error(err))
		h.fail(w, r, "session")
		return
	}

	h.Log.Info("user logged in via Google OAuth",
		zap.String("user_id", u.ID.Hex()),
		zap.String("email", u.Email))

	http.Redirect(w, r, h.SuccessURL, http.StatusSeeOther)
}

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// fetchGoogleUserInfo retrieves user information from Google's userinfo endpoint.
func fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	return &info, nil
}

// resolveUser maps a provider identity onto an account: by external id
// first, then by verified email (linking the identity), provisioning a
// fresh default-role account when neither matches.
func (h *Handler) resolveUser(ctx context.Context, g *googleUserInfo) (*models.User, error) {
	externalID := externalIDPrefix + g.ID

	u, err := h.Users.GetByExternalAuthID(ctx, externalID)
	if err == nil {
		if !u.IsActive {
			return nil, userstore.ErrAccountDisabled
		}
		return u, nil
	}
	if !errors.Is(err, userstore.ErrNotFound) {
		return nil, err
	}

	if g.EmailVerified {
		u, err = h.Users.GetByEmail(ctx, g.Email)
		if err == nil {
			if !u.IsActive {
				return nil, userstore.ErrAccountDisabled
			}
			if !u.HasExternalAuth() {
				if linkErr := h.Users.LinkExternalAuth(ctx, u.ID, externalID); linkErr != nil {
					h.Log.Warn("failed to link external identity",
						zap.Error(linkErr),
						zap.String("user_id", u.ID.Hex()))
				} else {
					u.ExternalAuthID = externalID
				}
			}
			return u, nil
		}
		if !errors.Is(err, userstore.ErrNotFound) {
			return nil, err
		}
	}

	return h.Users.Create(ctx, userstore.NewUser{
		Name:           g.Name,
		Email:          g.Email,
		ExternalAuthID: externalID,
		Role:           models.DefaultRole,
	})
}

// fail sends the browser back to the login page with an error code.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, h.FailureURL+"?error="+code, http.StatusSeeOther)
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
