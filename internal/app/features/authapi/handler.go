// Package authapi serves the account endpoints: register, login,
// logout, password reset, email verification, and the current-user
// profile.
package authapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/dalemusser/contenthub/internal/app/features/shared/respond"
	"github.com/dalemusser/contenthub/internal/app/store/tokens"
	"github.com/dalemusser/contenthub/internal/app/store/users"
	"github.com/dalemusser/contenthub/internal/app/system/auth"
	"github.com/dalemusser/contenthub/internal/app/system/credential"
	"github.com/dalemusser/contenthub/internal/app/system/mailer"
	"github.com/dalemusser/contenthub/internal/app/system/ratelimit"
	"github.com/dalemusser/contenthub/internal/app/system/timeouts"
	"github.com/dalemusser/contenthub/internal/domain/models"
)

// Handler holds dependencies for the auth endpoints.
type Handler struct {
	Users  *userstore.Store
	Tokens *tokenstore.Store
	Auth   *auth.Manager
	Mail   *mailer.Mailer
	Limits *ratelimit.LoginLimiter
	Log    *zap.Logger
}

// NewHandler constructs the auth handler.
func NewHandler(users *userstore.Store, tokens *tokenstore.Store, am *auth.Manager, mail *mailer.Mailer, logger *zap.Logger) *Handler {
	return &Handler{
		Users:  users,
		Tokens: tokens,
		Auth:   am,
		Mail:   mail,
		Limits: ratelimit.NewLoginLimiter(),
		Log:    logger,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /auth/register. New accounts get the default
// role and no grants; an admin assigns those later.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Validation(w, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.Create(ctx, userstore.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     models.DefaultRole,
	})
	if err != nil {
		switch {
		case errors.Is(err, userstore.ErrDuplicateEmail):
			respond.Validation(w, "email already registered", map[string]string{"email": "already registered"})
		case errors.Is(err, credential.ErrWeakSecret):
			respond.Validation(w, "password too short", map[string]string{"password": "must be at least 8 characters"})
		case isValidationErr(err):
			respond.Validation(w, err.Error(), nil)
		default:
			h.Log.Error("register: create failed", zap.Error(err))
			respond.Unavailable(w)
		}
		return
	}

	h.sendVerification(ctx, u)

	respond.JSON(w, http.StatusCreated, u.PublicView())
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// Login handles POST /auth/login. On success it sets the session
// cookie and returns a bearer token for API callers.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Validation(w, err.Error(), nil)
		return
	}

	if ok, retryAfter := h.Limits.Check(r, req.Email); !ok {
		respond.RateLimited(w, retryAfter)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, userstore.ErrInvalidCredentials):
			respond.Error(w, http.StatusUnauthorized, "invalid email or password")
		case errors.Is(err, userstore.ErrAccountDisabled):
			respond.Forbidden(w)
		default:
			h.Log.Error("login: authenticate failed", zap.Error(err))
			respond.Unavailable(w)
		}
		return
	}

	h.Limits.ResetEmail(req.Email)

	sid, err := h.Auth.SignIn(w, r, u)
	if err != nil {
		h.Log.Error("login: session write failed", zap.Error(err))
		respond.Unavailable(w)
		return
	}

	token, err := h.Tokens.Issue(ctx, u.ID, sid)
	if err != nil {
		h.Log.Error("login: token issue failed", zap.Error(err))
		respond.Unavailable(w)
		return
	}

	respond.JSON(w, http.StatusOK, loginResponse{Token: token, User: u.PublicView()})
}

// Logout handles POST /auth/logout. It revokes the presented bearer
// token, clears the cookie session, and always succeeds.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if raw, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found && raw != "" {
		if err := h.Tokens.Revoke(ctx, raw); err != nil {
			h.Log.Warn("logout: token revoke failed", zap.Error(err))
		}
	}
	if err := h.Auth.SignOut(w, r); err != nil {
		h.Log.Warn("logout: session clear failed", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

// RequestPasswordReset handles POST /auth/password-reset. The response
// is 202 whether or not the email exists, so the endpoint cannot be
// used to probe for accounts.
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Validation(w, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	token, err := h.Users.IssuePasswordReset(ctx, req.Email)
	if err == nil {
		if mailErr := h.Mail.SendPasswordReset(req.Email, token, "1 hour"); mailErr != nil {
			h.Log.Error("password-reset: mail send failed", zap.Error(mailErr))
		}
	} else if !errors.Is(err, userstore.ErrNotFound) {
		h.Log.Error("password-reset: issue failed", zap.Error(err))
	}

	w.WriteHeader(http.StatusAccepted)
}

type passwordResetConfirm struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ConfirmPasswordReset handles POST /auth/password-reset/confirm.
func (h *Handler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetConfirm
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Validation(w, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err := h.Users.ConsumePasswordReset(ctx, req.Token, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, userstore.ErrTokenInvalid):
			respond.Validation(w, "invalid or expired reset token", nil)
		case errors.Is(err, credential.ErrWeakSecret):
			respond.Validation(w, "password too short", map[string]string{"new_password": "must be at least 8 characters"})
		default:
			h.Log.Error("password-reset: consume failed", zap.Error(err))
			respond.Unavailable(w)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

// VerifyEmail handles POST /auth/verify-email.
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Validation(w, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.ConsumeEmailVerification(ctx, req.Token)
	if err != nil {
		if errors.Is(err, userstore.ErrTokenInvalid) {
			respond.Validation(w, "invalid or expired verification token", nil)
			return
		}
		h.Log.Error("verify-email: consume failed", zap.Error(err))
		respond.Unavailable(w)
		return
	}
	respond.JSON(w, http.StatusOK, u.PublicView())
}

// CurrentUser handles GET /api/user.
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		respond.Unauthorized(w)
		return
	}
	respond.JSON(w, http.StatusOK, u.PublicView())
}

type profileUpdateRequest struct {
	Name        string              `json:"name"`
	Preferences *models.Preferences `json:"preferences"`
}

// UpdateProfile handles PUT /api/user. Only name and preferences are
// caller-editable; grants and credentials have their own paths.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		respond.Unauthorized(w)
		return
	}

	var req profileUpdateRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Validation(w, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err := h.Users.UpdateProfile(ctx, u.ID, userstore.ProfileUpdate{
		Name:        req.Name,
		Preferences: req.Preferences,
	})
	if err != nil {
		if isValidationErr(err) {
			respond.Validation(w, err.Error(), nil)
			return
		}
		h.Log.Error("profile: update failed", zap.Error(err))
		respond.Unavailable(w)
		return
	}

	updated, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		h.Log.Error("profile: reload failed", zap.Error(err))
		respond.Unavailable(w)
		return
	}
	respond.JSON(w, http.StatusOK, updated.PublicView())
}

// sendVerification issues and mails an email-verification token,
// logging failures without surfacing them to the caller.
func (h *Handler) sendVerification(ctx context.Context, u *models.User) {
	if u.IsEmailVerified {
		return
	}
	token, err := h.Users.IssueEmailVerification(ctx, u.ID)
	if err != nil {
		h.Log.Error("register: verification token issue failed", zap.Error(err))
		return
	}
	if err := h.Mail.SendEmailVerification(u.Email, token, verifyTokenTTLText); err != nil {
		h.Log.Error("register: verification mail failed", zap.Error(err))
	}
}

const verifyTokenTTLText = "24 hours"

// isValidationErr reports whether the store error came from input
// validation rather than infrastructure.
func isValidationErr(err error) bool {
	return errors.Is(err, userstore.ErrValidation) || errors.Is(err, credential.ErrNoAuthPath)
}
