// internal/app/features/authapi/routes.go
package authapi

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted under /auth.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Post("/password-reset", h.RequestPasswordReset)
	r.Post("/password-reset/confirm", h.ConfirmPasswordReset)
	r.Post("/verify-email", h.VerifyEmail)
	return r
}

// MountUserRoutes registers the current-user profile endpoints on the
// supplied router. The handlers check identity themselves, so no extra
// middleware is required here.
func MountUserRoutes(r chi.Router, h *Handler) {
	r.Get("/api/user", h.CurrentUser)
	r.Put("/api/user", h.UpdateProfile)
}
