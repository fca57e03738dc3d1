// internal/app/features/content/routes.go
package content

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted under /content. Reads and
// reactions are open; the handlers gate mutations through the content
// policy themselves.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/search", h.Search)
	r.Get("/slug/{slug}", h.GetBySlug)
	r.Get("/product/{product}", h.GetByProductPath)
	r.Get("/product/{product}/{section}", h.GetByProductPath)
	r.Get("/product/{product}/{section}/{page}", h.GetByProductPath)

	r.Get("/{id}", h.GetByID)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Patch("/{id}/publish", h.Publish)
	r.Patch("/{id}/archive", h.Archive)
	r.Post("/{id}/reaction", h.React)

	return r
}
