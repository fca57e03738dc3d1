// Package content serves the content REST surface: listing, lookup by
// slug and product path, search, authoring mutations, publishing, and
// anonymous reactions.
package content

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/contenthub/internal/app/features/shared/respond"
	"github.com/dalemusser/contenthub/internal/app/policy/contentpolicy"
	contentstore "github.com/dalemusser/contenthub/internal/app/store/content"
	"github.com/dalemusser/contenthub/internal/app/system/auth"
	"github.com/dalemusser/contenthub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/contenthub/internal/app/system/ratelimit"
	"github.com/dalemusser/contenthub/internal/app/system/timeouts"
	"github.com/dalemusser/contenthub/internal/domain/models"
)

// Reactions are free-form but bounded: short lowercase tokens only, so
// the reactions map cannot be grown with arbitrary keys.
var reactionPattern = regexp.MustCompile(`^[a-z][a-z0-9-]{0,31}$`)

// Handler holds dependencies for the content endpoints.
type Handler struct {
	Store     *contentstore.Store
	Reactions *ratelimit.Limiter
	Log       *zap.Logger
}

// NewHandler constructs the content handler. Reactions are rate-limited
// per client IP since they need no account.
func NewHandler(store *contentstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Store:     store,
		Reactions: ratelimit.New(30, time.Minute),
		Log:       logger,
	}
}

// List handles GET /content. Only published items are returned.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f := contentstore.ListFilter{
		Query:    query.Get(r, "q"),
		Category: query.Get(r, "category"),
	}
	if t := query.Get(r, "type"); t != "" {
		ct := models.ContentType(t)
		if !ct.Valid() {
			respond.Validation(w, "unknown content type", map[string]string{"type": t})
			return
		}
		f.Type = ct
	}
	if v := query.Get(r, "featured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			respond.Validation(w, "featured must be a boolean", nil)
			return
		}
		f.Featured = &featured
	}
	if v := query.Get(r, "limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			respond.Validation(w, "limit must be a positive integer", nil)
			return
		}
		f.Limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, err := h.Store.List(ctx, f)
	if err != nil {
		h.Log.Error("content: list failed", zap.Error(err))
		respond.Unavailable(w)
		return
	}
	respond.JSON(w, http.StatusOK, items)
}

// GetBySlug handles GET /content/slug/{slug}. Unpublished items are
// visible only to callers who can edit them; everyone else sees 404.
func (h *Handler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Store.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	h.writeItem(w, r, c)
}

// GetByID handles GET /content/{id}.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Store.GetByID(ctx, id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	h.writeItem(w, r, c)
}

// GetByProductPath handles GET /content/product/{product}[/{section}[/{page}]].
// Missing deeper segments fall back to the closest published ancestor.
func (h *Handler) GetByProductPath(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Store.GetByProductPath(ctx,
		chi.URLParam(r, "product"),
		chi.URLParam(r, "section"),
		chi.URLParam(r, "page"))
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, c)
}

// Search handles GET /content/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := query.Get(r, "q")
	if q == "" {
		respond.Validation(w, "q is required", nil)
		return
	}
	var typ models.ContentType
	if t := query.Get(r, "type"); t != "" {
		typ = models.ContentType(t)
		if !typ.Valid() {
			respond.Validation(w, "unknown content type", map[string]string{"type": t})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, err := h.Store.Search(ctx, q, typ, query.Get(r, "product"))
	if err != nil {
		h.Log.Error("content: search failed", zap.Error(err))
		respond.Unavailable(w)
		return
	}
	respond.JSON(w, http.StatusOK, items)
}

// Create handles POST /content. New items always start as drafts. When
// the request carries an Idempotency-Key, a retried create returns the
// already-created item instead of a duplicate-slug error.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		respond.Unauthorized(w)
		return
	}
	if !contentpolicy.CanCreate(u) {
		respond.Forbidden(w)
		return
	}

	var c models.Content
	if err := respond.Decode(w, r, &c); err != nil {
		respond.Validation(w, err.Error(), nil)
		return
	}
	if !contentpolicy.CanUpdate(u, &c) {
		// Product scope applies to the item being created too.
		respond.Forbidden(w)
		return
	}

	c.Body = htmlsanitize.Normalize(c.Body)
	c.IdempotencyKey = r.Header.Get("Idempotency-Key")
	c.CreatedByID = &u.ID
	c.CreatedByName = u.DisplayName()
	if c.Author == "" {
		c.Author = u.DisplayName()
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Store.Create(ctx, c)
	if err != nil {
		if errors.Is(err, contentstore.ErrDuplicateSlug) {
			if existing, ok := h.replayedCreate(ctx, c); ok {
				respond.JSON(w, http.StatusOK, existing)
				return
			}
			respond.Validation(w, "slug already in use", map[string]string{"slug": c.Slug})
			return
		}
		if isContentValidation(err) {
			respond.Validation(w, err.Error(), nil)
			return
		}
		h.Log.Error("content: create failed", zap.Error(err))
		respond.Unavailable(w)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

// Update handles PUT /content/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		respond.Unauthorized(w)
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	existing, err := h.Store.GetByID(ctx, id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	if !contentpolicy.CanUpdate(u, &existing) {
		respond.Forbidden(w)
		return
	}

	var mut models.Content
	if err := respond.Decode(w, r, &mut); err != nil {
		respond.Validation(w, err.Error(), nil)
		return
	}
	mut.Body = htmlsanitize.Normalize(mut.Body)

	updated, err := h.Store.Update(ctx, id, mut)
	if err != nil {
		switch {
		case errors.Is(err, contentstore.ErrArchived):
			respond.Validation(w, "archived content cannot be modified", nil)
		case errors.Is(err, contentstore.ErrNotFound):
			respond.NotFound(w)
		case isContentValidation(err):
			respond.Validation(w, err.Error(), nil)
		default:
			h.Log.Error("content: update failed", zap.Error(err))
			respond.Unavailable(w)
		}
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /content/{id}. Deletion is permanent and
// distinct from archiving.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		respond.Unauthorized(w)
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	existing, err := h.Store.GetByID(ctx, id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	if !contentpolicy.CanDelete(u, &existing) {
		respond.Forbidden(w)
		return
	}

	if err := h.Store.Delete(ctx, id); err != nil {
		if errors.Is(err, contentstore.ErrNotFound) {
			respond.NotFound(w)
			return
		}
		h.Log.Error("content: delete failed", zap.Error(err))
		respond.Unavailable(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type publishRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// Publish handles PATCH /content/{id}/publish. A future scheduled_at
// schedules the item; absent or past timestamps publish immediately.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		respond.Unauthorized(w)
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req publishRequest
	if r.ContentLength != 0 {
		if err := respond.Decode(w, r, &req); err != nil {
			respond.Validation(w, err.Error(), nil)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	existing, err := h.Store.GetByID(ctx, id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	if !contentpolicy.CanPublish(u, &existing) {
		respond.Forbidden(w)
		return
	}

	published, err := h.Store.Publish(ctx, id, req.ScheduledAt)
	if err != nil {
		switch {
		case errors.Is(err, contentstore.ErrArchived):
			respond.Validation(w, "archived content cannot be published", nil)
		case errors.Is(err, contentstore.ErrNotFound):
			respond.NotFound(w)
		default:
			h.Log.Error("content: publish failed", zap.Error(err))
			respond.Unavailable(w)
		}
		return
	}
	respond.JSON(w, http.StatusOK, published)
}

// Archive handles PATCH /content/{id}/archive. Archived is terminal.
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		respond.Unauthorized(w)
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	existing, err := h.Store.GetByID(ctx, id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	if !contentpolicy.CanPublish(u, &existing) {
		respond.Forbidden(w)
		return
	}

	archived, err := h.Store.Archive(ctx, id)
	if err != nil {
		if errors.Is(err, contentstore.ErrNotFound) {
			// Only published or scheduled items can be archived.
			respond.Validation(w, "only published or scheduled content can be archived", nil)
			return
		}
		h.Log.Error("content: archive failed", zap.Error(err))
		respond.Unavailable(w)
		return
	}
	respond.JSON(w, http.StatusOK, archived)
}

type reactionRequest struct {
	Reaction string `json:"reaction"`
}

// React handles POST /content/{id}/reaction. No account is needed, so
// the endpoint is rate-limited per client IP.
func (h *Handler) React(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.ClientIP(r)
	if !h.Reactions.Allow(ip) {
		respond.RateLimited(w, h.Reactions.RetryAfter(ip))
		return
	}

	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req reactionRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Validation(w, err.Error(), nil)
		return
	}
	if !reactionPattern.MatchString(req.Reaction) {
		respond.Validation(w, "invalid reaction", map[string]string{"reaction": req.Reaction})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Store.AddReaction(ctx, id, req.Reaction); err != nil {
		if errors.Is(err, contentstore.ErrNotFound) {
			respond.NotFound(w)
			return
		}
		h.Log.Error("content: reaction failed", zap.Error(err))
		respond.Unavailable(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// helpers

// writeItem hides unpublished items from callers who cannot edit them.
func (h *Handler) writeItem(w http.ResponseWriter, r *http.Request, c models.Content) {
	if c.Status == models.StatusDraft || c.Status == models.StatusScheduled {
		u, _ := auth.CurrentUser(r)
		if !contentpolicy.CanViewUnpublished(u, &c) {
			respond.NotFound(w)
			return
		}
	}
	respond.JSON(w, http.StatusOK, c)
}

func (h *Handler) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, contentstore.ErrNotFound) {
		respond.NotFound(w)
		return
	}
	h.Log.Error("content: lookup failed", zap.Error(err))
	respond.Unavailable(w)
}

// replayedCreate reports whether the duplicate slug belongs to an item
// created earlier with the same Idempotency-Key.
func (h *Handler) replayedCreate(ctx context.Context, c models.Content) (models.Content, bool) {
	if c.IdempotencyKey == "" {
		return models.Content{}, false
	}
	existing, err := h.Store.GetBySlug(ctx, c.Slug)
	if err != nil || existing.IdempotencyKey != c.IdempotencyKey {
		return models.Content{}, false
	}
	return existing, true
}

func parseID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Validation(w, "invalid content id", nil)
		return primitive.NilObjectID, false
	}
	return id, true
}

// isContentValidation distinguishes schema failures from store faults.
func isContentValidation(err error) bool {
	return errors.Is(err, models.ErrInvalidContent)
}
