// internal/gateway/views.go
package gateway

import (
	"context"
	"time"
)

// View fixes the content type on the generic client operations. Views
// are cheap values; build one per call site or hold one per type.
type View struct {
	c   *Client
	typ string
}

// Blog returns the view over blog posts.
func (c *Client) Blog() View { return View{c: c, typ: TypeBlog} }

// Docs returns the view over documentation.
func (c *Client) Docs() View { return View{c: c, typ: TypeDocumentation} }

// Research returns the view over research articles.
func (c *Client) Research() View { return View{c: c, typ: TypeResearch} }

// CaseStudies returns the view over case studies.
func (c *Client) CaseStudies() View { return View{c: c, typ: TypeCaseStudy} }

// Help returns the view over help articles.
func (c *Client) Help() View { return View{c: c, typ: TypeHelp} }

// Type returns the content type this view is fixed to.
func (v View) Type() string { return v.typ }

// List returns items of the view's type matching the filter. Any Type
// set on opts is overridden.
func (v View) List(ctx context.Context, sc *SessionContext, opts ListOptions) ([]ContentItem, error) {
	opts.Type = v.typ
	return v.c.List(ctx, sc, opts)
}

// Get fetches an item by id.
func (v View) Get(ctx context.Context, sc *SessionContext, id string) (*ContentItem, error) {
	return v.c.Get(ctx, sc, id)
}

// GetBySlug fetches an item by slug.
func (v View) GetBySlug(ctx context.Context, sc *SessionContext, slug string) (*ContentItem, error) {
	return v.c.GetBySlug(ctx, sc, slug)
}

// Search runs a text search scoped to the view's type.
func (v View) Search(ctx context.Context, sc *SessionContext, query, product string) ([]ContentItem, error) {
	return v.c.Search(ctx, sc, query, v.typ, product)
}

// Create submits a new item of the view's type.
func (v View) Create(ctx context.Context, sc *SessionContext, item ContentItem, idempotencyKey string) (*ContentItem, error) {
	item.Type = v.typ
	return v.c.Create(ctx, sc, item, idempotencyKey)
}

// Update replaces the mutable fields of an existing item.
func (v View) Update(ctx context.Context, sc *SessionContext, id string, item ContentItem) (*ContentItem, error) {
	item.Type = v.typ
	return v.c.Update(ctx, sc, id, item)
}

// Delete removes an item.
func (v View) Delete(ctx context.Context, sc *SessionContext, id string) error {
	return v.c.Delete(ctx, sc, id)
}

// Publish publishes or schedules an item.
func (v View) Publish(ctx context.Context, sc *SessionContext, id string, scheduledAt *time.Time) (*ContentItem, error) {
	return v.c.Publish(ctx, sc, id, scheduledAt)
}

// React records a reaction on a published item.
func (v View) React(ctx context.Context, sc *SessionContext, id, reaction string) error {
	return v.c.React(ctx, sc, id, reaction)
}
