// internal/gateway/client.go

// Package gateway is the typed client for the ContentHub JSON API. It
// wraps the REST surface in Go methods, maps the service's error
// responses onto a small error taxonomy, and retries transient failures
// with exponential backoff.
//
// Identity is passed per call as a SessionContext; the client itself is
// safe for concurrent use and holds no caller state.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Default retry configuration.
const (
	defaultMaxAttempts  = 3
	defaultInitialDelay = 1 * time.Second
	defaultMaxDelay     = 10 * time.Second
)

// Client talks to a ContentHub service.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	log          *zap.Logger
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithMaxAttempts sets the total number of attempts for retryable
// requests, the first try included.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n >= 1 {
			c.maxAttempts = n
		}
	}
}

// WithRetryDelay sets the initial and maximum backoff delays.
func WithRetryDelay(initial, max time.Duration) Option {
	return func(c *Client) {
		if initial > 0 {
			c.initialDelay = initial
		}
		if max > 0 {
			c.maxDelay = max
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.log = logger
		}
	}
}

// New creates a gateway client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   http.DefaultClient,
		log:          zap.NewNop(),
		maxAttempts:  defaultMaxAttempts,
		initialDelay: defaultInitialDelay,
		maxDelay:     defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns content items matching the filter. Anonymous callers see
// published items only.
func (c *Client) List(ctx context.Context, sc *SessionContext, opts ListOptions) ([]ContentItem, error) {
	q := url.Values{}
	if opts.Type != "" {
		q.Set("type", opts.Type)
	}
	if opts.Query != "" {
		q.Set("q", opts.Query)
	}
	if opts.Category != "" {
		q.Set("category", opts.Category)
	}
	if opts.Featured != nil {
		q.Set("featured", strconv.FormatBool(*opts.Featured))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	var items []ContentItem
	if err := c.do(ctx, sc, http.MethodGet, "/content", q, nil, "", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Get fetches a content item by id.
func (c *Client) Get(ctx context.Context, sc *SessionContext, id string) (*ContentItem, error) {
	var item ContentItem
	if err := c.do(ctx, sc, http.MethodGet, "/content/"+url.PathEscape(id), nil, nil, "", &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// GetBySlug fetches a content item by slug.
func (c *Client) GetBySlug(ctx context.Context, sc *SessionContext, slug string) (*ContentItem, error) {
	var item ContentItem
	if err := c.do(ctx, sc, http.MethodGet, "/content/slug/"+url.PathEscape(slug), nil, nil, "", &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// GetByProductPath fetches published documentation or help content by
// its product path. Section and page may be empty; the service falls
// back to the nearest existing level.
func (c *Client) GetByProductPath(ctx context.Context, sc *SessionContext, product, section, page string) (*ContentItem, error) {
	path := "/content/product/" + url.PathEscape(product)
	if section != "" {
		path += "/" + url.PathEscape(section)
		if page != "" {
			path += "/" + url.PathEscape(page)
		}
	}
	var item ContentItem
	if err := c.do(ctx, sc, http.MethodGet, path, nil, nil, "", &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Search runs a text search over published content. typ and product
// narrow the result set when non-empty.
func (c *Client) Search(ctx context.Context, sc *SessionContext, query, typ, product string) ([]ContentItem, error) {
	q := url.Values{}
	q.Set("q", query)
	if typ != "" {
		q.Set("type", typ)
	}
	if product != "" {
		q.Set("product", product)
	}

	var items []ContentItem
	if err := c.do(ctx, sc, http.MethodGet, "/content/search", q, nil, "", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Create submits a new content item. It always starts as a draft.
// With a non-empty idempotencyKey the request is safe to retry and the
// client does so on transient failures; without one, a failed create is
// surfaced immediately.
func (c *Client) Create(ctx context.Context, sc *SessionContext, item ContentItem, idempotencyKey string) (*ContentItem, error) {
	var created ContentItem
	if err := c.do(ctx, sc, http.MethodPost, "/content", nil, item, idempotencyKey, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces the mutable fields of an existing item.
func (c *Client) Update(ctx context.Context, sc *SessionContext, id string, item ContentItem) (*ContentItem, error) {
	var updated ContentItem
	if err := c.do(ctx, sc, http.MethodPut, "/content/"+url.PathEscape(id), nil, item, "", &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a content item.
func (c *Client) Delete(ctx context.Context, sc *SessionContext, id string) error {
	return c.do(ctx, sc, http.MethodDelete, "/content/"+url.PathEscape(id), nil, nil, "", nil)
}

// Publish publishes a draft now, or schedules it when scheduledAt is a
// future timestamp.
func (c *Client) Publish(ctx context.Context, sc *SessionContext, id string, scheduledAt *time.Time) (*ContentItem, error) {
	var body any
	if scheduledAt != nil {
		body = map[string]*time.Time{"scheduled_at": scheduledAt}
	}
	var item ContentItem
	if err := c.do(ctx, sc, http.MethodPatch, "/content/"+url.PathEscape(id)+"/publish", nil, body, "", &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Archive retires a published or scheduled item. Archived content stays
// readable but can no longer be modified.
func (c *Client) Archive(ctx context.Context, sc *SessionContext, id string) (*ContentItem, error) {
	var item ContentItem
	if err := c.do(ctx, sc, http.MethodPatch, "/content/"+url.PathEscape(id)+"/archive", nil, nil, "", &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// React records an anonymous reaction on a published item.
func (c *Client) React(ctx context.Context, sc *SessionContext, id, reaction string) error {
	body := map[string]string{"reaction": reaction}
	return c.do(ctx, sc, http.MethodPost, "/content/"+url.PathEscape(id)+"/reaction", nil, body, "", nil)
}

// do performs one logical request with retries. Transport errors and
// 5xx responses are retried for idempotent requests (any method except
// POST, or a POST carrying an Idempotency-Key) with strictly increasing
// backoff; everything else maps straight onto the error taxonomy.
func (c *Client) do(ctx context.Context, sc *SessionContext, method, path string, query url.Values, body any, idempotencyKey string, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	retryable := method != http.MethodPost || idempotencyKey != ""
	maxAttempts := c.maxAttempts
	if !retryable {
		maxAttempts = 1
	}

	var lastErr error
	delay := c.initialDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			c.log.Debug("retrying request",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if sc != nil {
			if sc.BearerToken != "" {
				req.Header.Set("Authorization", "Bearer "+sc.BearerToken)
			}
			if sc.SessionID != "" {
				req.Header.Set("X-Session-ID", sc.SessionID)
			}
		}
		if idempotencyKey != "" {
			req.Header.Set("Idempotency-Key", idempotencyKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			continue
		}

		retry, err := c.handleResponse(sc, resp, out)
		if !retry {
			return err
		}
		lastErr = err
	}

	return &TransientStoreError{Attempts: maxAttempts, Last: lastErr}
}

// handleResponse maps a response onto the error taxonomy. The first
// return value reports whether the request should be retried.
func (c *Client) handleResponse(sc *SessionContext, resp *http.Response, out any) (bool, error) {
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil || resp.StatusCode == http.StatusNoContent {
			io.Copy(io.Discard, resp.Body)
			return false, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return false, fmt.Errorf("decode response: %w", err)
		}
		return false, nil

	case resp.StatusCode == http.StatusUnauthorized:
		if sc != nil {
			sc.Invalidate()
		}
		io.Copy(io.Discard, resp.Body)
		return false, ErrUnauthenticated

	case resp.StatusCode == http.StatusForbidden:
		io.Copy(io.Discard, resp.Body)
		return false, &AuthorizationDenied{}

	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return false, ErrNotFound

	case resp.StatusCode == http.StatusUnprocessableEntity:
		var ve struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&ve); err != nil {
			ve.Error = "validation failed"
		}
		return false, &ValidationError{Message: ve.Error, Fields: ve.Fields}

	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return false, &RateLimited{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}

	case resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return true, fmt.Errorf("server error: %s", resp.Status)

	default:
		io.Copy(io.Discard, resp.Body)
		return false, fmt.Errorf("unexpected status: %s", resp.Status)
	}
}

// parseRetryAfter reads a Retry-After header given in seconds. HTTP
// dates are not expected from this service.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
