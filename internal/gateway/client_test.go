package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/contenthub/internal/gateway"
)

// fastClient builds a client against srv with sub-millisecond backoff
// so retry tests run quickly.
func fastClient(srv *httptest.Server) *gateway.Client {
	return gateway.New(srv.URL,
		gateway.WithHTTPClient(srv.Client()),
		gateway.WithRetryDelay(time.Millisecond, 5*time.Millisecond))
}

func TestList_SendsFiltersAndToken(t *testing.T) {
	var gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]gateway.ContentItem{{ID: "a", Type: "blog", Slug: "hello"}})
	}))
	defer srv.Close()

	c := fastClient(srv)
	sc := &gateway.SessionContext{SessionID: "sid-1", BearerToken: "tok-1"}

	featured := true
	items, err := c.List(context.Background(), sc, gateway.ListOptions{
		Type:     gateway.TypeBlog,
		Featured: &featured,
		Limit:    5,
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 1 || items[0].Slug != "hello" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if gotAuth != "Bearer tok-1" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	params, err := url.ParseQuery(gotQuery)
	if err != nil {
		t.Fatalf("bad query %q: %v", gotQuery, err)
	}
	for key, want := range map[string]string{"type": "blog", "featured": "true", "limit": "5"} {
		if got := params.Get(key); got != want {
			t.Errorf("query param %s = %q, want %q", key, got, want)
		}
	}
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(gateway.ContentItem{ID: "a", Type: "blog"})
	}))
	defer srv.Close()

	c := fastClient(srv)
	item, err := c.Get(context.Background(), nil, "a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if item.ID != "a" {
		t.Errorf("ID = %q, want %q", item.ID, "a")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestGet_RetryCeiling(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := fastClient(srv)
	_, err := c.Get(context.Background(), nil, "a")

	var tse *gateway.TransientStoreError
	if !errors.As(err, &tse) {
		t.Fatalf("error = %v, want TransientStoreError", err)
	}
	if tse.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", tse.Attempts)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestCreate_NotRetriedWithoutIdempotencyKey(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := fastClient(srv)
	_, err := c.Create(context.Background(), nil, gateway.ContentItem{Type: "blog"}, "")

	var tse *gateway.TransientStoreError
	if !errors.As(err, &tse) {
		t.Fatalf("error = %v, want TransientStoreError", err)
	}
	if tse.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", tse.Attempts)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1 (POST without key must not retry)", got)
	}
}

func TestCreate_RetriedWithIdempotencyKey(t *testing.T) {
	var calls atomic.Int32
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(gateway.ContentItem{ID: "b", Type: "blog", Slug: "retried"})
	}))
	defer srv.Close()

	c := fastClient(srv)
	key := gateway.NewIdempotencyKey()
	item, err := c.Create(context.Background(), nil, gateway.ContentItem{Type: "blog", Slug: "retried"}, key)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if item.ID != "b" {
		t.Errorf("ID = %q, want %q", item.ID, "b")
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
	if gotKey != key {
		t.Errorf("Idempotency-Key = %q, want %q", gotKey, key)
	}
}

func TestValidationErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{
			"error":  "slug already in use",
			"fields": map[string]string{"slug": "duplicate"},
		})
	}))
	defer srv.Close()

	c := fastClient(srv)
	_, err := c.Update(context.Background(), nil, "a", gateway.ContentItem{Type: "blog"})

	var ve *gateway.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if ve.Message != "slug already in use" {
		t.Errorf("Message = %q", ve.Message)
	}
	if ve.Fields["slug"] != "duplicate" {
		t.Errorf("Fields = %v", ve.Fields)
	}
}

func TestForbiddenMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := fastClient(srv)
	err := c.Delete(context.Background(), nil, "a")

	var denied *gateway.AuthorizationDenied
	if !errors.As(err, &denied) {
		t.Fatalf("error = %v, want AuthorizationDenied", err)
	}
}

func TestNotFoundMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := fastClient(srv)
	_, err := c.GetBySlug(context.Background(), nil, "missing")
	if !errors.Is(err, gateway.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestRateLimitedMapping(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := fastClient(srv)
	err := c.React(context.Background(), nil, "a", "like")

	var rl *gateway.RateLimited
	if !errors.As(err, &rl) {
		t.Fatalf("error = %v, want RateLimited", err)
	}
	if rl.RetryAfter != 7*time.Second {
		t.Errorf("RetryAfter = %s, want 7s", rl.RetryAfter)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1 (429 must not be blindly retried)", got)
	}
}

func TestUnauthorizedInvalidatesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := fastClient(srv)
	sc := gateway.NewSessionContext("stale-token")

	_, err := c.Get(context.Background(), sc, "a")
	if !errors.Is(err, gateway.ErrUnauthenticated) {
		t.Fatalf("error = %v, want ErrUnauthenticated", err)
	}
	if sc.Authenticated() {
		t.Error("token should be invalidated after a 401")
	}
	if sc.SessionID == "" {
		t.Error("session id must survive invalidation")
	}
}

func TestPublish_SendsSchedule(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(gateway.ContentItem{ID: "a", Status: "scheduled"})
	}))
	defer srv.Close()

	c := fastClient(srv)
	at := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	item, err := c.Publish(context.Background(), nil, "a", &at)
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if item.Status != "scheduled" {
		t.Errorf("Status = %q", item.Status)
	}
	if gotBody["scheduled_at"] == nil {
		t.Error("scheduled_at missing from request body")
	}
}

func TestView_FixesType(t *testing.T) {
	var gotType, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		switch r.Method {
		case http.MethodPost:
			var item gateway.ContentItem
			json.NewDecoder(r.Body).Decode(&item)
			gotType = item.Type
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(item)
		default:
			gotType = r.URL.Query().Get("type")
			json.NewEncoder(w).Encode([]gateway.ContentItem{})
		}
	}))
	defer srv.Close()

	c := fastClient(srv)

	if _, err := c.Docs().List(context.Background(), nil, gateway.ListOptions{}); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if gotType != gateway.TypeDocumentation {
		t.Errorf("list type = %q, want documentation", gotType)
	}

	if _, err := c.Blog().Create(context.Background(), nil, gateway.ContentItem{Slug: "x", Title: "X", Body: "b"}, gateway.NewIdempotencyKey()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if gotType != gateway.TypeBlog {
		t.Errorf("create type = %q, want blog", gotType)
	}
	if gotPath != "/content" {
		t.Errorf("path = %q, want /content", gotPath)
	}
}

func TestContextCancelStopsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := gateway.New(srv.URL,
		gateway.WithHTTPClient(srv.Client()),
		gateway.WithRetryDelay(time.Hour, time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Get(ctx, nil, "a")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want context deadline", err)
	}
}
