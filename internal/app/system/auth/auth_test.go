package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/contenthub/internal/app/system/auth"
	"github.com/dalemusser/contenthub/internal/domain/models"
)

type fakeUsers struct {
	byID map[primitive.ObjectID]*models.User
}

func (f *fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *u
	return &cp, nil
}

type fakeTokens struct {
	byRaw map[string]primitive.ObjectID
}

func (f *fakeTokens) Resolve(_ context.Context, raw string) (primitive.ObjectID, error) {
	id, ok := f.byRaw[raw]
	if !ok {
		return primitive.NilObjectID, errors.New("not found")
	}
	return id, nil
}

func newTestManager(t *testing.T, users *fakeUsers, tokens *fakeTokens) *auth.Manager {
	t.Helper()
	if users == nil {
		users = &fakeUsers{byID: map[primitive.ObjectID]*models.User{}}
	}
	if tokens == nil {
		tokens = &fakeTokens{byRaw: map[string]primitive.ObjectID{}}
	}
	m, err := auth.NewManager(
		"test-session-key-must-be-32-chars-long",
		"",
		false,
		users,
		tokens,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	return m
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
}

func testUser(role models.Role) *models.User {
	return &models.User{
		ID:       primitive.NewObjectID(),
		Email:    "u@example.com",
		Role:     role,
		IsActive: true,
	}
}

func TestRequireSignedIn_NoUser(t *testing.T) {
	handler := auth.RequireSignedIn(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON error body, got content type %q", ct)
	}
}

func TestRequireSignedIn_WithUser(t *testing.T) {
	handler := auth.RequireSignedIn(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req = auth.WithTestUser(req, testUser(models.RoleReader))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequirePermission(t *testing.T) {
	handler := auth.RequirePermission(models.ResourceContent, models.ActionCreate)(okHandler())

	// Anonymous caller.
	req := httptest.NewRequest(http.MethodPost, "/api/content/blog", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: expected 401, got %d", rec.Code)
	}

	// Signed in without the grant.
	req = httptest.NewRequest(http.MethodPost, "/api/content/blog", nil)
	req = auth.WithTestUser(req, testUser(models.RoleReader))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("no grant: expected 403, got %d", rec.Code)
	}

	// Signed in with the grant.
	u := testUser(models.RoleEditor)
	u.Permissions = []models.Permission{
		{Resource: models.ResourceContent, Actions: []models.Action{models.ActionCreate}},
	}
	req = httptest.NewRequest(http.MethodPost, "/api/content/blog", nil)
	req = auth.WithTestUser(req, u)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("granted: expected 200, got %d", rec.Code)
	}

	// Admin bypasses grants.
	req = httptest.NewRequest(http.MethodPost, "/api/content/blog", nil)
	req = auth.WithTestUser(req, testUser(models.RoleAdmin))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("admin: expected 200, got %d", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := auth.RequireAdmin(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req = auth.WithTestUser(req, testUser(models.RoleEditor))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("editor: expected 403, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req = auth.WithTestUser(req, testUser(models.RoleAdmin))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("admin: expected 200, got %d", rec.Code)
	}
}

func TestLoadUser_Bearer(t *testing.T) {
	u := testUser(models.RoleEditor)
	users := &fakeUsers{byID: map[primitive.ObjectID]*models.User{u.ID: u}}
	tokens := &fakeTokens{byRaw: map[string]primitive.ObjectID{"good-token": u.ID}}
	m := newTestManager(t, users, tokens)

	var got *models.User
	handler := m.LoadUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got == nil {
		t.Fatal("expected user in context")
	}
	if got.ID != u.ID {
		t.Errorf("expected user %s, got %s", u.ID.Hex(), got.ID.Hex())
	}
}

func TestLoadUser_BadBearer(t *testing.T) {
	m := newTestManager(t, nil, nil)

	handler := m.LoadUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.CurrentUser(r); ok {
			t.Error("expected no user in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
}

func TestLoadUser_DeactivatedAccount(t *testing.T) {
	u := testUser(models.RoleEditor)
	u.IsActive = false
	users := &fakeUsers{byID: map[primitive.ObjectID]*models.User{u.ID: u}}
	tokens := &fakeTokens{byRaw: map[string]primitive.ObjectID{"token": u.ID}}
	m := newTestManager(t, users, tokens)

	handler := m.LoadUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.CurrentUser(r); ok {
			t.Error("expected deactivated account to stay anonymous")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
}

func TestSignInSignOut_CookieRoundTrip(t *testing.T) {
	u := testUser(models.RoleEditor)
	users := &fakeUsers{byID: map[primitive.ObjectID]*models.User{u.ID: u}}
	m := newTestManager(t, users, nil)

	// Sign in and capture the cookie.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	if _, err := m.SignIn(rec, req, u); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}

	// Replay the cookie; LoadUser should resolve the user.
	var got *models.User
	handler := m.LoadUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
		w.WriteHeader(http.StatusOK)
	}))
	req = httptest.NewRequest(http.MethodGet, "/api/user", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got == nil || got.ID != u.ID {
		t.Fatal("expected cookie to resolve the signed-in user")
	}

	// Sign out; the cleared cookie must no longer resolve.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	if err := m.SignOut(rec, req); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	cleared := rec.Result().Cookies()

	got = nil
	req = httptest.NewRequest(http.MethodGet, "/api/user", nil)
	for _, c := range cleared {
		if c.MaxAge >= 0 {
			req.AddCookie(c)
		}
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got != nil {
		t.Error("expected no user after sign out")
	}
}

func TestSessionID_StableAcrossRequests(t *testing.T) {
	m := newTestManager(t, nil, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/content/blog", nil)
	sid := m.SessionID(rec, req)
	if sid == "" {
		t.Fatal("expected a session id to be minted")
	}

	req2 := httptest.NewRequest(http.MethodGet, "/api/content/blog", nil)
	for _, c := range rec.Result().Cookies() {
		req2.AddCookie(c)
	}
	sid2 := m.SessionID(httptest.NewRecorder(), req2)
	if sid2 != sid {
		t.Errorf("expected stable session id, got %q then %q", sid, sid2)
	}
}

func TestSessionID_SurvivesSignIn(t *testing.T) {
	u := testUser(models.RoleReader)
	m := newTestManager(t, &fakeUsers{byID: map[primitive.ObjectID]*models.User{u.ID: u}}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sid := m.SessionID(rec, req)

	// Sign in on the same session.
	req2 := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	for _, c := range rec.Result().Cookies() {
		req2.AddCookie(c)
	}
	rec2 := httptest.NewRecorder()
	signInSID, err := m.SignIn(rec2, req2, u)
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if signInSID != sid {
		t.Errorf("expected SignIn to return existing sid %q, got %q", sid, signInSID)
	}

	req3 := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec2.Result().Cookies() {
		req3.AddCookie(c)
	}
	if got := m.SessionID(httptest.NewRecorder(), req3); got != sid {
		t.Errorf("expected session id to survive login, got %q want %q", got, sid)
	}
}

func TestBearerWinsOverCookie(t *testing.T) {
	cookieUser := testUser(models.RoleReader)
	tokenUser := testUser(models.RoleEditor)
	users := &fakeUsers{byID: map[primitive.ObjectID]*models.User{
		cookieUser.ID: cookieUser,
		tokenUser.ID:  tokenUser,
	}}
	tokens := &fakeTokens{byRaw: map[string]primitive.ObjectID{"tk": tokenUser.ID}}
	m := newTestManager(t, users, tokens)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	if _, err := m.SignIn(rec, req, cookieUser); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	var got *models.User
	handler := m.LoadUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))
	req = httptest.NewRequest(http.MethodGet, "/api/user", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	req.Header.Set("Authorization", "Bearer tk")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.ID != tokenUser.ID {
		t.Error("expected bearer token identity to take precedence")
	}
}

func TestNewManager_EmptyKey(t *testing.T) {
	_, err := auth.NewManager("", "", false, &fakeUsers{}, &fakeTokens{}, zap.NewNop())
	if err == nil {
		t.Error("expected error for empty session key")
	}
}
