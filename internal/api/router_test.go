package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/RafhaelH/rbac-api/internal/core/domain"
	"github.com/RafhaelH/rbac-api/internal/core/ports"
)

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

// tokenAuth resolves bearer tokens from a fixed table.
type tokenAuth struct {
	ports.AuthService
	users map[string]*domain.User
}

func (a *tokenAuth) Principal(_ context.Context, token string) (*domain.User, error) {
	if u, ok := a.users[token]; ok {
		return u, nil
	}
	return nil, domain.ErrUnauthenticated
}

func (a *tokenAuth) RecordActivity(context.Context, *domain.User) {}

type listUsers struct {
	ports.UserService
	calls int
}

func (s *listUsers) List(_ context.Context, f ports.UserFilter) (*ports.ListResult[*domain.User], error) {
	s.calls++
	return &ports.ListResult[*domain.User]{
		Items: []*domain.User{{ID: 1, Email: "a@example.com", IsActive: true}},
		Total: 1, Page: f.Page.Page, Size: f.Size, Pages: 1,
	}, nil
}

func (s *listUsers) Update(_ context.Context, id int64, in ports.UserUpdate) (*domain.User, error) {
	u := &domain.User{ID: id, IsActive: true}
	if in.IsSuperuser != nil {
		u.IsSuperuser = *in.IsSuperuser
	}
	return u, nil
}

func reader() *domain.User {
	return &domain.User{ID: 2, IsActive: true, Roles: []domain.Role{{
		Name: "viewer", IsActive: true,
		Permissions: []domain.Permission{{Resource: "users", Action: "read", IsActive: true}},
	}}}
}

func newTestRouter(users *listUsers) http.Handler {
	auth := &tokenAuth{users: map[string]*domain.User{
		"reader": reader(),
		"nobody": {ID: 3, IsActive: true},
		"root":   {ID: 4, IsActive: true, IsSuperuser: true},
	}}
	return NewRouter(RouterDeps{
		Log:         zerolog.Nop(),
		APIPrefix:   "/api/v1",
		CORSOrigins: []string{"*"},
		Env:         "test",
		Auth:        auth,
		Users:       users,
		DB:          okPinger{},
		Metrics:     prometheus.NewRegistry(),
	})
}

func do(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_ListUsersRequiresToken(t *testing.T) {
	users := &listUsers{}
	rec := do(newTestRouter(users), http.MethodGet, "/api/v1/users", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if users.calls != 0 {
		t.Fatal("service must not be called")
	}
}

func TestRouter_ListUsersForbiddenWithoutPermission(t *testing.T) {
	users := &listUsers{}
	rec := do(newTestRouter(users), http.MethodGet, "/api/v1/users", "nobody", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRouter_ListUsersAllowed(t *testing.T) {
	users := &listUsers{}
	rec := do(newTestRouter(users), http.MethodGet, "/api/v1/users?page=1&size=5", "reader", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["total"] != float64(1) || body["size"] != float64(5) {
		t.Fatalf("unexpected page: %v", body)
	}
}

func TestRouter_SuperuserBypassesPermissions(t *testing.T) {
	rec := do(newTestRouter(&listUsers{}), http.MethodGet, "/api/v1/users", "root", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_SelfUpdateCannotEscalate(t *testing.T) {
	rec := do(newTestRouter(&listUsers{}), http.MethodPut, "/api/v1/users/3", "nobody", `{"is_superuser":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["is_superuser"] != false {
		t.Fatalf("account flags must be ignored on self update: %v", body)
	}
}

func TestRouter_UpdateOtherUserForbidden(t *testing.T) {
	rec := do(newTestRouter(&listUsers{}), http.MethodPut, "/api/v1/users/99", "nobody", `{"first_name":"x"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRouter_Health(t *testing.T) {
	h := newTestRouter(&listUsers{})
	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		if rec := do(h, http.MethodGet, path, "", ""); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestRouter_UnknownRouteIs404(t *testing.T) {
	rec := do(newTestRouter(&listUsers{}), http.MethodGet, "/api/v1/nope", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRouter_InfoOptionalAuth(t *testing.T) {
	h := newTestRouter(&listUsers{})

	cases := []struct {
		token   string
		wantEnv string
	}{
		{"", ""},
		{"garbage", ""},
		{"reader", ""},
		{"root", "test"},
	}
	for _, tc := range cases {
		rec := do(h, http.MethodGet, "/info", tc.token, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("token %q: expected 200, got %d", tc.token, rec.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		env, _ := body["environment"].(string)
		if env != tc.wantEnv {
			t.Fatalf("token %q: expected environment %q, got %q", tc.token, tc.wantEnv, env)
		}
	}
}
