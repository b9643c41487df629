package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/RafhaelH/rbac-api/internal/core/domain"
	"github.com/RafhaelH/rbac-api/internal/core/ports"
)

type stubAuthService struct {
	ports.AuthService
	principalFn func(ctx context.Context, token string) (*domain.User, error)
	recorded    []int64
}

func (s *stubAuthService) Principal(ctx context.Context, token string) (*domain.User, error) {
	return s.principalFn(ctx, token)
}

func (s *stubAuthService) RecordActivity(_ context.Context, u *domain.User) {
	s.recorded = append(s.recorded, u.ID)
}

func newContext(header string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error { return c.NoContent(http.StatusOK) }

func TestAuthenticate_ValidToken(t *testing.T) {
	stub := &stubAuthService{
		principalFn: func(_ context.Context, token string) (*domain.User, error) {
			if token != "good" {
				t.Fatalf("unexpected token %q", token)
			}
			return &domain.User{ID: 9, IsActive: true}, nil
		},
	}
	c, rec := newContext("Bearer good")

	var seen *domain.User
	err := Authenticate(stub)(func(c echo.Context) error {
		seen, _ = Principal(c)
		return okHandler(c)
	})(c)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen == nil || seen.ID != 9 {
		t.Fatalf("principal not set: %+v", seen)
	}
	if len(stub.recorded) != 1 || stub.recorded[0] != 9 {
		t.Fatalf("expected activity recorded for user 9, got %v", stub.recorded)
	}
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	stub := &stubAuthService{principalFn: func(context.Context, string) (*domain.User, error) {
		t.Fatal("principal must not be resolved")
		return nil, nil
	}}
	c, _ := newContext("")

	err := Authenticate(stub)(func(echo.Context) error {
		t.Fatal("should not reach next")
		return nil
	})(c)
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAuthenticate_InvalidHeaderFormat(t *testing.T) {
	for _, header := range []string{"Token abc", "Bearer", "Bearer   "} {
		stub := &stubAuthService{}
		c, _ := newContext(header)

		err := Authenticate(stub)(okHandler)(c)
		if !errors.Is(err, domain.ErrUnauthenticated) {
			t.Fatalf("%q: expected ErrUnauthenticated, got %v", header, err)
		}
	}
}

func TestAuthenticate_RejectedToken(t *testing.T) {
	stub := &stubAuthService{principalFn: func(context.Context, string) (*domain.User, error) {
		return nil, errors.Join(domain.ErrUnauthenticated, domain.ErrTokenExpired)
	}}
	c, _ := newContext("bearer stale")

	err := Authenticate(stub)(okHandler)(c)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if len(stub.recorded) != 0 {
		t.Fatal("activity must not be recorded for rejected tokens")
	}
}

func TestOptionalAuth_NoToken(t *testing.T) {
	c, rec := newContext("")

	err := OptionalAuth(&stubAuthService{})(func(c echo.Context) error {
		if _, ok := Principal(c); ok {
			t.Fatal("expected anonymous request")
		}
		return okHandler(c)
	})(c)
	if err != nil || rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", rec.Code, err)
	}
}

func TestOptionalAuth_BadTokenIsAnonymous(t *testing.T) {
	stub := &stubAuthService{principalFn: func(context.Context, string) (*domain.User, error) {
		return nil, domain.ErrUnauthenticated
	}}
	c, rec := newContext("Bearer junk")

	err := OptionalAuth(stub)(func(c echo.Context) error {
		if _, ok := Principal(c); ok {
			t.Fatal("expected anonymous request")
		}
		return okHandler(c)
	})(c)
	if err != nil || rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", rec.Code, err)
	}
}

func TestOptionalAuth_DoesNotRecordActivity(t *testing.T) {
	stub := &stubAuthService{principalFn: func(context.Context, string) (*domain.User, error) {
		return &domain.User{ID: 3, IsActive: true}, nil
	}}
	c, _ := newContext("Bearer good")

	if err := OptionalAuth(stub)(okHandler)(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if u, ok := Principal(c); !ok || u.ID != 3 {
		t.Fatal("expected principal to be attached")
	}
	if len(stub.recorded) != 0 {
		t.Fatalf("optional auth recorded activity: %v", stub.recorded)
	}
}
