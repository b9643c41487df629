package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/RafhaelH/rbac-api/internal/core/domain"
	"github.com/RafhaelH/rbac-api/pkg/logger"
)

func handle(t *testing.T, log zerolog.Logger, err error) (*httptest.ResponseRecorder, errorResponse) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/x", nil), rec)

	NewHTTPErrorHandler(log)(err, c)

	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v (%q)", err, rec.Body.String())
	}
	return rec, body
}

func TestErrorHandler_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"invalid credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{"expired", fmt.Errorf("%w: %w", domain.ErrUnauthenticated, domain.ErrTokenExpired), http.StatusUnauthorized},
		{"invalid token", fmt.Errorf("decode: %w", domain.ErrTokenInvalid), http.StatusUnauthorized},
		{"unknown principal", fmt.Errorf("%w: %w", domain.ErrUnauthenticated, domain.ErrUserNotFound), http.StatusUnauthorized},
		{"forbidden", fmt.Errorf("%w: permission required: users:read", domain.ErrForbidden), http.StatusForbidden},
		{"throttled", domain.ErrTooManyAttempts, http.StatusTooManyRequests},
		{"user not found", domain.ErrUserNotFound, http.StatusNotFound},
		{"role not found", fmt.Errorf("assign: %w", domain.ErrRoleNotFound), http.StatusNotFound},
		{"permission not found", domain.ErrPermissionNotFound, http.StatusNotFound},
		{"duplicate email", domain.ErrDuplicateEmail, http.StatusConflict},
		{"duplicate name", domain.ErrDuplicateName, http.StatusConflict},
		{"duplicate pair", domain.ErrDuplicateResourceAction, http.StatusConflict},
		{"echo error", echo.NewHTTPError(http.StatusUnprocessableEntity, "email is required"), http.StatusUnprocessableEntity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := handle(t, zerolog.Nop(), tc.err)
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			if body.Error == "" {
				t.Fatal("expected error message")
			}
		})
	}
}

func TestErrorHandler_UnauthorizedChallenge(t *testing.T) {
	rec, _ := handle(t, zerolog.Nop(), domain.ErrUnauthenticated)
	if got := rec.Header().Get(echo.HeaderWWWAuthenticate); got != "Bearer" {
		t.Fatalf("expected Bearer challenge, got %q", got)
	}
}

func TestErrorHandler_ForbiddenNamesPermission(t *testing.T) {
	_, body := handle(t, zerolog.Nop(), fmt.Errorf("%w: permission required: roles:write", domain.ErrForbidden))
	if body.Error != "access forbidden: permission required: roles:write" {
		t.Fatalf("unexpected message %q", body.Error)
	}
}

func TestErrorHandler_UnexpectedErrorIsLoggedAndHidden(t *testing.T) {
	var buf bytes.Buffer
	rec, body := handle(t, zerolog.New(&buf), errors.New("pq: connection reset"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body.Error != "internal server error" {
		t.Fatalf("internal detail leaked: %q", body.Error)
	}
	if !bytes.Contains(buf.Bytes(), []byte("pq: connection reset")) {
		t.Fatalf("expected cause in log, got %q", buf.String())
	}
}

func TestErrorHandler_UnexpectedErrorUsesRequestLogger(t *testing.T) {
	var fallback, scoped bytes.Buffer
	e := echo.New()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req = req.WithContext(logger.WithContext(req.Context(), zerolog.New(&scoped).With().Str("request_id", "req-42").Logger()))
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.New(&fallback))(errors.New("disk full"), c)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !bytes.Contains(scoped.Bytes(), []byte(`"request_id":"req-42"`)) {
		t.Fatalf("expected request-scoped entry, got %q", scoped.String())
	}
	if fallback.Len() != 0 {
		t.Fatalf("fallback logger should stay silent, got %q", fallback.String())
	}
}
