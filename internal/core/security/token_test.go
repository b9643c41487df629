package security

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/RafhaelH/rbac-api/internal/core/domain"
)

func fixedCodec(secret string, at time.Time) *TokenCodec {
	c := NewTokenCodec(secret, time.Minute, time.Hour)
	c.now = func() time.Time { return at }
	return c
}

func TestTokenCodec_AccessRoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := fixedCodec("secret", now)
	perms := []string{"users:read", "roles:write"}

	raw, err := c.IssueAccess("42", perms, 10*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	p, err := c.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Subject != "42" {
		t.Fatalf("expected subject 42, got %q", p.Subject)
	}
	if !reflect.DeepEqual(p.Permissions, perms) {
		t.Fatalf("expected %v, got %v", perms, p.Permissions)
	}
	if !p.IssuedAt.Equal(now) || !p.ExpiresAt.Equal(now.Add(10*time.Minute)) {
		t.Fatalf("unexpected times: iat=%v exp=%v", p.IssuedAt, p.ExpiresAt)
	}
	if p.IsRefresh() {
		t.Fatalf("access token must not be a refresh token")
	}
}

func TestTokenCodec_RefreshCarriesTypeAndNoPermissions(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := fixedCodec("secret", now)

	raw, err := c.IssueRefresh("7", 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	p, err := c.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !p.IsRefresh() {
		t.Fatalf("expected refresh type, got %q", p.Type)
	}
	if len(p.Permissions) != 0 {
		t.Fatalf("refresh token must not carry permissions: %v", p.Permissions)
	}
	if !p.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("expected configured refresh ttl, got exp=%v", p.ExpiresAt)
	}
}

func TestTokenCodec_DefaultRefreshTTLIsSevenDays(t *testing.T) {
	c := NewTokenCodec("secret", 0, 0)
	if c.refreshTTL != 7*24*time.Hour {
		t.Fatalf("expected 7d refresh ttl, got %v", c.refreshTTL)
	}
	if c.AccessTTL() != 30*time.Minute {
		t.Fatalf("expected 30m access ttl, got %v", c.AccessTTL())
	}
}

func TestTokenCodec_ExpiryEqualToNowIsExpired(t *testing.T) {
	issued := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := fixedCodec("secret", issued)

	raw, err := c.IssueAccess("1", nil, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	c.now = func() time.Time { return issued.Add(time.Minute) }
	if _, err := c.Decode(raw); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired at exp == now, got %v", err)
	}

	c.now = func() time.Time { return issued.Add(time.Minute - time.Second) }
	if _, err := c.Decode(raw); err != nil {
		t.Fatalf("expected token valid one second before expiry, got %v", err)
	}
}

func TestTokenCodec_WrongSecret(t *testing.T) {
	now := time.Now()
	raw, err := fixedCodec("secret", now).IssueAccess("1", nil, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = fixedCodec("other", now).Decode(raw)
	if !errors.Is(err, ErrInvalidSignature) || !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func TestTokenCodec_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := NewTokenCodec("secret", 0, 0).Decode(raw); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for alg=none, got %v", err)
	}
}

func TestTokenCodec_MissingSubjectIsMalformed(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := NewTokenCodec("secret", 0, 0).Decode(raw); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestTokenCodec_GarbageIsInvalid(t *testing.T) {
	if _, err := NewTokenCodec("secret", 0, 0).Decode("not-a-token"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
