package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/RafhaelH/rbac-api/internal/core/domain"
)

const (
	// TokenTypeRefresh marks refresh tokens. Access tokens carry no type claim.
	TokenTypeRefresh = "refresh"

	DefaultAccessTTL  = 30 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

var (
	ErrInvalidSignature = fmt.Errorf("%w: signature verification failed", domain.ErrTokenInvalid)
	ErrMalformed        = fmt.Errorf("%w: malformed claims", domain.ErrTokenInvalid)
	ErrExpired          = domain.ErrTokenExpired
)

// Claims is the decoding view over both token kinds.
//
//	access:  {sub, iat, exp, permissions}
//	refresh: {sub, iat, exp, type: "refresh"}
type Claims struct {
	Permissions []string `json:"permissions,omitempty"`
	Type        string   `json:"type,omitempty"`
	jwt.RegisteredClaims
}

type accessClaims struct {
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// Payload is a decoded, validated token.
type Payload struct {
	Subject     string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	Permissions []string
	Type        string
}

// IsRefresh reports whether the payload came from a refresh token.
func (p *Payload) IsRefresh() bool {
	return p.Type == TokenTypeRefresh
}

// TokenCodec signs and verifies HS256 tokens with a shared secret.
type TokenCodec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenCodec builds a codec. Non-positive TTLs fall back to the defaults.
func NewTokenCodec(secret string, accessTTL, refreshTTL time.Duration) *TokenCodec {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &TokenCodec{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// AccessTTL is the lifetime applied by IssueAccess when ttl is zero.
func (c *TokenCodec) AccessTTL() time.Duration { return c.accessTTL }

// IssueAccess signs an access token embedding the permission snapshot.
// A zero ttl uses the codec's configured access TTL.
func (c *TokenCodec) IssueAccess(subject string, permissions []string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = c.accessTTL
	}
	if permissions == nil {
		permissions = []string{}
	}
	return c.sign(accessClaims{
		Permissions:      permissions,
		RegisteredClaims: c.registered(subject, ttl),
	})
}

// IssueRefresh signs a refresh token. A zero ttl uses the configured refresh TTL.
func (c *TokenCodec) IssueRefresh(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = c.refreshTTL
	}
	return c.sign(refreshClaims{
		Type:             TokenTypeRefresh,
		RegisteredClaims: c.registered(subject, ttl),
	})
}

// Decode verifies the signature, then checks expiry against the codec clock.
// A token whose expiry equals the current instant is expired.
func (c *TokenCodec) Decode(raw string) (*Payload, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrTokenUnverifiable) {
			return nil, ErrInvalidSignature
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if claims.ExpiresAt == nil {
		return nil, ErrMalformed
	}
	if !c.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrExpired
	}
	if claims.Subject == "" {
		return nil, ErrMalformed
	}

	p := &Payload{
		Subject:     claims.Subject,
		ExpiresAt:   claims.ExpiresAt.Time,
		Permissions: claims.Permissions,
		Type:        claims.Type,
	}
	if claims.IssuedAt != nil {
		p.IssuedAt = claims.IssuedAt.Time
	}
	if p.Permissions == nil {
		p.Permissions = []string{}
	}
	return p, nil
}

func (c *TokenCodec) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := c.now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (c *TokenCodec) sign(claims jwt.Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (c *TokenCodec) keyFunc(token *jwt.Token) (interface{}, error) {
	if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return c.secret, nil
}
