package ports

import (
	"context"

	"github.com/RafhaelH/rbac-api/internal/core/domain"
)

// TokenPair is returned by a successful login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64 // access token lifetime in seconds
}

// RegisterInput carries the self-registration payload.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// AuthService covers login, refresh, registration and principal resolution.
type AuthService interface {
	Authenticate(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	// ChangePassword returns false when current does not match the stored hash.
	ChangePassword(ctx context.Context, user *domain.User, current, next string) (bool, error)

	// Principal decodes an access token and loads its user from the store.
	// Decode failures, refresh tokens, and missing or inactive users all
	// yield an error wrapping domain.ErrUnauthenticated.
	Principal(ctx context.Context, accessToken string) (*domain.User, error)
	// RecordActivity refreshes the user's last-login timestamp without
	// blocking the caller.
	RecordActivity(ctx context.Context, user *domain.User)
}
