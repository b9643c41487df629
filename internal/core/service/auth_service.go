package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/RafhaelH/rbac-api/internal/core/domain"
	"github.com/RafhaelH/rbac-api/internal/core/ports"
	"github.com/RafhaelH/rbac-api/internal/core/rbac"
	"github.com/RafhaelH/rbac-api/internal/core/security"
	"github.com/RafhaelH/rbac-api/pkg/metrics"
)

const (
	tokenTypeBearer  = "bearer"
	activityTimeout  = 3 * time.Second
	dummyPasswordPad = "rbac-api-timing-equaliser"
)

type authService struct {
	users    ports.UserRepository
	roles    ports.RoleRepository
	tokens   *security.TokenCodec
	limiter  ports.LoginLimiter
	notifier ports.Notifier
	log      zerolog.Logger
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// AuthOption configures optional collaborators of the auth service.
type AuthOption func(*authService)

// WithLoginLimiter enables failed-login throttling.
func WithLoginLimiter(l ports.LoginLimiter) AuthOption {
	return func(s *authService) { s.limiter = l }
}

// WithNotifier enables welcome and password-change emails.
func WithNotifier(n ports.Notifier) AuthOption {
	return func(s *authService) { s.notifier = n }
}

// NewAuthService returns an AuthService implementation.
func NewAuthService(
	users ports.UserRepository,
	roles ports.RoleRepository,
	tokens *security.TokenCodec,
	log zerolog.Logger,
	opts ...AuthOption,
) ports.AuthService {
	s := &authService{
		users:  users,
		roles:  roles,
		tokens: tokens,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authenticate checks credentials and issues an access/refresh pair. Unknown
// email, inactive account and wrong password all return ErrInvalidCredentials
// after the same bcrypt work.
func (s *authService) Authenticate(ctx context.Context, email, password string) (*ports.TokenPair, error) {
	if email == "" || password == "" {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	// 1. Throttle before touching the store.
	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, email)
		if err != nil {
			s.log.Warn().Err(err).Msg("login limiter unavailable, continuing")
		} else if !allowed {
			metrics.LoginAttemptsTotal.WithLabelValues("throttled").Inc()
			return nil, domain.ErrTooManyAttempts
		}
	}

	// 2. Look up the principal. A miss is not an error yet.
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	// 3. Verify against the stored hash, or a throwaway one for unknown emails.
	digest := s.dummyDigest()
	if user != nil {
		digest = user.PasswordHash
	}
	valid := security.VerifyPassword(password, digest)
	if user == nil || !valid || !user.IsActive {
		s.recordFailure(ctx, email)
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	// 4. Issue tokens with the current permission snapshot.
	pair, err := s.issuePair(user)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	// 5. Side effects; failures never invalidate the issued tokens.
	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			s.log.Warn().Err(err).Msg("failed to reset login limiter")
		}
	}
	if err := s.users.TouchLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to record last login")
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.log.Info().Int64("user_id", user.ID).Msg("user authenticated")
	return pair, nil
}

// Refresh mints a new access token from a refresh token. The refresh token
// itself is returned unchanged.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*ports.TokenPair, error) {
	payload, err := s.tokens.Decode(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w: %w", domain.ErrUnauthenticated, err)
	}
	if !payload.IsRefresh() {
		return nil, fmt.Errorf("refresh: %w: not a refresh token", domain.ErrUnauthenticated)
	}

	user, err := s.loadSubject(ctx, payload.Subject)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	access, err := s.tokens.IssueAccess(payload.Subject, rbac.SnapshotPermissions(user), 0)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	metrics.TokensIssuedTotal.WithLabelValues("access").Inc()

	return &ports.TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// Register creates an active user and assigns the default role when one is
// flagged and active.
func (s *authService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	user := &domain.User{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		IsActive:     true,
		Roles:        []domain.Role{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	role, err := s.roles.FindDefault(ctx)
	switch {
	case err == nil && role.IsActive:
		if err := s.users.AddRole(ctx, user.ID, role.ID); err != nil {
			s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to assign default role")
		} else {
			user.Roles = append(user.Roles, *role)
		}
	case err != nil && !errors.Is(err, domain.ErrRoleNotFound):
		s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("default role lookup failed")
	}

	if s.notifier != nil {
		if err := s.notifier.Welcome(ctx, user); err != nil {
			s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to enqueue welcome email")
		}
	}

	s.log.Info().Int64("user_id", user.ID).Msg("user registered")
	return user, nil
}

func (s *authService) ChangePassword(ctx context.Context, user *domain.User, current, next string) (bool, error) {
	if !security.VerifyPassword(current, user.PasswordHash) {
		return false, nil
	}

	hash, err := security.HashPassword(next)
	if err != nil {
		return false, fmt.Errorf("change password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return false, fmt.Errorf("change password: %w", err)
	}
	user.PasswordHash = hash

	if s.notifier != nil {
		if err := s.notifier.PasswordChanged(ctx, user); err != nil {
			s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to enqueue password change email")
		}
	}
	return true, nil
}

func (s *authService) Principal(ctx context.Context, accessToken string) (*domain.User, error) {
	payload, err := s.tokens.Decode(accessToken)
	if err != nil {
		reason := "invalid"
		if errors.Is(err, domain.ErrTokenExpired) {
			reason = "expired"
		}
		metrics.TokenRejectionsTotal.WithLabelValues(reason).Inc()
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	if payload.IsRefresh() {
		metrics.TokenRejectionsTotal.WithLabelValues("wrong_type").Inc()
		return nil, fmt.Errorf("%w: refresh token used as access token", domain.ErrUnauthenticated)
	}

	return s.loadSubject(ctx, payload.Subject)
}

func (s *authService) RecordActivity(ctx context.Context, user *domain.User) {
	id, at := user.ID, s.now().UTC()
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), activityTimeout)
		defer cancel()
		if err := s.users.TouchLastLogin(ctx, id, at); err != nil {
			s.log.Warn().Err(err).Int64("user_id", id).Msg("failed to record activity")
		}
	}()
}

// loadSubject resolves a token subject to an active user from the store.
func (s *authService) loadSubject(ctx context.Context, subject string) (*domain.User, error) {
	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		metrics.TokenRejectionsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, domain.ErrTokenInvalid)
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.TokenRejectionsTotal.WithLabelValues("unknown_user").Inc()
			return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
		}
		return nil, err
	}
	if !user.IsActive {
		metrics.TokenRejectionsTotal.WithLabelValues("inactive_user").Inc()
		return nil, fmt.Errorf("%w: user inactive", domain.ErrUnauthenticated)
	}
	return user, nil
}

func (s *authService) issuePair(user *domain.User) (*ports.TokenPair, error) {
	subject := strconv.FormatInt(user.ID, 10)

	access, err := s.tokens.IssueAccess(subject, rbac.SnapshotPermissions(user), 0)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefresh(subject, 0)
	if err != nil {
		return nil, err
	}
	metrics.TokensIssuedTotal.WithLabelValues("access").Inc()
	metrics.TokensIssuedTotal.WithLabelValues("refresh").Inc()

	return &ports.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

func (s *authService) recordFailure(ctx context.Context, email string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.RecordFailure(ctx, email); err != nil {
		s.log.Warn().Err(err).Msg("failed to record login failure")
	}
}

// dummyDigest is compared against when the email is unknown, so both
// failure paths cost one bcrypt comparison.
func (s *authService) dummyDigest() string {
	s.dummyOnce.Do(func() {
		hash, err := security.HashPassword(dummyPasswordPad)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to prepare dummy password hash")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
