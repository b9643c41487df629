package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/RafhaelH/rbac-api/internal/core/domain"
	"github.com/RafhaelH/rbac-api/internal/core/ports"
	"github.com/RafhaelH/rbac-api/internal/core/security"
)

// DefaultRoleName is the role seeded as the registration default.
const DefaultRoleName = "user"

// BootstrapOptions controls the startup seed.
type BootstrapOptions struct {
	SuperuserEmail    string
	SuperuserPassword string
}

// Bootstrapper seeds the permission catalogue, the default role and an
// optional first superuser. Every step is idempotent.
type Bootstrapper struct {
	perms    ports.PermissionService
	roles    ports.RoleService
	roleRepo ports.RoleRepository
	userRepo ports.UserRepository
	log      zerolog.Logger
}

func NewBootstrapper(
	perms ports.PermissionService,
	roles ports.RoleService,
	roleRepo ports.RoleRepository,
	userRepo ports.UserRepository,
	log zerolog.Logger,
) *Bootstrapper {
	return &Bootstrapper{perms: perms, roles: roles, roleRepo: roleRepo, userRepo: userRepo, log: log}
}

func (b *Bootstrapper) Run(ctx context.Context, opts BootstrapOptions) error {
	created, err := b.perms.CreateDefaults(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	b.log.Info().Int("created", len(created)).Msg("default permissions ensured")

	if err := b.ensureDefaultRole(ctx); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	if opts.SuperuserEmail != "" && opts.SuperuserPassword != "" {
		if err := b.ensureSuperuser(ctx, opts.SuperuserEmail, opts.SuperuserPassword); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
	}
	return nil
}

func (b *Bootstrapper) ensureDefaultRole(ctx context.Context) error {
	role, err := b.roleRepo.FindByName(ctx, DefaultRoleName)
	switch {
	case errors.Is(err, domain.ErrRoleNotFound):
		_, err = b.roles.Create(ctx, ports.RoleInput{
			Name:        DefaultRoleName,
			Description: "Default system user",
			IsActive:    true,
			IsDefault:   true,
		})
		if err != nil {
			return fmt.Errorf("create default role: %w", err)
		}
		b.log.Info().Str("role", DefaultRoleName).Msg("default role created")
	case err != nil:
		return fmt.Errorf("find default role: %w", err)
	case !role.IsDefault:
		if _, err := b.roles.SetDefault(ctx, role.ID); err != nil {
			return err
		}
		b.log.Info().Str("role", DefaultRoleName).Msg("default role flagged")
	}
	return nil
}

func (b *Bootstrapper) ensureSuperuser(ctx context.Context, email, password string) error {
	if _, err := b.userRepo.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("find superuser: %w", err)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash superuser password: %w", err)
	}
	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		IsSuperuser:  true,
		IsVerified:   true,
	}
	if err := b.userRepo.Create(ctx, user); err != nil {
		return fmt.Errorf("create superuser: %w", err)
	}
	b.log.Info().Int64("user_id", user.ID).Msg("first superuser created")
	return nil
}
