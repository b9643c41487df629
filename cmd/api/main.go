//go:generate swag init -g main.go -d ./,../../internal/api/handler,../../internal/infrastructure/http/handlers -o ../../docs

// @title                       RBAC API
// @version                     1.0
// @description                 User, role and permission administration with JWT authentication.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the access token.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	_ "github.com/RafhaelH/rbac-api/docs"
	"github.com/RafhaelH/rbac-api/internal/api"
	"github.com/RafhaelH/rbac-api/internal/core/security"
	"github.com/RafhaelH/rbac-api/internal/core/service"
	"github.com/RafhaelH/rbac-api/internal/infrastructure/config"
	"github.com/RafhaelH/rbac-api/internal/infrastructure/db/migrate"
	"github.com/RafhaelH/rbac-api/internal/infrastructure/db/postgres"
	"github.com/RafhaelH/rbac-api/internal/infrastructure/db/redis"
	apphttp "github.com/RafhaelH/rbac-api/internal/infrastructure/http"
	"github.com/RafhaelH/rbac-api/internal/infrastructure/queue"
	"github.com/RafhaelH/rbac-api/pkg/logger"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: cfg.ServiceName,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("api stopped")
	}
	log.Info().Msg("api stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if cfg.Database.MigrateOnStart {
		if err := migrate.Run(ctx, migrate.Options{
			DSN:     cfg.Database.DSN,
			Command: "up",
			Logger:  logger.Component("migrate"),
		}); err != nil {
			return err
		}
	}

	db, err := postgres.Connect(ctx, postgres.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger.Component("postgres"))
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	log.Info().Msg("postgres connected")

	userRepo := postgres.NewUserRepository(db)
	roleRepo := postgres.NewRoleRepository(db)
	permRepo := postgres.NewPermissionRepository(db)

	tokens := security.NewTokenCodec(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	var (
		authOpts []service.AuthOption
		rdb      *goredis.Client
	)
	if cfg.RedisEnabled() {
		redisCfg := redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
		rdb, err = redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer rdb.Close()

		tasks := asynq.NewClient(redisCfg.AsynqOpt())
		defer tasks.Close()

		authOpts = append(authOpts,
			service.WithLoginLimiter(redis.NewLoginLimiter(rdb, cfg.Login.MaxAttempts, cfg.Login.LockoutWindow)),
			service.WithNotifier(queue.NewNotifier(tasks, logger.Component("notifier"))),
		)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected, login throttling and email tasks enabled")
	} else {
		log.Warn().Msg("REDIS_ADDR not set, login throttling and email tasks disabled")
	}

	authSvc := service.NewAuthService(userRepo, roleRepo, tokens, logger.Component("auth"), authOpts...)
	userSvc := service.NewUserService(userRepo, roleRepo, logger.Component("users"))
	roleSvc := service.NewRoleService(roleRepo, permRepo, logger.Component("roles"))
	permSvc := service.NewPermissionService(permRepo, logger.Component("permissions"))

	if cfg.Bootstrap.SeedDefaults {
		boot := service.NewBootstrapper(permSvc, roleSvc, roleRepo, userRepo, logger.Component("bootstrap"))
		if err := boot.Run(ctx, service.BootstrapOptions{
			SuperuserEmail:    cfg.Bootstrap.FirstSuperuserEmail,
			SuperuserPassword: cfg.Bootstrap.FirstSuperuserPassword,
		}); err != nil {
			return err
		}
	}

	deps := api.RouterDeps{
		Log:         logger.Component("http"),
		APIPrefix:   cfg.APIPrefix,
		CORSOrigins: cfg.CORSOrigins,
		Env:         cfg.Env,
		Version:     version,
		AppName:     cfg.AppName,
		Auth:        authSvc,
		Users:       userSvc,
		Roles:       roleSvc,
		Permissions: permSvc,
		DB:          sqlDB,
		Redis:       rdb,
	}

	srv := apphttp.NewServer(api.NewRouter(deps), ":"+cfg.Port, log)
	return srv.Run(ctx)
}
