package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/RafhaelH/rbac-api/internal/infrastructure/config"
	"github.com/RafhaelH/rbac-api/internal/infrastructure/db/redis"
	"github.com/RafhaelH/rbac-api/internal/infrastructure/queue"
	"github.com/RafhaelH/rbac-api/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: cfg.ServiceName + "-worker",
	})

	if !cfg.RedisEnabled() {
		log.Fatal().Err(errors.New("REDIS_ADDR is required")).Msg("worker cannot start")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var mailer queue.Mailer
	if cfg.SMTP.Host != "" {
		mailer = queue.NewSMTPMailer(queue.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		log.Warn().Msg("SMTP_HOST not set, emails are logged instead of sent")
		mailer = queue.NewLogMailer(logger.Component("mailer"))
	}

	worker := queue.NewWorker(queue.WorkerConfig{
		RedisOpts:   redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}.AsynqOpt(),
		Concurrency: cfg.Worker.Concurrency,
		Handlers:    queue.NewEmailHandlers(mailer, cfg.AppName, logger.Component("email")),
		Logger:      logger.Component("worker"),
	})

	if err := worker.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("worker stopped")
	}
	log.Info().Msg("worker stopped")
}
