package main

import (
	"context"
	"flag"
	"os"

	"github.com/RafhaelH/rbac-api/internal/infrastructure/db/migrate"
	"github.com/RafhaelH/rbac-api/pkg/logger"
)

func main() {
	dsn := flag.String("dsn", os.Getenv("DATABASE_DSN"), "postgres connection string")
	target := flag.Int64("target", 0, "version for up-to and down-to")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	log := logger.Init(logger.Options{Level: *level, Pretty: true, Service: "rbac-migrate"})

	if *dsn == "" {
		log.Fatal().Msg("DATABASE_DSN or -dsn is required")
	}

	if err := migrate.Run(context.Background(), migrate.Options{
		DSN:     *dsn,
		Command: command,
		Target:  *target,
		Logger:  log,
	}); err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("migration failed")
	}
	log.Info().Str("command", command).Msg("migration completed")
}
