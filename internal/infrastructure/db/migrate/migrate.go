package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

const (
	migrationsDir = "sql"
	versionTable  = "schema_migrations"
)

// Options defines how to run migrations.
type Options struct {
	DSN     string
	Command string // up, down, status, version, up-to, down-to, redo, reset
	Target  int64  // used with up-to and down-to
	Logger  zerolog.Logger
}

// Run applies the embedded migrations to the database at DSN. An empty DSN
// is a no-op.
func Run(ctx context.Context, opts Options) error {
	if strings.TrimSpace(opts.DSN) == "" {
		return nil
	}

	goose.SetLogger(gooseLogger{log: opts.Logger})
	goose.SetBaseFS(migrationsFS)
	goose.SetTableName(versionTable)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	switch strings.ToLower(strings.TrimSpace(opts.Command)) {
	case "", "up":
		return goose.UpContext(ctx, db, migrationsDir)
	case "down":
		return goose.DownContext(ctx, db, migrationsDir)
	case "status":
		return goose.StatusContext(ctx, db, migrationsDir)
	case "version":
		return goose.VersionContext(ctx, db, migrationsDir)
	case "up-to":
		return goose.UpToContext(ctx, db, migrationsDir, opts.Target)
	case "down-to":
		return goose.DownToContext(ctx, db, migrationsDir, opts.Target)
	case "redo":
		return goose.RedoContext(ctx, db, migrationsDir)
	case "reset":
		return goose.ResetContext(ctx, db, migrationsDir)
	default:
		return fmt.Errorf("unknown migration command: %s", opts.Command)
	}
}

type gooseLogger struct {
	log zerolog.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Info().Str("component", "migrate").Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Fatal().Str("component", "migrate").Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
