package queue

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/RafhaelH/rbac-api/pkg/metrics"
)

const defaultConcurrency = 5

// EmailHandlers renders and delivers the email tasks.
type EmailHandlers struct {
	mailer  Mailer
	appName string
	log     zerolog.Logger
}

func NewEmailHandlers(mailer Mailer, appName string, log zerolog.Logger) *EmailHandlers {
	return &EmailHandlers{mailer: mailer, appName: appName, log: log}
}

// Register mounts every email handler on mux.
func (h *EmailHandlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskTypeWelcomeEmail, h.HandleWelcome)
	mux.HandleFunc(TaskTypePasswordChangedEmail, h.HandlePasswordChanged)
}

func (h *EmailHandlers) HandleWelcome(ctx context.Context, t *asynq.Task) error {
	p, err := decodeEmailPayload(t)
	if err != nil {
		return err
	}
	return h.deliver(ctx, t.Type(), Message{
		To:      p.Email,
		Subject: fmt.Sprintf("Welcome to %s", h.appName),
		Body: fmt.Sprintf("Hi %s,\n\nYour %s account has been created. You can now sign in with %s.\n",
			p.Name, h.appName, p.Email),
	})
}

func (h *EmailHandlers) HandlePasswordChanged(ctx context.Context, t *asynq.Task) error {
	p, err := decodeEmailPayload(t)
	if err != nil {
		return err
	}
	return h.deliver(ctx, t.Type(), Message{
		To:      p.Email,
		Subject: fmt.Sprintf("Your %s password was changed", h.appName),
		Body: fmt.Sprintf("Hi %s,\n\nThe password for %s was just changed. If this was not you, contact an administrator.\n",
			p.Name, p.Email),
	})
}

func (h *EmailHandlers) deliver(ctx context.Context, taskType string, msg Message) error {
	if err := h.mailer.Send(ctx, msg); err != nil {
		metrics.EmailTasksTotal.WithLabelValues(taskType, "failed").Inc()
		h.log.Warn().Err(err).Str("type", taskType).Msg("email delivery failed")
		return err
	}
	metrics.EmailTasksTotal.WithLabelValues(taskType, "sent").Inc()
	return nil
}

// WorkerConfig collects what the worker needs to start.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Concurrency int
	Handlers    *EmailHandlers
	Logger      zerolog.Logger
}

// Worker wraps the asynq server.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    zerolog.Logger
}

func NewWorker(cfg WorkerConfig) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	log := cfg.Logger
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{QueueDefault: 1},
		Logger:      asynqLogger{log: log},
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, t *asynq.Task, err error) {
			log.Error().Err(err).Str("type", t.Type()).Msg("task failed")
		}),
	})
	mux := asynq.NewServeMux()
	if cfg.Handlers != nil {
		cfg.Handlers.Register(mux)
	}
	return &Worker{server: srv, mux: mux, log: log}
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	w.log.Info().Msg("worker started")

	<-ctx.Done()
	w.server.Shutdown()
	w.log.Info().Msg("worker stopped")
	return nil
}

// asynqLogger adapts zerolog to asynq.Logger.
type asynqLogger struct {
	log zerolog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.log.Fatal().Msg(fmt.Sprint(args...)) }
