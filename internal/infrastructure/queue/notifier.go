package queue

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/RafhaelH/rbac-api/internal/core/domain"
	"github.com/RafhaelH/rbac-api/pkg/metrics"
)

// Enqueuer is the subset of *asynq.Client the notifier needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Notifier hands user emails to the asynq queue.
type Notifier struct {
	client Enqueuer
	log    zerolog.Logger
}

func NewNotifier(client Enqueuer, log zerolog.Logger) *Notifier {
	return &Notifier{client: client, log: log}
}

func (n *Notifier) Welcome(ctx context.Context, user *domain.User) error {
	task, err := NewWelcomeEmailTask(payloadFor(user))
	if err != nil {
		return err
	}
	return n.enqueue(ctx, task)
}

func (n *Notifier) PasswordChanged(ctx context.Context, user *domain.User) error {
	task, err := NewPasswordChangedEmailTask(payloadFor(user))
	if err != nil {
		return err
	}
	return n.enqueue(ctx, task)
}

func (n *Notifier) enqueue(ctx context.Context, task *asynq.Task) error {
	info, err := n.client.EnqueueContext(ctx, task)
	if err != nil {
		metrics.EmailTasksTotal.WithLabelValues(task.Type(), "error").Inc()
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	metrics.EmailTasksTotal.WithLabelValues(task.Type(), "enqueued").Inc()
	if info != nil {
		n.log.Debug().Str("task_id", info.ID).Str("type", task.Type()).Msg("email task enqueued")
	}
	return nil
}

func payloadFor(u *domain.User) EmailPayload {
	return EmailPayload{UserID: u.ID, Email: u.Email, Name: u.FullName()}
}
