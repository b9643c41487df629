package queue

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue every email task is placed on.
	QueueDefault = "default"

	TaskTypeWelcomeEmail         = "email:welcome"
	TaskTypePasswordChangedEmail = "email:password_changed"

	defaultMaxRetry = 5
)

// EmailPayload identifies the recipient of a user-facing email.
type EmailPayload struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// NewWelcomeEmailTask builds the task sent after registration.
func NewWelcomeEmailTask(p EmailPayload) (*asynq.Task, error) {
	return newEmailTask(TaskTypeWelcomeEmail, p)
}

// NewPasswordChangedEmailTask builds the task sent after a password change.
func NewPasswordChangedEmailTask(p EmailPayload) (*asynq.Task, error) {
	return newEmailTask(TaskTypePasswordChangedEmail, p)
}

func newEmailTask(taskType string, p EmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", taskType, err)
	}
	return asynq.NewTask(taskType, data, asynq.MaxRetry(defaultMaxRetry), asynq.Queue(QueueDefault)), nil
}

func decodeEmailPayload(t *asynq.Task) (EmailPayload, error) {
	var p EmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("decode %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	if p.Email == "" {
		return p, fmt.Errorf("%s payload has no recipient: %w", t.Type(), asynq.SkipRetry)
	}
	return p, nil
}
