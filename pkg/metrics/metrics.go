// Package metrics defines and registers the custom Prometheus metrics of the
// RBAC API. It is the single source of truth for metric names, labels, and
// help strings. All collectors register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rbac"

// ── Authentication metrics ────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "throttled" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// TokensIssuedTotal counts signed tokens.
// Label:
//   - type: "access" or "refresh"
var TokensIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of tokens issued, by token type.",
	},
	[]string{"type"},
)

// TokenRejectionsTotal counts bearer tokens rejected during principal resolution.
// Label:
//   - reason: "invalid", "expired", "wrong_type", "unknown_user" or "inactive_user"
var TokenRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_rejections_total",
		Help:      "Total number of bearer tokens rejected, by reason.",
	},
	[]string{"reason"},
)

// ── Authorization metrics ─────────────────────────────────────────────────────

// AuthorizationDecisionsTotal counts route-guard decisions.
// Labels:
//   - kind: "permission", "role", "superuser" or "verified"
//   - result: "allow" or "deny"
var AuthorizationDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_decisions_total",
		Help:      "Total number of authorization decisions, by check kind and result.",
	},
	[]string{"kind", "result"},
)

// ── Background task metrics ───────────────────────────────────────────────────

// EmailTasksTotal counts email tasks on both sides of the queue.
// Labels:
//   - type: the asynq task type (e.g. "email:welcome")
//   - result: "enqueued" or "error" from the API, "sent" or "failed" from the worker
var EmailTasksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "email_tasks_total",
		Help:      "Total number of email tasks enqueued or processed, by type and result.",
	},
	[]string{"type", "result"},
)
