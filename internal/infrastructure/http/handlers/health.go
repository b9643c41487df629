package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const readinessTimeout = 3 * time.Second

// HealthHandler handles GET /health and GET /health/live.
// Returns 200 immediately; confirms the process is alive.
type HealthHandler struct {
	env     string
	version string
	now     func() time.Time
}

func NewHealthHandler(env, version string) *HealthHandler {
	return &HealthHandler{env: env, version: version, now: time.Now}
}

type healthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Version     string    `json:"version"`
	Environment string    `json:"environment"`
}

// Health reports process status with build metadata.
//
// @Summary      Health
// @Tags         health
// @Produce      json
// @Success      200  {object}  healthResponse
// @Router       /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:      "healthy",
		Timestamp:   h.now().UTC(),
		Version:     h.version,
		Environment: h.env,
	})
}

// Liveness is the bare liveness probe.
//
// @Summary      Liveness
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health/live [get]
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "alive"})
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthDependenciesHandler handles GET /health/ready, the readiness probe.
// Checks Postgres and, when configured, Redis before declaring the service ready.
type HealthDependenciesHandler struct {
	db    Pinger
	redis *redis.Client
}

// NewHealthDependenciesHandler builds the readiness probe. rdb may be nil.
func NewHealthDependenciesHandler(db Pinger, rdb *redis.Client) *HealthDependenciesHandler {
	return &HealthDependenciesHandler{
		db:    db,
		redis: rdb,
	}
}

type dependencyStatus struct {
	Status         string  `json:"status"`
	ResponseTimeMS float64 `json:"response_time_ms"`
	Error          string  `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// Readiness pings every dependency.
//
// @Summary      Readiness
// @Tags         health
// @Produce      json
// @Success      200  {object}  readinessResponse
// @Failure      503  {object}  readinessResponse
// @Router       /health/ready [get]
func (h *HealthDependenciesHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	deps := make(map[string]dependencyStatus)
	healthy := true

	check := func(name string, ping func(context.Context) error) {
		start := time.Now()
		err := ping(ctx)
		st := dependencyStatus{Status: "ok", ResponseTimeMS: float64(time.Since(start).Microseconds()) / 1000}
		if err != nil {
			st.Status, st.Error = "unhealthy", err.Error()
			healthy = false
		}
		deps[name] = st
	}

	check("postgres", h.db.PingContext)
	if h.redis != nil {
		check("redis", func(ctx context.Context) error { return h.redis.Ping(ctx).Err() })
	}

	status := "ready"
	httpStatus := http.StatusOK
	if !healthy {
		status = "not ready"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: deps,
	})
}
