package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, h(c))
	return rec
}

func TestHealth(t *testing.T) {
	h := NewHealthHandler("test", "1.2.3")
	h.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	rec := serve(t, h.Health)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "1.2.3", body.Version)
	assert.Equal(t, "test", body.Environment)
}

func TestLiveness(t *testing.T) {
	rec := serve(t, NewHealthHandler("test", "").Liveness)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}

func newPinger(t *testing.T, pingErr error) *sqlmockPinger {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	exp := mock.ExpectPing()
	if pingErr != nil {
		exp.WillReturnError(pingErr)
	}
	return &sqlmockPinger{db: db, mock: mock}
}

type sqlmockPinger struct {
	db   Pinger
	mock sqlmock.Sqlmock
}

func TestReadiness_AllHealthy(t *testing.T) {
	p := newPinger(t, nil)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	rec := serve(t, NewHealthDependenciesHandler(p.db, rdb).Readiness)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body readinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body.Status)
	assert.Equal(t, "ok", body.Dependencies["postgres"].Status)
	assert.Equal(t, "ok", body.Dependencies["redis"].Status)
	assert.NoError(t, p.mock.ExpectationsWereMet())
}

func TestReadiness_DatabaseDown(t *testing.T) {
	p := newPinger(t, errors.New("connection refused"))

	rec := serve(t, NewHealthDependenciesHandler(p.db, nil).Readiness)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body readinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body.Status)
	assert.Equal(t, "unhealthy", body.Dependencies["postgres"].Status)
	assert.Contains(t, body.Dependencies["postgres"].Error, "connection refused")
	_, hasRedis := body.Dependencies["redis"]
	assert.False(t, hasRedis, "redis is skipped when not configured")
}

func TestReadiness_RedisDown(t *testing.T) {
	p := newPinger(t, nil)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	rec := serve(t, NewHealthDependenciesHandler(p.db, rdb).Readiness)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body readinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Dependencies["redis"].Status)
}
