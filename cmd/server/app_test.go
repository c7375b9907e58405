package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/platform/cache"
	"github.com/phrazzld/taskboard-api/internal/platform/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:            8080,
			LogLevel:        "debug",
			ShutdownTimeout: 2 * time.Second,
		},
		Database: config.DatabaseConfig{URL: "postgres://localhost:5432/taskboard"},
		Auth: config.AuthConfig{
			JWTSecret:                   strings.Repeat("k", 32),
			BCryptCost:                  4,
			TokenLifetimeMinutes:        60,
			RefreshTokenLifetimeMinutes: 1440,
		},
		Cache:   config.CacheConfig{TTL: time.Minute},
		Tracing: config.TracingConfig{ServiceName: "taskboard-api-test"},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestApplication(t *testing.T, cfg *config.Config) (*application, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	app, err := newApplication(context.Background(), cfg, discardLogger(), db)
	require.NoError(t, err)
	return app, mock
}

func TestNewApplication_WithoutCache(t *testing.T) {
	app, mock := newTestApplication(t, testConfig())

	assert.Nil(t, app.redis)
	assert.IsType(t, &postgres.PostgresProjectStore{}, app.projectStore)
	assert.NotNil(t, app.userService)
	assert.NotNil(t, app.projectService)
	assert.NotNil(t, app.taskService)

	mock.ExpectClose()
	app.cleanup()
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewApplication_WithCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Cache.RedisURL = "redis://" + mr.Addr()

	app, mock := newTestApplication(t, cfg)

	require.NotNil(t, app.redis)
	assert.IsType(t, &cache.ProjectCache{}, app.projectStore)

	mock.ExpectClose()
	app.cleanup()
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Error(t, app.redis.Ping(context.Background()).Err(), "redis client is closed on cleanup")
}

func TestNewApplication_Errors(t *testing.T) {
	t.Run("unreachable cache", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg := testConfig()
		cfg.Cache.RedisURL = "redis://" + addr
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		_, err = newApplication(context.Background(), cfg, discardLogger(), db)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to connect to cache")
	})

	t.Run("short jwt secret", func(t *testing.T) {
		cfg := testConfig()
		cfg.Auth.JWTSecret = "short"
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		_, err = newApplication(context.Background(), cfg, discardLogger(), db)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to initialize JWT service")
	})
}

func TestSetupRouter(t *testing.T) {
	app, _ := newTestApplication(t, testConfig())
	router := app.setupRouter()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/projects", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestStartHTTPServer_GracefulShutdown(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Port = freePort(t)
	app, _ := newTestApplication(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.startHTTPServer(ctx, app.setupRouter()) }()

	url := "http://127.0.0.1:" + strconv.Itoa(cfg.Server.Port) + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestStartHTTPServer_PortInUse(t *testing.T) {
	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	cfg := testConfig()
	cfg.Server.Port = l.Addr().(*net.TCPAddr).Port
	app, _ := newTestApplication(t, cfg)

	err = app.startHTTPServer(context.Background(), http.NotFoundHandler())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server failed")
}
