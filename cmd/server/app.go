package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskboard-api/internal/api"
	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/events"
	"github.com/phrazzld/taskboard-api/internal/platform/cache"
	"github.com/phrazzld/taskboard-api/internal/platform/postgres"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/redis/go-redis/v9"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *redis.Client

	userStore        store.UserStore
	projectStore     store.ProjectStore
	taskStore        store.TaskStore
	taskHistoryStore store.TaskHistoryStore

	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier

	userService    service.UserService
	projectService service.ProjectService
	taskService    service.TaskService

	eventEmitter *events.InMemoryEventEmitter
}

// newApplication creates a new application instance with all dependencies initialized.
// The database connection must already be established; Redis is connected here
// when a cache URL is configured.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes),
		slog.Int("refresh_token_lifetime_minutes", cfg.Auth.RefreshTokenLifetimeMinutes))

	app.passwordVerifier = auth.NewBcryptVerifier()

	app.userStore = postgres.NewPostgresUserStore(db, cfg.Auth.BCryptCost, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	app.taskHistoryStore = postgres.NewPostgresTaskHistoryStore(db, logger)
	app.projectStore = postgres.NewPostgresProjectStore(db, logger)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(events.NewAuditLogHandler(logger))

	if cfg.Cache.Enabled() {
		app.redis, err = cache.NewRedisClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to cache: %w", err)
		}
		projectCache := cache.NewProjectCache(app.projectStore, app.redis, cfg.Cache.TTL, logger)
		app.projectStore = projectCache
		app.eventEmitter.RegisterHandler(events.NewCacheInvalidationHandler(projectCache),
			events.ProjectUpdated, events.ProjectDeleted)
		logger.Info("Project cache enabled", slog.Duration("ttl", cfg.Cache.TTL))
	}

	txRunner := store.NewDBTxRunner(db)

	app.userService = service.NewUserService(app.userStore, app.projectStore, txRunner, app.eventEmitter, logger)
	app.projectService = service.NewProjectService(
		app.projectStore,
		app.userStore,
		app.taskStore,
		txRunner,
		app.eventEmitter,
		logger,
	)
	app.taskService = service.NewTaskService(
		app.taskStore,
		app.taskHistoryStore,
		app.projectStore,
		txRunner,
		app.eventEmitter,
		logger,
	)

	logger.Info("Application initialized successfully")
	return app, nil
}

// setupRouter creates the API handlers from the application services and
// mounts them on the router.
func (app *application) setupRouter() http.Handler {
	return api.NewRouter(api.RouterDeps{
		Auth: api.NewAuthHandler(
			app.userService,
			app.userStore,
			app.jwtService,
			app.passwordVerifier,
			app.logger,
		),
		Users:      api.NewUserHandler(app.userService),
		Projects:   api.NewProjectHandler(app.projectService),
		Tasks:      api.NewTaskHandler(app.taskService),
		JWTService: app.jwtService,
		Logger:     app.logger,
	})
}

// Run serves HTTP until ctx is cancelled, then releases application resources.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("Error closing cache connection", slog.Any("error", err))
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", slog.Any("error", err))
		}
	}

	app.logger.Info("Application shutdown completed")
}
