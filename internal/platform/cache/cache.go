// Package cache provides a Redis read-through cache in front of the project
// store. Task operations resolve the parent project on every call for access
// checks, so project lookups are the hot read path.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient parses a redis:// URL and verifies the server is reachable.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// ProjectCache wraps a store.ProjectStore, caching GetByID results in Redis.
// Writes made outside a transaction evict the affected key immediately;
// writes made through WithTx are evicted by the caller after commit via Evict.
type ProjectCache struct {
	base   store.ProjectStore
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ store.ProjectStore = (*ProjectCache)(nil)

// NewProjectCache creates a caching wrapper. A nil client disables caching.
func NewProjectCache(base store.ProjectStore, client *redis.Client, ttl time.Duration, logger *slog.Logger) *ProjectCache {
	if base == nil {
		panic("cache.NewProjectCache: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectCache{
		base:   base,
		redis:  client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "project_cache")),
	}
}

func projectKey(id uuid.UUID) string {
	return "project:" + id.String()
}

// GetByID returns the cached project or loads and caches it.
func (c *ProjectCache) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	if p, ok := c.load(ctx, id); ok {
		return p, nil
	}

	p, err := c.base.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.save(ctx, p)
	return p, nil
}

func (c *ProjectCache) load(ctx context.Context, id uuid.UUID) (*domain.Project, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, projectKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.FromContextOrDefault(ctx, c.logger).Warn("project cache read failed",
				slog.String("error", err.Error()),
				slog.String("project_id", id.String()))
			_ = c.redis.Del(ctx, projectKey(id)).Err()
		}
		return nil, false
	}
	var p domain.Project
	if err := json.Unmarshal(data, &p); err != nil {
		_ = c.redis.Del(ctx, projectKey(id)).Err()
		return nil, false
	}
	return &p, true
}

func (c *ProjectCache) save(ctx context.Context, p *domain.Project) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, projectKey(p.ID), data, c.ttl).Err()
}

// Evict removes a project from the cache. Redis errors are logged and swallowed.
func (c *ProjectCache) Evict(ctx context.Context, id uuid.UUID) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, projectKey(id)).Err(); err != nil {
		logger.FromContextOrDefault(ctx, c.logger).Warn("project cache eviction failed",
			slog.String("error", err.Error()),
			slog.String("project_id", id.String()))
	}
}

// Create implements store.ProjectStore.
func (c *ProjectCache) Create(ctx context.Context, project *domain.Project) error {
	return c.base.Create(ctx, project)
}

// GetForUpdate implements store.ProjectStore. Locking reads always go to the database.
func (c *ProjectCache) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return c.base.GetForUpdate(ctx, id)
}

// GetForShare implements store.ProjectStore. Locking reads always go to the database.
func (c *ProjectCache) GetForShare(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return c.base.GetForShare(ctx, id)
}

// ProjectIDsForMember implements store.ProjectStore.
func (c *ProjectCache) ProjectIDsForMember(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return c.base.ProjectIDsForMember(ctx, userID)
}

// List implements store.ProjectStore. Listings are not cached.
func (c *ProjectCache) List(ctx context.Context, filter store.ProjectFilter) ([]*domain.Project, int, error) {
	return c.base.List(ctx, filter)
}

// Update implements store.ProjectStore.
func (c *ProjectCache) Update(ctx context.Context, project *domain.Project) error {
	if err := c.base.Update(ctx, project); err != nil {
		return err
	}
	c.Evict(ctx, project.ID)
	return nil
}

// Delete implements store.ProjectStore.
func (c *ProjectCache) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.base.Delete(ctx, id); err != nil {
		return err
	}
	c.Evict(ctx, id)
	return nil
}

// AddMembers implements store.ProjectStore.
func (c *ProjectCache) AddMembers(ctx context.Context, projectID uuid.UUID, userIDs []uuid.UUID) error {
	if err := c.base.AddMembers(ctx, projectID, userIDs); err != nil {
		return err
	}
	c.Evict(ctx, projectID)
	return nil
}

// RemoveMembers implements store.ProjectStore.
func (c *ProjectCache) RemoveMembers(ctx context.Context, projectID uuid.UUID, userIDs []uuid.UUID) error {
	if err := c.base.RemoveMembers(ctx, projectID, userIDs); err != nil {
		return err
	}
	c.Evict(ctx, projectID)
	return nil
}

// WithTx returns the underlying store bound to tx. Reads inside a
// transaction must see its own writes, so they bypass the cache.
func (c *ProjectCache) WithTx(tx *sql.Tx) store.ProjectStore {
	return c.base.WithTx(tx)
}
