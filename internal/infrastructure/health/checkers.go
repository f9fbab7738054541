package health

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-redis/redis/v8"

	"github.com/endemicgrants/grant-discovery/internal/core/ports"
	infraDB "github.com/endemicgrants/grant-discovery/internal/infrastructure/db"
)

// dbHealthChecker wraps the database for health checks.
type dbHealthChecker struct{ db *infraDB.Database }

func (d *dbHealthChecker) Name() string                    { return "database" }
func (d *dbHealthChecker) Check(ctx context.Context) error { return d.db.DB.PingContext(ctx) }

// redisHealthChecker wraps the redis client for health checks.
type redisHealthChecker struct{ client *redis.Client }

func (r *redisHealthChecker) Name() string                    { return "redis" }
func (r *redisHealthChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }

// cacheDirHealthChecker verifies the disk cache directory is writable.
type cacheDirHealthChecker struct{ dir string }

func (c *cacheDirHealthChecker) Name() string { return "cache_dir" }

func (c *cacheDirHealthChecker) Check(ctx context.Context) error {
	probe := filepath.Join(c.dir, ".healthcheck")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return err
	}
	return os.Remove(probe)
}

// NewDBHealthChecker creates a health checker for the database.
func NewDBHealthChecker(db *infraDB.Database) ports.HealthChecker { return &dbHealthChecker{db: db} }

// NewRedisHealthChecker creates a health checker for Redis.
func NewRedisHealthChecker(client *redis.Client) ports.HealthChecker {
	return &redisHealthChecker{client: client}
}

// NewCacheDirHealthChecker creates a health checker for the disk cache.
func NewCacheDirHealthChecker(dir string) ports.HealthChecker {
	return &cacheDirHealthChecker{dir: dir}
}
