package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/kanak-erp/kanak/internal/catalog"
	jobmetrics "github.com/kanak-erp/kanak/internal/jobs"
	"github.com/kanak-erp/kanak/internal/shared"
)

const refreshLockTTL = 2 * time.Minute

// CatalogRefresher rebuilds the catalog cache.
type CatalogRefresher interface {
	Refresh(ctx context.Context) (catalog.Snapshot, error)
}

// CatalogRefreshJob bumps the catalog cache version and warms it again. Runs
// are serialised across workers through a Redis lock.
type CatalogRefreshJob struct {
	Catalog CatalogRefresher
	Redis   *redis.Client
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewCatalogRefreshJob wires dependencies for the refresh handler.
func NewCatalogRefreshJob(refresher CatalogRefresher, client *redis.Client, logger *slog.Logger, metrics *jobmetrics.Metrics) *CatalogRefreshJob {
	return &CatalogRefreshJob{Catalog: refresher, Redis: client, Logger: logger, Metrics: metrics}
}

// Handle processes catalog refresh tasks.
func (j *CatalogRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Catalog == nil || j.Redis == nil {
		return errors.New("catalog refresh: dependencies not configured")
	}
	var payload CatalogRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	logger := j.logger().With(slog.String("reason", payload.Reason))

	token := uuid.NewString()
	key := shared.CatalogRefreshLockKey()
	ok, err := j.Redis.SetNX(ctx, key, token, refreshLockTTL).Result()
	if err != nil {
		return err
	}
	if !ok {
		logger.Info("catalog refresh skipped, another run holds the lock")
		return nil
	}
	defer func() {
		if current, err := j.Redis.Get(context.WithoutCancel(ctx), key).Result(); err == nil && current == token {
			_ = j.Redis.Del(context.WithoutCancel(ctx), key).Err()
		}
	}()

	tracker := j.metrics().Track(TaskCatalogRefresh)
	snap, err := j.Catalog.Refresh(ctx)
	if err != nil {
		logger.Error("catalog refresh", slog.Any("error", err))
		return tracker.End(err)
	}
	j.metrics().CatalogBumped()
	logger.Info("catalog refresh completed",
		slog.Int("categories", len(snap.Categories)),
		slog.Int("metal_prices", len(snap.MetalPrices)))
	return tracker.End(nil)
}

func (j *CatalogRefreshJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *CatalogRefreshJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
