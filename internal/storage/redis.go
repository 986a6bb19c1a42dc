package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gosight/gameperf/internal/config"
	"github.com/gosight/gameperf/internal/report"
)

// Redis caches the latest run per page plus a short history.
type Redis struct {
	client  *redis.Client
	ttl     time.Duration
	history int64
}

func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}

	return &Redis{
		client:  rdb,
		ttl:     cfg.TTL,
		history: cfg.History,
	}, nil
}

func (r *Redis) Name() string {
	return "redis"
}

func (r *Redis) Store(ctx context.Context, rep *report.Report) error {
	doc, err := json.Marshal(rep)
	if err != nil {
		return err
	}

	latest, history := redisKeys(rep.Page)

	// Use Redis pipeline for efficiency
	pipe := r.client.Pipeline()
	pipe.HSet(ctx, latest, latestFields(rep))
	pipe.LPush(ctx, history, doc)
	if r.history > 0 {
		pipe.LTrim(ctx, history, 0, r.history-1)
	}
	if r.ttl > 0 {
		pipe.Expire(ctx, latest, r.ttl)
		pipe.Expire(ctx, history, r.ttl)
	}

	_, err = pipe.Exec(ctx)
	return err
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func redisKeys(page string) (latest, history string) {
	return "gameperf:latest:" + page, "gameperf:history:" + page
}

func latestFields(r *report.Report) map[string]any {
	return map[string]any{
		"run_id":            r.RunID,
		"timestamp":         r.Timestamp,
		"fps_avg":           r.Metrics.FPS.Avg,
		"render_time_avg":   r.Metrics.RenderTime.Avg,
		"input_latency_avg": r.Metrics.InputLatency.Avg,
		"memory_max":        r.Metrics.MemoryUsage.Max,
		"issues":            len(r.CodeIssues),
		"recommendations":   len(r.Recommendations),
	}
}
