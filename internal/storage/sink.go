package storage

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosight/gameperf/internal/config"
	"github.com/gosight/gameperf/internal/report"
)

// connectTimeout bounds connecting to and preparing all sinks in Open.
var connectTimeout = 10 * time.Second

// Sink is a secondary destination for finished reports.
type Sink interface {
	Name() string
	Store(ctx context.Context, r *report.Report) error
	Close() error
}

// Publisher fans a report out to every configured sink.
type Publisher struct {
	sinks   []Sink
	timeout time.Duration
}

// NewPublisher creates a publisher over sinks.
func NewPublisher(sinks ...Sink) *Publisher {
	return &Publisher{
		sinks:   sinks,
		timeout: 30 * time.Second,
	}
}

// Open connects every sink that has configuration. A sink that cannot be
// reached before connectTimeout is logged and left out.
func Open(ctx context.Context, cfg *config.Config) *Publisher {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	var sinks []Sink

	if cfg.ClickHouse.Addr != "" {
		ch, err := NewClickHouse(ctx, cfg.ClickHouse)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.ClickHouse.Addr).Msg("ClickHouse unavailable, skipping")
		} else {
			sinks = append(sinks, ch)
		}
	}

	if cfg.Postgres.DSN != "" {
		pg, err := NewPostgres(ctx, cfg.Postgres)
		if err != nil {
			log.Warn().Err(err).Msg("PostgreSQL unavailable, skipping")
		} else {
			sinks = append(sinks, pg)
		}
	}

	if cfg.Redis.Addr != "" {
		rc, err := NewRedis(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, skipping")
		} else {
			sinks = append(sinks, rc)
		}
	}

	if len(cfg.Kafka.Brokers) > 0 && len(cfg.Kafka.Topics) > 0 {
		sinks = append(sinks, NewKafka(cfg.Kafka))
	}

	if cfg.GCS.Bucket != "" {
		gcs, err := NewGCS(ctx, cfg.GCS)
		if err != nil {
			log.Warn().Err(err).Str("bucket", cfg.GCS.Bucket).Msg("GCS unavailable, skipping")
		} else {
			sinks = append(sinks, gcs)
		}
	}

	for _, s := range sinks {
		log.Info().Str("sink", s.Name()).Msg("Report sink initialized")
	}

	return NewPublisher(sinks...)
}

// Len returns the number of sinks.
func (p *Publisher) Len() int {
	return len(p.sinks)
}

// Publish stores r in every sink and returns how many succeeded. Failures are
// logged per sink.
func (p *Publisher) Publish(ctx context.Context, r *report.Report) int {
	stored := 0
	for _, s := range p.sinks {
		sctx, cancel := context.WithTimeout(ctx, p.timeout)
		err := s.Store(sctx, r)
		cancel()

		if err != nil {
			log.Error().Err(err).Str("sink", s.Name()).Str("run_id", r.RunID).Msg("Failed to store report")
			continue
		}
		stored++
		log.Debug().Str("sink", s.Name()).Str("run_id", r.RunID).Msg("Report stored")
	}
	return stored
}

// Close closes every sink.
func (p *Publisher) Close() {
	for _, s := range p.sinks {
		if err := s.Close(); err != nil {
			log.Debug().Err(err).Str("sink", s.Name()).Msg("Failed to close sink")
		}
	}
}
