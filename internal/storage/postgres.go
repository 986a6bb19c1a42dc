package storage

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosight/gameperf/internal/config"
	"github.com/gosight/gameperf/internal/report"
)

const createRunsTable = `
	CREATE TABLE IF NOT EXISTS perf_runs (
		run_id          uuid PRIMARY KEY,
		page            text NOT NULL,
		generated_at    timestamptz NOT NULL,
		fps_avg         double precision NOT NULL,
		render_time_avg double precision NOT NULL,
		input_latency_avg double precision NOT NULL,
		memory_max      double precision NOT NULL,
		issues_count    integer NOT NULL,
		report          jsonb NOT NULL
	)
`

const upsertRun = `
	INSERT INTO perf_runs (
		run_id, page, generated_at,
		fps_avg, render_time_avg, input_latency_avg, memory_max,
		issues_count, report
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (run_id) DO UPDATE SET report = EXCLUDED.report
`

// Postgres keeps the run history.
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(ctx context.Context, cfg config.PostgresConfig) (*Postgres, error) {
	db, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(ctx, createRunsTable); err != nil {
		db.Close()
		return nil, err
	}

	return &Postgres{db: db}, nil
}

func (p *Postgres) Name() string {
	return "postgres"
}

func (p *Postgres) Store(ctx context.Context, r *report.Report) error {
	args, err := runArgs(r)
	if err != nil {
		return err
	}
	_, err = p.db.Exec(ctx, upsertRun, args...)
	return err
}

func (p *Postgres) Close() error {
	p.db.Close()
	return nil
}

// runArgs returns the upsertRun arguments for r.
func runArgs(r *report.Report) ([]any, error) {
	doc, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}

	return []any{
		r.RunID, r.Page, r.GeneratedAt,
		r.Metrics.FPS.Avg, r.Metrics.RenderTime.Avg, r.Metrics.InputLatency.Avg, r.Metrics.MemoryUsage.Max,
		len(r.CodeIssues), doc,
	}, nil
}
