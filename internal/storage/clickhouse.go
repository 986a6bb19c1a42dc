package storage

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/gosight/gameperf/internal/config"
	"github.com/gosight/gameperf/internal/report"
)

type ClickHouse struct {
	conn driver.Conn
}

// RunRow represents a row in the perf_runs table
type RunRow struct {
	RunID             string
	Page              string
	Timestamp         time.Time
	Browser           string
	BrowserVersion    string
	OS                string
	CPUThrottleRate   float64
	FPSAvg            float64
	FPSMin            float64
	FPSMax            float64
	RenderTimeAvg     float64
	RenderTimeMax     float64
	InputLatencyAvg   float64
	InputLatencyMax   float64
	MemoryAvg         float64
	MemoryMin         float64
	MemoryMax         float64
	CPUTaskAvg        float64
	CPUTaskMax        float64
	CodeIssues        []string
	Recommendations   []string
	CompatibilityPass uint8
}

// NewRunRow flattens a report into a perf_runs row
func NewRunRow(r *report.Report) RunRow {
	m := r.Metrics
	row := RunRow{
		RunID:           r.RunID,
		Page:            r.Page,
		Timestamp:       r.GeneratedAt,
		FPSAvg:          m.FPS.Avg,
		FPSMin:          deref(m.FPS.Min),
		FPSMax:          m.FPS.Max,
		RenderTimeAvg:   m.RenderTime.Avg,
		RenderTimeMax:   m.RenderTime.Max,
		InputLatencyAvg: m.InputLatency.Avg,
		InputLatencyMax: m.InputLatency.Max,
		MemoryAvg:       m.MemoryUsage.Avg,
		MemoryMin:       deref(m.MemoryUsage.Min),
		MemoryMax:       m.MemoryUsage.Max,
		CPUTaskAvg:      m.CPUUsage.Avg,
		CPUTaskMax:      m.CPUUsage.Max,
		CodeIssues:      r.CodeIssues,
		Recommendations: r.Recommendations,
	}

	if r.Environment != nil {
		row.Browser = r.Environment.Browser
		row.BrowserVersion = r.Environment.BrowserVersion
		row.OS = r.Environment.OS
		row.CPUThrottleRate = r.Environment.CPUThrottleRate
	}
	if r.Compatibility != nil && r.Compatibility.Passed {
		row.CompatibilityPass = 1
	}

	return row
}

func NewClickHouse(ctx context.Context, cfg config.ClickHouseConfig) (*ClickHouse, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	})
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := conn.Ping(ctx); err != nil {
		return nil, err
	}

	return &ClickHouse{conn: conn}, nil
}

func (c *ClickHouse) Name() string {
	return "clickhouse"
}

func (c *ClickHouse) Store(ctx context.Context, r *report.Report) error {
	return c.InsertRuns(ctx, []RunRow{NewRunRow(r)})
}

func (c *ClickHouse) InsertRuns(ctx context.Context, runs []RunRow) error {
	if len(runs) == 0 {
		return nil
	}

	batch, err := c.conn.PrepareBatch(ctx, `
		INSERT INTO perf_runs (
			run_id, page, timestamp,
			browser, browser_version, os, cpu_throttle_rate,
			fps_avg, fps_min, fps_max,
			render_time_avg, render_time_max,
			input_latency_avg, input_latency_max,
			memory_avg, memory_min, memory_max,
			cpu_task_avg, cpu_task_max,
			code_issues, recommendations, compatibility_pass
		)
	`)
	if err != nil {
		return err
	}

	for _, r := range runs {
		err := batch.Append(
			r.RunID, r.Page, r.Timestamp,
			r.Browser, r.BrowserVersion, r.OS, r.CPUThrottleRate,
			r.FPSAvg, r.FPSMin, r.FPSMax,
			r.RenderTimeAvg, r.RenderTimeMax,
			r.InputLatencyAvg, r.InputLatencyMax,
			r.MemoryAvg, r.MemoryMin, r.MemoryMax,
			r.CPUTaskAvg, r.CPUTaskMax,
			r.CodeIssues, r.Recommendations, r.CompatibilityPass,
		)
		if err != nil {
			return err
		}
	}

	return batch.Send()
}

func (c *ClickHouse) Close() error {
	return c.conn.Close()
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
