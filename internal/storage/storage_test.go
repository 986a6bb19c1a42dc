package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosight/gameperf/internal/config"
	"github.com/gosight/gameperf/internal/metrics"
	"github.com/gosight/gameperf/internal/report"
)

func sampleReport() *report.Report {
	s := metrics.NewStreams()
	s[metrics.FPS] = []float64{20, 30}
	s[metrics.RenderTime] = []float64{20}
	s[metrics.MemoryUsage] = []float64{40, 60}
	s[metrics.CPUUsage] = []float64{5}

	return report.Generate(report.Input{
		RunID:   "6f1c3b8e-8d6e-4a53-9a55-0d6c0f6b1a2e",
		Page:    "games/index.html",
		Streams: s,
		Issues:  []string{"Potential memory leak: 2 event listeners added but only 0 removed"},
		Environment: &report.Environment{
			Browser:         "Chrome",
			BrowserVersion:  "120.0.0.0",
			OS:              "Linux x86_64",
			CPUThrottleRate: 4,
		},
		Compatibility: &report.Compatibility{Passed: true},
		Now:           time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
	}, config.Defaults().Thresholds)
}

type fakeSink struct {
	name   string
	err    error
	stored []*report.Report
	closed bool
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Store(ctx context.Context, r *report.Report) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("missing deadline")
	}
	f.stored = append(f.stored, r)
	return f.err
}

func (f *fakeSink) Close() error {
	f.closed = true
	return nil
}

func TestPublisher(t *testing.T) {
	ok := &fakeSink{name: "ok"}
	failing := &fakeSink{name: "failing", err: errors.New("connection refused")}
	other := &fakeSink{name: "other"}
	p := NewPublisher(ok, failing, other)
	r := sampleReport()

	assert.Equal(t, 3, p.Len())
	assert.Equal(t, 2, p.Publish(context.Background(), r))
	assert.Len(t, ok.stored, 1)
	assert.Len(t, failing.stored, 1)
	assert.Len(t, other.stored, 1)

	p.Close()
	assert.True(t, ok.closed)
	assert.True(t, failing.closed)
	assert.True(t, other.closed)
}

func TestOpen_NothingConfigured(t *testing.T) {
	p := Open(context.Background(), config.Defaults())

	assert.Zero(t, p.Len())
	assert.Zero(t, p.Publish(context.Background(), sampleReport()))
	p.Close()
}

// silentListener accepts connections and never answers.
func silentListener(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		var conns []net.Conn
		for {
			conn, err := ln.Accept()
			if err != nil {
				for _, c := range conns {
					c.Close()
				}
				return
			}
			conns = append(conns, conn)
		}
	}()
	return ln.Addr().String()
}

func TestOpen_UnresponsiveSinksTimeOut(t *testing.T) {
	prev := connectTimeout
	connectTimeout = 100 * time.Millisecond
	t.Cleanup(func() { connectTimeout = prev })

	addr := silentListener(t)
	cfg := config.Defaults()
	cfg.Postgres.DSN = fmt.Sprintf("postgres://gameperf:secret@%s/gameperf?sslmode=disable", addr)
	cfg.Redis.Addr = addr

	start := time.Now()
	p := Open(context.Background(), cfg)
	defer p.Close()

	assert.Zero(t, p.Len())
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestOpen_KafkaNeedsNoConnection(t *testing.T) {
	cfg := config.Defaults()
	cfg.Kafka = config.KafkaConfig{
		Brokers: []string{"localhost:9092"},
		Topics:  map[string]string{TopicReports: "gameperf.reports"},
	}

	p := Open(context.Background(), cfg)
	defer p.Close()

	assert.Equal(t, 1, p.Len())
}

func TestNewRunRow(t *testing.T) {
	row := NewRunRow(sampleReport())

	assert.Equal(t, "6f1c3b8e-8d6e-4a53-9a55-0d6c0f6b1a2e", row.RunID)
	assert.Equal(t, "games/index.html", row.Page)
	assert.Equal(t, time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC), row.Timestamp)
	assert.Equal(t, "Chrome", row.Browser)
	assert.Equal(t, 4.0, row.CPUThrottleRate)
	assert.Equal(t, 25.0, row.FPSAvg)
	assert.Equal(t, 20.0, row.FPSMin)
	assert.Equal(t, 30.0, row.FPSMax)
	assert.Equal(t, 40.0, row.MemoryMin)
	assert.Equal(t, 60.0, row.MemoryMax)
	assert.Equal(t, 5.0, row.CPUTaskMax)
	assert.Equal(t, uint8(1), row.CompatibilityPass)
	assert.Len(t, row.CodeIssues, 1)
	assert.Equal(t, []string{
		report.FPSRecommendation(30),
		report.RecommendRenderTime,
		report.RecommendMemory,
		report.RecommendListeners,
	}, row.Recommendations)
}

func TestNewRunRow_Minimal(t *testing.T) {
	row := NewRunRow(&report.Report{RunID: "x"})

	assert.Empty(t, row.Browser)
	assert.Zero(t, row.FPSMin)
	assert.Zero(t, row.CompatibilityPass)
}

func TestRunArgs(t *testing.T) {
	r := sampleReport()

	args, err := runArgs(r)
	require.NoError(t, err)
	require.Len(t, args, 9)

	assert.Equal(t, r.RunID, args[0])
	assert.Equal(t, 25.0, args[3])
	assert.Equal(t, 60.0, args[6])
	assert.Equal(t, 1, args[7])

	var doc map[string]any
	require.NoError(t, json.Unmarshal(args[8].([]byte), &doc))
	assert.Equal(t, r.Timestamp, doc["timestamp"])
}

func TestRedisKeys(t *testing.T) {
	latest, history := redisKeys("index.html")

	assert.Equal(t, "gameperf:latest:index.html", latest)
	assert.Equal(t, "gameperf:history:index.html", history)
}

func TestLatestFields(t *testing.T) {
	fields := latestFields(sampleReport())

	assert.Equal(t, 25.0, fields["fps_avg"])
	assert.Equal(t, 1, fields["issues"])
	assert.Equal(t, 4, fields["recommendations"])
	assert.Equal(t, "2024-05-06 07:08:09", fields["timestamp"])
}

func TestReportMessage(t *testing.T) {
	r := sampleReport()

	msg, err := reportMessage(r)
	require.NoError(t, err)

	assert.Equal(t, "games/index.html", string(msg.Key))
	var back report.Report
	require.NoError(t, json.Unmarshal(msg.Value, &back))
	assert.Equal(t, r.RunID, back.RunID)
	assert.Equal(t, r.Recommendations, back.Recommendations)
}

func TestAlertMessages(t *testing.T) {
	r := sampleReport()
	now := time.UnixMilli(1700000000000)

	msgs, err := alertMessages(r, now)
	require.NoError(t, err)
	require.Len(t, msgs, len(r.Recommendations))

	var alert map[string]any
	require.NoError(t, json.Unmarshal(msgs[0].Value, &alert))
	assert.Equal(t, "recommendation", alert["type"])
	assert.Equal(t, r.Recommendations[0], alert["recommendation"])
	assert.Equal(t, r.RunID, alert["run_id"])
	assert.Equal(t, float64(1700000000000), alert["published_at"])

	none, err := alertMessages(&report.Report{}, now)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestKafka_NoTopics(t *testing.T) {
	k := NewKafka(config.KafkaConfig{Brokers: []string{"localhost:9092"}})
	defer k.Close()

	assert.Equal(t, "kafka", k.Name())
	assert.NoError(t, k.Store(context.Background(), sampleReport()))
}

func TestObjectName(t *testing.T) {
	r := sampleReport()

	assert.Equal(t, "gameperf/games_index.html/20240506-070809-6f1c3b8e-8d6e-4a53-9a55-0d6c0f6b1a2e.json", objectName("gameperf", r))

	r.Page = ""
	r.RunID = ""
	assert.Equal(t, "unknown/20240506-070809.json", objectName("", r))
}
