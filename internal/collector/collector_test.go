package collector

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosight/gameperf/internal/metrics"
)

type fakePage struct {
	globals map[string]string
	failing map[string]bool
	log     []string
	logErr  error
}

func (p *fakePage) Evaluate(_ context.Context, expression string, res any) error {
	for global, value := range p.globals {
		if strings.Contains(expression, "window."+global) {
			if p.failing[global] {
				return errors.New("evaluation failed")
			}
			return json.Unmarshal([]byte(value), res)
		}
	}
	return json.Unmarshal([]byte("[]"), res)
}

func (p *fakePage) PerformanceLog(context.Context) ([]string, error) {
	return p.log, p.logErr
}

func taskEntry(duration string) string {
	return `{"message":{"method":"Performance.Metrics.TaskDuration","params":{"data":{"duration":` + duration + `}}}}`
}

func TestCollect(t *testing.T) {
	page := &fakePage{
		globals: map[string]string{
			"fps_samples":    "[58, 60]",
			"renderTimes":    "[4.5]",
			"inputLatencies": "[]",
			"memoryUsage":    "[12.5, 13]",
		},
		log: []string{
			taskEntry("12.5"),
			`{"message":{"method":"Performance.Metrics.JSHeapUsedSize","params":{"data":{"value":1024}}}}`,
			taskEntry("3"),
		},
	}
	streams := metrics.NewStreams()

	Collect(context.Background(), page, streams)

	assert.Equal(t, []float64{58, 60}, streams[metrics.FPS])
	assert.Equal(t, []float64{4.5}, streams[metrics.RenderTime])
	assert.Empty(t, streams[metrics.InputLatency])
	assert.NotNil(t, streams[metrics.InputLatency])
	assert.Equal(t, []float64{12.5, 13}, streams[metrics.MemoryUsage])
	assert.Equal(t, []float64{12.5, 3}, streams[metrics.CPUUsage])
}

func TestCollect_FailedReadKeepsDefault(t *testing.T) {
	page := &fakePage{
		globals: map[string]string{"fps_samples": "[60]", "renderTimes": "[5]"},
		failing: map[string]bool{"fps_samples": true},
	}
	streams := metrics.NewStreams()
	streams[metrics.FPS] = []float64{1}

	Collect(context.Background(), page, streams)

	assert.Equal(t, []float64{1}, streams[metrics.FPS])
	assert.Equal(t, []float64{5}, streams[metrics.RenderTime])
}

func TestCollect_LogError(t *testing.T) {
	page := &fakePage{logErr: errors.New("no log")}
	streams := metrics.NewStreams()

	Collect(context.Background(), page, streams)

	assert.Empty(t, streams[metrics.CPUUsage])
	assert.NotNil(t, streams[metrics.CPUUsage])
}

func TestTaskDurations(t *testing.T) {
	entries := []string{
		"not json",
		`{"message":`,
		`{"message":{"method":"Metrics.TaskDuration"}}`,
		`{"message":{"method":"Metrics.TaskDuration","params":{"data":{"duration":"7"}}}}`,
		`{"message":{"params":{"data":{"duration":9}}}}`,
		taskEntry("0.25"),
		`{"message":{"method":"Custom.Metrics.TaskDurationTotal","params":{"data":{"duration":2}}}}`,
	}

	assert.Equal(t, []float64{0.25, 2}, TaskDurations(entries))
	assert.Empty(t, TaskDurations(nil))
}

func TestReadExpression(t *testing.T) {
	expr := readExpression("fps_samples")

	require.Equal(t, "Array.isArray(window.fps_samples) ? window.fps_samples : []", expr)
}
