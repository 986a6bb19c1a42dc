package collector

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/gosight/gameperf/internal/metrics"
	"github.com/gosight/gameperf/internal/monitor"
)

// TaskDurationMethod marks performance log entries that carry CPU task time.
const TaskDurationMethod = "Metrics.TaskDuration"

// Page is the part of a browser tab the collector reads from.
type Page interface {
	Evaluate(ctx context.Context, expression string, res any) error
	// PerformanceLog returns the raw JSON performance log entries.
	PerformanceLog(ctx context.Context) ([]string, error)
}

// Collect reads the page-side sample arrays and the performance log into
// streams. A stream is only replaced when the page returned samples.
func Collect(ctx context.Context, page Page, streams metrics.Streams) {
	for _, name := range metrics.Names {
		global, ok := monitor.Globals[name]
		if !ok {
			continue
		}

		var values []float64
		if err := page.Evaluate(ctx, readExpression(global), &values); err != nil {
			log.Warn().Err(err).Str("stream", name).Msg("Failed to read samples")
			continue
		}
		if streams.Replace(name, values) {
			log.Debug().Str("stream", name).Int("samples", len(values)).Msg("Collected samples")
		}
	}

	entries, err := page.PerformanceLog(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read performance log")
		return
	}
	streams.Replace(metrics.CPUUsage, TaskDurations(entries))
}

// TaskDurations extracts the task durations from performance log entries.
// Entries that are not JSON or lack a numeric duration are skipped.
func TaskDurations(entries []string) []float64 {
	var durations []float64
	for _, entry := range entries {
		if !gjson.Valid(entry) {
			continue
		}
		method := gjson.Get(entry, "message.method")
		if !strings.Contains(method.String(), TaskDurationMethod) {
			continue
		}
		duration := gjson.Get(entry, "message.params.data.duration")
		if duration.Type != gjson.Number {
			continue
		}
		durations = append(durations, duration.Float())
	}
	return durations
}

func readExpression(global string) string {
	return fmt.Sprintf("Array.isArray(window.%[1]s) ? window.%[1]s : []", global)
}
