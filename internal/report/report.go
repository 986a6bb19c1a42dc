package report

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/gosight/gameperf/internal/config"
	"github.com/gosight/gameperf/internal/metrics"
)

// Generate summarises the streams and derives recommendations. Missing or
// empty streams summarise to zero.
func Generate(in Input, thresholds config.ThresholdsConfig) *Report {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	issues := make([]string, len(in.Issues))
	copy(issues, in.Issues)

	r := &Report{
		RunID:     in.RunID,
		Timestamp: now.Format(TimestampLayout),
		Page:      in.Page,
		Metrics: Metrics{
			FPS:          withMin(in.Streams[metrics.FPS]),
			RenderTime:   withoutMin(in.Streams[metrics.RenderTime]),
			InputLatency: withoutMin(in.Streams[metrics.InputLatency]),
			MemoryUsage:  withMin(in.Streams[metrics.MemoryUsage]),
			CPUUsage:     withoutMin(in.Streams[metrics.CPUUsage]),
		},
		CodeIssues:    issues,
		Environment:   in.Environment,
		Compatibility: in.Compatibility,
		GeneratedAt:   now,
	}
	r.Recommendations = NewRecommender(thresholds).Recommend(r.Metrics, r.CodeIssues)

	return r
}

func withMin(values []float64) Stat {
	s := withoutMin(values)
	lo := 0.0
	if len(values) > 0 {
		lo = floats.Min(values)
	}
	s.Min = &lo
	return s
}

func withoutMin(values []float64) Stat {
	if len(values) == 0 {
		return Stat{}
	}
	return Stat{
		Avg: stat.Mean(values, nil),
		Max: floats.Max(values),
	}
}
