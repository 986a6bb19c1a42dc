package report

import (
	"fmt"
	"strings"

	"github.com/gosight/gameperf/internal/config"
)

// Recommendation texts.
const (
	RecommendFPS          = "FPS below target (%g) - optimize rendering and game loop"
	RecommendRenderTime   = "Render time too high - reduce drawing operations or simplify graphics"
	RecommendInputLatency = "Input latency too high - optimize event handlers"
	RecommendMemory       = "Memory usage high - check for memory leaks or reduce object creation"
	RecommendListeners    = "Fix potential memory leaks by properly removing event listeners"
	RecommendCacheDOM     = "Cache DOM elements outside of game loop"
	RecommendDebounce     = "Implement debouncing for scroll wheel input"
)

// issueRecommendations maps a lowercase issue keyword to its advice.
var issueRecommendations = []struct {
	keyword string
	advice  string
}{
	{"memory leak", RecommendListeners},
	{"dom queries", RecommendCacheDOM},
	{"debounce", RecommendDebounce},
}

// Recommender derives advice from metric summaries and code issues
type Recommender struct {
	minFPS            float64
	maxRenderTimeMs   float64
	maxInputLatencyMs float64
	maxMemoryMB       float64
}

// NewRecommender creates a recommender with the given thresholds
func NewRecommender(cfg config.ThresholdsConfig) *Recommender {
	return &Recommender{
		minFPS:            cfg.MinFPS,
		maxRenderTimeMs:   cfg.MaxRenderTimeMs,
		maxInputLatencyMs: cfg.MaxInputLatencyMs,
		maxMemoryMB:       cfg.MaxMemoryMB,
	}
}

// Recommend checks every threshold and every issue. The result is never nil.
func (r *Recommender) Recommend(m Metrics, issues []string) []string {
	recs := []string{}

	if m.FPS.Avg < r.minFPS {
		recs = append(recs, FPSRecommendation(r.minFPS))
	}
	if m.RenderTime.Avg > r.maxRenderTimeMs {
		recs = append(recs, RecommendRenderTime)
	}
	if m.InputLatency.Avg > r.maxInputLatencyMs {
		recs = append(recs, RecommendInputLatency)
	}
	if m.MemoryUsage.Max > r.maxMemoryMB {
		recs = append(recs, RecommendMemory)
	}

	for _, issue := range issues {
		lower := strings.ToLower(issue)
		for _, ir := range issueRecommendations {
			if strings.Contains(lower, ir.keyword) {
				recs = append(recs, ir.advice)
			}
		}
	}

	return recs
}

// FPSRecommendation formats the frame-rate advice for a target.
func FPSRecommendation(target float64) string {
	return fmt.Sprintf(RecommendFPS, target)
}
