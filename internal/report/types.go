package report

import (
	"time"

	"github.com/gosight/gameperf/internal/metrics"
)

// TimestampLayout is the layout of Report.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// Stat summarises one sample stream. Min is only reported for streams where
// the lower bound matters.
type Stat struct {
	Avg float64  `json:"avg"`
	Min *float64 `json:"min,omitempty"`
	Max float64  `json:"max"`
}

// Metrics holds the per-stream summaries.
type Metrics struct {
	FPS          Stat `json:"fps"`
	RenderTime   Stat `json:"render_time"`
	InputLatency Stat `json:"input_latency"`
	MemoryUsage  Stat `json:"memory_usage"`
	CPUUsage     Stat `json:"cpu_usage"`
}

// Environment describes the browser the run was measured in.
type Environment struct {
	Browser         string  `json:"browser"`
	BrowserVersion  string  `json:"browser_version"`
	OS              string  `json:"os"`
	Device          string  `json:"device"`
	UserAgent       string  `json:"user_agent"`
	CPUThrottleRate float64 `json:"cpu_throttle_rate"`
	NetworkThrottle bool    `json:"network_throttled"`
}

// Compatibility is the result of the in-page feature probe.
type Compatibility struct {
	Passed         bool            `json:"passed"`
	Features       map[string]bool `json:"features"`
	Polyfills      bool            `json:"polyfills"`
	Fallbacks      bool            `json:"fallbacks"`
	VendorPrefixes []string        `json:"vendor_prefixes"`
}

// Report is the outcome of one run.
type Report struct {
	RunID           string         `json:"run_id,omitempty"`
	Timestamp       string         `json:"timestamp"`
	Page            string         `json:"page,omitempty"`
	Metrics         Metrics        `json:"metrics"`
	CodeIssues      []string       `json:"code_issues"`
	Recommendations []string       `json:"recommendations"`
	Environment     *Environment   `json:"environment,omitempty"`
	Compatibility   *Compatibility `json:"compatibility,omitempty"`

	GeneratedAt time.Time `json:"-"`
}

// Input is everything Generate needs for one run.
type Input struct {
	RunID         string
	Page          string
	Streams       metrics.Streams
	Issues        []string
	Environment   *Environment
	Compatibility *Compatibility
	Now           time.Time
}
