package browser

import (
	"encoding/json"
	"sync"

	"github.com/chromedp/cdproto/performance"
)

const (
	metricMethodPrefix = "Performance.Metrics."
	taskDurationMetric = "TaskDuration"
)

type logEntry struct {
	Message logMessage `json:"message"`
}

type logMessage struct {
	Method string    `json:"method"`
	Params logParams `json:"params"`
}

type logParams struct {
	Data map[string]float64 `json:"data"`
}

// perfLog accumulates performance metric samples as JSON log entries. Task
// duration is cumulative in CDP, so entries carry the per-sample delta in
// milliseconds.
type perfLog struct {
	mu       sync.Mutex
	log      []string
	lastTask float64
	primed   bool
}

func (p *perfLog) add(sample []*performance.Metric) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, m := range sample {
		if m == nil {
			continue
		}

		data := map[string]float64{"value": m.Value}
		if m.Name == taskDurationMetric {
			if !p.primed {
				p.lastTask = m.Value
				p.primed = true
				continue
			}
			delta := m.Value - p.lastTask
			if delta < 0 {
				delta = 0
			}
			data["duration"] = delta * 1000
			p.lastTask = m.Value
		}

		entry, err := json.Marshal(logEntry{
			Message: logMessage{
				Method: metricMethodPrefix + m.Name,
				Params: logParams{Data: data},
			},
		})
		if err != nil {
			continue
		}
		p.log = append(p.log, string(entry))
	}
}

func (p *perfLog) entries() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, len(p.log))
	copy(out, p.log)
	return out
}
