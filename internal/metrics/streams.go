package metrics

// Stream names, also used as the metric keys in the report.
const (
	FPS          = "fps"
	RenderTime   = "render_time"
	InputLatency = "input_latency"
	MemoryUsage  = "memory_usage"
	CPUUsage     = "cpu_usage"
)

// Names lists every stream in report order.
var Names = []string{FPS, RenderTime, InputLatency, MemoryUsage, CPUUsage}

// Streams holds the samples collected during one browser session, keyed by
// stream name.
type Streams map[string][]float64

// NewStreams returns a Streams with every known stream present and empty.
func NewStreams() Streams {
	s := make(Streams, len(Names))
	for _, name := range Names {
		s[name] = []float64{}
	}
	return s
}

// Replace sets a stream only when values is non-empty.
func (s Streams) Replace(name string, values []float64) bool {
	if len(values) == 0 {
		return false
	}
	s[name] = values
	return true
}
