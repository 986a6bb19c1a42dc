package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// WriteFile persists the report as indented JSON.
func (r *Report) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// PrintSummary writes the operator summary.
func (r *Report) PrintSummary(w io.Writer) {
	fmt.Fprintln(w, "Performance Summary:")
	fmt.Fprintf(w, "Average FPS: %.2f\n", r.Metrics.FPS.Avg)
	fmt.Fprintf(w, "Average render time: %.2fms\n", r.Metrics.RenderTime.Avg)
	fmt.Fprintf(w, "Average input latency: %.2fms\n", r.Metrics.InputLatency.Avg)
	fmt.Fprintf(w, "Average memory usage: %.2fMB\n", r.Metrics.MemoryUsage.Avg)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Recommendations:")
	for _, rec := range r.Recommendations {
		fmt.Fprintf(w, "- %s\n", rec)
	}
}
