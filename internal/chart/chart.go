package chart

import (
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/gosight/gameperf/internal/metrics"
)

// ErrNoSamples is returned when every stream is empty.
var ErrNoSamples = errors.New("no samples to chart")

var units = map[string]string{
	metrics.FPS:          "frames/s",
	metrics.RenderTime:   "ms",
	metrics.InputLatency: "ms",
	metrics.MemoryUsage:  "MB",
	metrics.CPUUsage:     "ms",
}

// New plots every non-empty stream against its sample index.
func New(title string, streams metrics.Streams) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Sample"
	p.Y.Label.Text = "Value"
	p.Legend.Top = true

	lines := 0
	for i, name := range metrics.Names {
		values := streams[name]
		if len(values) == 0 {
			continue
		}

		pts := make(plotter.XYs, len(values))
		for j, v := range values {
			pts[j].X = float64(j + 1)
			pts[j].Y = v
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("plot %s: %w", name, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(2)

		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%s (%s)", name, units[name]), line)
		lines++
	}

	if lines == 0 {
		return nil, ErrNoSamples
	}
	return p, nil
}

// Save writes the stream chart to path. The format follows the extension.
func Save(path, title string, streams metrics.Streams) error {
	p, err := New(title, streams)
	if err != nil {
		return err
	}
	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}
