package chart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosight/gameperf/internal/metrics"
)

func TestNew_SkipsEmptyStreams(t *testing.T) {
	s := metrics.NewStreams()
	s[metrics.FPS] = []float64{58, 60, 59}
	s[metrics.MemoryUsage] = []float64{12}

	p, err := New("run", s)
	require.NoError(t, err)

	assert.Equal(t, "run", p.Title.Text)
	assert.Equal(t, 3.0, p.X.Max)
}

func TestNew_NoSamples(t *testing.T) {
	_, err := New("run", metrics.NewStreams())

	assert.ErrorIs(t, err, ErrNoSamples)
}

func TestSave(t *testing.T) {
	s := metrics.NewStreams()
	s[metrics.FPS] = []float64{30, 45, 60}
	path := filepath.Join(t.TempDir(), "chart.png")

	require.NoError(t, Save(path, "index.html", s))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}

func TestSave_NoSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.png")

	assert.ErrorIs(t, Save(path, "index.html", metrics.NewStreams()), ErrNoSamples)
	assert.NoFileExists(t, path)
}
