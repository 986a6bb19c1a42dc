package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStreams(t *testing.T) {
	s := NewStreams()

	assert.Len(t, s, len(Names))
	for _, name := range Names {
		assert.NotNil(t, s[name], name)
		assert.Empty(t, s[name], name)
	}
}

func TestStreams_Replace(t *testing.T) {
	s := NewStreams()

	assert.False(t, s.Replace(FPS, nil))
	assert.False(t, s.Replace(FPS, []float64{}))
	assert.Empty(t, s[FPS])

	assert.True(t, s.Replace(FPS, []float64{58, 60}))
	assert.Equal(t, []float64{58, 60}, s[FPS])

	assert.False(t, s.Replace(FPS, nil))
	assert.Equal(t, []float64{58, 60}, s[FPS])
}
