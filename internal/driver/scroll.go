package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	scrollSpeeds     = []float64{120, 240, 480}
	scrollPause      = 500 * time.Millisecond
	rapidScrollDelta = 120.0
	rapidScrollCount = 10
	rapidScrollPause = 100 * time.Millisecond
)

const wheelEventPattern = `(function () {
  var canvas = document.getElementById(%q);
  if (!canvas) { return false; }
  canvas.dispatchEvent(new WheelEvent('wheel', { deltaY: %g, bubbles: true, cancelable: true }));
  return true;
})()`

type wheelStep struct {
	delta float64
	pause time.Duration
}

// scrollSteps returns escalating wheel pairs followed by an alternating burst.
func scrollSteps() []wheelStep {
	var steps []wheelStep
	for _, speed := range scrollSpeeds {
		steps = append(steps, wheelStep{speed, scrollPause}, wheelStep{-speed, scrollPause})
	}
	for i := 0; i < rapidScrollCount; i++ {
		delta := rapidScrollDelta
		if i%2 == 1 {
			delta = -delta
		}
		steps = append(steps, wheelStep{delta, rapidScrollPause})
	}
	return steps
}

// Scroll dispatches escalating wheel events on the canvas, then a burst of
// alternating ones. A start control that cannot be clicked aborts the run.
func (d *Driver) Scroll(ctx context.Context) error {
	log.Info().Msg("Testing scroll wheel input")

	if err := d.waitForCanvas(ctx); err != nil {
		return err
	}
	if err := d.startGame(ctx); err != nil {
		return err
	}

	for _, step := range scrollSteps() {
		if err := d.wheel(ctx, step.delta); err != nil {
			return err
		}
		if err := d.sleep(ctx, step.pause); err != nil {
			return err
		}
	}

	log.Info().Msg("Scroll wheel input test completed")
	return nil
}

func (d *Driver) wheel(ctx context.Context, delta float64) error {
	var dispatched bool
	if err := d.page.Evaluate(ctx, fmt.Sprintf(wheelEventPattern, d.canvasID, delta), &dispatched); err != nil {
		return fmt.Errorf("wheel %g: %w", delta, err)
	}
	if !dispatched {
		return ErrCanvasMissing
	}
	return nil
}
