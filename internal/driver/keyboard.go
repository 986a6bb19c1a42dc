package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	keyPairs      = 5
	keyPairPause  = 200 * time.Millisecond
	rapidKeyCount = 10
	rapidKeyPause = 50 * time.Millisecond
)

type keyStep struct {
	key   string
	pause time.Duration
}

// keySteps returns paced arrow pairs followed by a rapid alternating burst.
func keySteps() []keyStep {
	var steps []keyStep
	for i := 0; i < keyPairs; i++ {
		steps = append(steps, keyStep{KeyArrowRight, keyPairPause}, keyStep{KeyArrowLeft, keyPairPause})
	}
	for i := 0; i < rapidKeyCount; i++ {
		key := KeyArrowRight
		if i%2 == 1 {
			key = KeyArrowLeft
		}
		steps = append(steps, keyStep{key, rapidKeyPause})
	}
	return steps
}

// Keyboard focuses the canvas and presses arrow keys, first paced and then in
// a rapid burst. The start control is optional here.
func (d *Driver) Keyboard(ctx context.Context) error {
	log.Info().Msg("Testing keyboard input")

	if err := d.waitForCanvas(ctx); err != nil {
		return err
	}
	if err := d.startGame(ctx); err != nil {
		if ctx.Err() != nil {
			return err
		}
		log.Debug().Err(err).Msg("Start control not clicked, continuing")
	}
	if err := d.click(ctx, d.canvasID); err != nil {
		return fmt.Errorf("focus: %w", err)
	}

	for _, step := range keySteps() {
		if err := d.page.PressKey(ctx, step.key); err != nil {
			return fmt.Errorf("press %s: %w", step.key, err)
		}
		if err := d.sleep(ctx, step.pause); err != nil {
			return err
		}
	}

	log.Info().Msg("Keyboard input test completed")
	return nil
}
