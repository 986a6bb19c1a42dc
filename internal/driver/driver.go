package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosight/gameperf/internal/config"
)

// Key names understood by Page.PressKey.
const (
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
)

// ErrCanvasMissing is returned when the canvas disappears mid-sequence.
var ErrCanvasMissing = errors.New("canvas not found")

// Page is the part of a browser tab the input drivers use.
type Page interface {
	Evaluate(ctx context.Context, expression string, res any) error
	WaitPresent(ctx context.Context, id string, timeout time.Duration) error
	Exists(ctx context.Context, id string) (bool, error)
	Click(ctx context.Context, id string) error
	PressKey(ctx context.Context, key string) error
}

// SleepFunc pauses between input events.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Driver plays scripted input sequences against the game page.
type Driver struct {
	page          Page
	canvasID      string
	startButtonID string
	timeout       time.Duration
	startDelay    time.Duration
	sleep         SleepFunc
}

// New creates a driver for the page elements named in cfg.
func New(page Page, pageCfg config.PageConfig, sessionCfg config.SessionConfig) *Driver {
	return &Driver{
		page:          page,
		canvasID:      pageCfg.CanvasID,
		startButtonID: pageCfg.StartButtonID,
		timeout:       sessionCfg.ElementTimeout,
		startDelay:    sessionCfg.StartDelay,
		sleep:         Sleep,
	}
}

// WithSleep replaces the pause function.
func (d *Driver) WithSleep(sleep SleepFunc) *Driver {
	d.sleep = sleep
	return d
}

// waitForCanvas blocks until the canvas exists.
func (d *Driver) waitForCanvas(ctx context.Context) error {
	if err := d.page.WaitPresent(ctx, d.canvasID, d.timeout); err != nil {
		return fmt.Errorf("wait for #%s: %w", d.canvasID, err)
	}
	return nil
}

// startGame clicks the start control when the page has one.
func (d *Driver) startGame(ctx context.Context) error {
	if d.startButtonID == "" {
		return nil
	}

	ok, err := d.page.Exists(ctx, d.startButtonID)
	if err != nil {
		return fmt.Errorf("find #%s: %w", d.startButtonID, err)
	}
	if !ok {
		log.Debug().Str("id", d.startButtonID).Msg("No start control, game may already be running")
		return nil
	}
	if err := d.click(ctx, d.startButtonID); err != nil {
		return err
	}
	return d.sleep(ctx, d.startDelay)
}

// click is bounded by the element timeout. A present but hidden element
// never becomes clickable.
func (d *Driver) click(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.page.Click(ctx, id); err != nil {
		return fmt.Errorf("click #%s: %w", id, err)
	}
	return nil
}
