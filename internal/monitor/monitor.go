package monitor

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/gosight/gameperf/internal/config"
	"github.com/gosight/gameperf/internal/metrics"
)

//go:embed monitor.js
var source string

// Globals maps each page-side stream to the window array that backs it.
// cpu_usage is not sampled in the page.
var Globals = map[string]string{
	metrics.FPS:          "fps_samples",
	metrics.RenderTime:   "renderTimes",
	metrics.InputLatency: "inputLatencies",
	metrics.MemoryUsage:  "memoryUsage",
}

// Hooks names the page globals the monitor wraps.
type Hooks struct {
	DrawFunc       string `json:"drawFunc"`
	KeyDownHandler string `json:"keyDownHandler"`
}

// HooksFromConfig builds Hooks from the page section of the config.
func HooksFromConfig(cfg config.PageConfig) Hooks {
	return Hooks{
		DrawFunc:       cfg.DrawFunc,
		KeyDownHandler: cfg.KeyDownHandler,
	}
}

// Result reports what the monitor managed to hook. Installed is false when
// the page was already instrumented.
type Result struct {
	Installed bool `json:"installed"`
	Draw      bool `json:"draw"`
	KeyDown   bool `json:"keyDown"`
}

// Evaluator runs a JavaScript expression in the page and decodes its value.
type Evaluator interface {
	Evaluate(ctx context.Context, expression string, res any) error
}

// Script returns the instrumentation expression for the given hooks.
func Script(h Hooks) (string, error) {
	opts, err := json.Marshal(h)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(%s)", source, opts), nil
}

// Inject evaluates the instrumentation in the page.
func Inject(ctx context.Context, page Evaluator, h Hooks) (Result, error) {
	var res Result

	script, err := Script(h)
	if err != nil {
		return res, err
	}
	if err := page.Evaluate(ctx, script, &res); err != nil {
		return res, fmt.Errorf("inject monitor: %w", err)
	}
	return res, nil
}
