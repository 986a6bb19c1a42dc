package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/performance"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/rs/zerolog/log"

	"github.com/gosight/gameperf/internal/config"
)

var keys = map[string]string{
	"ArrowLeft":  kb.ArrowLeft,
	"ArrowRight": kb.ArrowRight,
	"ArrowUp":    kb.ArrowUp,
	"ArrowDown":  kb.ArrowDown,
	"Enter":      kb.Enter,
}

// Tab is a single Chrome tab with emulated device constraints. It samples
// CDP performance metrics in the background until closed.
type Tab struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc

	interval time.Duration
	perfLog  *perfLog
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// Launch starts Chrome, applies CPU and network throttling and begins
// sampling performance metrics.
func Launch(ctx context.Context, cfg config.BrowserConfig) (*Tab, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
		chromedp.Flag("headless", cfg.Headless),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			log.Debug().Msgf(format, args...)
		}),
		chromedp.WithErrorf(func(format string, args ...any) {
			log.Error().Msgf(format, args...)
		}),
	)

	t := &Tab{
		ctx:         tabCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		interval:    cfg.MetricsInterval,
		perfLog:     &perfLog{},
		done:        make(chan struct{}),
	}

	if err := chromedp.Run(tabCtx, setupActions(cfg)...); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	log.Info().
		Bool("headless", cfg.Headless).
		Float64("cpu_throttle_rate", cfg.CPUThrottleRate).
		Bool("throttle_network", cfg.ThrottleNetwork).
		Msg("Browser started")

	// The first sample only primes the task duration baseline.
	t.sample()

	t.wg.Add(1)
	go t.sampleLoop()

	return t, nil
}

func setupActions(cfg config.BrowserConfig) []chromedp.Action {
	actions := []chromedp.Action{performance.Enable()}

	if cfg.CPUThrottleRate > 1 {
		actions = append(actions, emulation.SetCPUThrottlingRate(cfg.CPUThrottleRate))
	}
	if cfg.ThrottleNetwork {
		actions = append(actions,
			network.Enable(),
			network.EmulateNetworkConditions(false,
				cfg.Network.LatencyMs,
				cfg.Network.DownloadBytesPerSec,
				cfg.Network.UploadBytesPerSec,
			),
		)
	}
	return actions
}

// sampleLoop polls Performance.getMetrics into the performance log
func (t *Tab) sampleLoop() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.sample()
		case <-t.done:
			return
		case <-t.ctx.Done():
			return
		}
	}
}

func (t *Tab) sample() {
	var sample []*performance.Metric
	err := chromedp.Run(t.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		sample, err = performance.GetMetrics().Do(ctx)
		return err
	}))
	if err != nil {
		log.Debug().Err(err).Msg("Failed to sample performance metrics")
		return
	}
	t.perfLog.add(sample)
}

// run executes actions on the tab, bounded by ctx.
func (t *Tab) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// Navigate loads url and waits for the document to be ready.
func (t *Tab) Navigate(ctx context.Context, url string) error {
	if err := t.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// Evaluate runs expression in the page and decodes the result into res.
func (t *Tab) Evaluate(ctx context.Context, expression string, res any) error {
	return t.run(ctx, chromedp.Evaluate(expression, res))
}

// WaitPresent waits up to timeout for an element with the given id.
func (t *Tab) WaitPresent(ctx context.Context, id string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return t.run(ctx, chromedp.WaitReady("#"+id, chromedp.ByQuery))
}

// Exists reports whether an element with the given id is in the document.
func (t *Tab) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := t.Evaluate(ctx, fmt.Sprintf("document.getElementById(%q) !== null", id), &ok)
	return ok, err
}

// Click clicks the element with the given id.
func (t *Tab) Click(ctx context.Context, id string) error {
	return t.run(ctx, chromedp.Click("#"+id, chromedp.ByQuery))
}

// PressKey sends a key press to the focused element.
func (t *Tab) PressKey(ctx context.Context, key string) error {
	if k, ok := keys[key]; ok {
		key = k
	}
	return t.run(ctx, chromedp.KeyEvent(key))
}

// UserAgent returns navigator.userAgent.
func (t *Tab) UserAgent(ctx context.Context) (string, error) {
	var ua string
	err := t.Evaluate(ctx, "navigator.userAgent", &ua)
	return ua, err
}

// PerformanceLog returns the sampled performance log entries.
func (t *Tab) PerformanceLog(context.Context) ([]string, error) {
	return t.perfLog.entries(), nil
}

// Close stops the sampler and shuts the browser down.
func (t *Tab) Close() error {
	var err error
	t.once.Do(func() {
		close(t.done)
		t.wg.Wait()

		err = chromedp.Cancel(t.ctx)
		t.cancel()
		t.allocCancel()
	})
	return err
}
