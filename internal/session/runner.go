package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosight/gameperf/internal/browser"
	"github.com/gosight/gameperf/internal/chart"
	"github.com/gosight/gameperf/internal/collector"
	"github.com/gosight/gameperf/internal/config"
	"github.com/gosight/gameperf/internal/driver"
	"github.com/gosight/gameperf/internal/metrics"
	"github.com/gosight/gameperf/internal/monitor"
	"github.com/gosight/gameperf/internal/report"
)

// Page is a browser tab the runner can drive end to end.
type Page interface {
	driver.Page
	collector.Page
	Navigate(ctx context.Context, url string) error
	UserAgent(ctx context.Context) (string, error)
	Close() error
}

// LaunchFunc opens a browser tab.
type LaunchFunc func(ctx context.Context, cfg config.BrowserConfig) (Page, error)

// ChromeLauncher launches a real Chrome tab.
func ChromeLauncher(ctx context.Context, cfg config.BrowserConfig) (Page, error) {
	tab, err := browser.Launch(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return tab, nil
}

// FileServer serves the game page to the browser.
type FileServer interface {
	Start() error
	URL(page string) string
	Shutdown(ctx context.Context) error
}

// Publisher forwards finished reports to secondary sinks.
type Publisher interface {
	Publish(ctx context.Context, r *report.Report) int
}

// Options select the page and output paths of one run.
type Options struct {
	HTML   string
	Output string
	Chart  string
}

// Runner sequences one performance test session.
type Runner struct {
	cfg       *config.Config
	launch    LaunchFunc
	server    FileServer
	publisher Publisher

	sleep driver.SleepFunc
	newID func() string
	now   func() time.Time
	out   io.Writer
}

// NewRunner creates a runner. publisher may be nil.
func NewRunner(cfg *config.Config, launch LaunchFunc, server FileServer, publisher Publisher) *Runner {
	return &Runner{
		cfg:       cfg,
		launch:    launch,
		server:    server,
		publisher: publisher,
		sleep:     driver.Sleep,
		newID:     uuid.NewString,
		now:       time.Now,
		out:       os.Stdout,
	}
}

// Run drives the game, then writes and publishes the report. Session errors
// are logged and still produce a report from whatever was collected; only a
// failed report write is returned.
func (r *Runner) Run(ctx context.Context, issues []string, opts Options) (*report.Report, error) {
	runID := r.newID()
	logger := log.With().Str("run_id", runID).Logger()

	streams := metrics.NewStreams()
	var (
		env    *report.Environment
		compat *report.Compatibility
	)

	defer r.shutdownServer()

	if err := r.observe(ctx, opts.HTML, streams, &env, &compat); err != nil {
		logger.Error().Err(err).Msg("Error during testing")
	}

	rep := report.Generate(report.Input{
		RunID:         runID,
		Page:          opts.HTML,
		Streams:       streams,
		Issues:        issues,
		Environment:   env,
		Compatibility: compat,
		Now:           r.now(),
	}, r.cfg.Thresholds)

	if err := rep.WriteFile(opts.Output); err != nil {
		logger.Error().Err(err).Str("path", opts.Output).Msg("Failed to save performance report")
		return rep, err
	}
	logger.Info().Str("path", opts.Output).Msg("Performance report saved")

	if opts.Chart != "" {
		if err := chart.Save(opts.Chart, opts.HTML, streams); err != nil {
			logger.Warn().Err(err).Str("path", opts.Chart).Msg("Failed to save chart")
		} else {
			logger.Info().Str("path", opts.Chart).Msg("Chart saved")
		}
	}

	if r.publisher != nil {
		r.publisher.Publish(context.WithoutCancel(ctx), rep)
	}

	fmt.Fprintln(r.out)
	rep.PrintSummary(r.out)

	return rep, nil
}

// observe runs the browser part of the session. The tab is always closed
// before it returns.
func (r *Runner) observe(ctx context.Context, html string, streams metrics.Streams, env **report.Environment, compat **report.Compatibility) error {
	if err := r.server.Start(); err != nil {
		return fmt.Errorf("start file server: %w", err)
	}

	page, err := r.launch(ctx, r.cfg.Browser)
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Debug().Err(err).Msg("Failed to close browser")
		}
	}()

	if err := page.Navigate(ctx, r.server.URL(html)); err != nil {
		return err
	}

	res, err := monitor.Inject(ctx, page, monitor.HooksFromConfig(r.cfg.Page))
	if err != nil {
		return err
	}
	log.Info().
		Bool("draw", res.Draw).
		Bool("key_down", res.KeyDown).
		Msg("Performance monitoring injected")

	ua, err := page.UserAgent(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read user agent")
	}
	*env = browser.Environment(ua, r.cfg.Browser)

	d := driver.New(page, r.cfg.Page, r.cfg.Session).WithSleep(r.sleep)

	if c, err := d.ProbeCompatibility(ctx); err != nil {
		log.Warn().Err(err).Msg("Compatibility probe failed")
	} else {
		*compat = c
	}

	if err := d.Keyboard(ctx); err != nil {
		log.Warn().Err(err).Msg("Error during keyboard testing")
	}
	if err := d.Scroll(ctx); err != nil {
		log.Warn().Err(err).Msg("Error during scroll wheel testing")
	}

	log.Info().Dur("duration", r.cfg.Session.ObserveDuration).Msg("Collecting performance metrics")
	if err := r.sleep(ctx, r.cfg.Session.ObserveDuration); err != nil {
		return err
	}

	collector.Collect(ctx, page, streams)
	return nil
}

func (r *Runner) shutdownServer() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.server.Shutdown(ctx); err != nil {
		log.Debug().Err(err).Msg("Failed to stop file server")
	}
}
