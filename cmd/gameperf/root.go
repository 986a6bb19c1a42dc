package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gosight/gameperf/internal/analyzer"
	"github.com/gosight/gameperf/internal/config"
	"github.com/gosight/gameperf/internal/server"
	"github.com/gosight/gameperf/internal/session"
	"github.com/gosight/gameperf/internal/storage"
)

const defaultConfigPath = "config/gameperf.yaml"

type rootCommand struct {
	html            string
	output          string
	configPath      string
	chart           string
	port            int
	noThrottle      bool
	throttleNetwork bool
	headful         bool
	verbose         bool

	launch session.LaunchFunc
}

func newRootCommand() *cobra.Command {
	return newCommand(session.ChromeLauncher)
}

func newCommand(launch session.LaunchFunc) *cobra.Command {
	rc := &rootCommand{launch: launch}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cmd := &cobra.Command{
		Use:           "gameperf",
		Short:         "Measure the runtime performance of a canvas game",
		Long:          "Serve a canvas game locally, drive it in a throttled headless Chrome and write a JSON performance report.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          rc.run,
	}

	cmd.Flags().StringVar(&rc.html, "html", "index.html", "Path to the game HTML file")
	cmd.Flags().StringVar(&rc.output, "output", "performance_report.json", "Output file for performance report")
	cmd.Flags().BoolVar(&rc.noThrottle, "no-throttle", false, "Disable CPU throttling")
	cmd.Flags().BoolVar(&rc.throttleNetwork, "throttle-network", false, "Emulate a slow network")
	cmd.Flags().StringVar(&rc.configPath, "config", configPath, "Config file (a missing file means defaults)")
	cmd.Flags().IntVar(&rc.port, "port", 0, "Port for the local file server (default from config)")
	cmd.Flags().StringVar(&rc.chart, "chart", "", "Write a PNG chart of the sample streams to this path")
	cmd.Flags().BoolVar(&rc.headful, "headful", false, "Show the browser window")
	cmd.Flags().BoolVarP(&rc.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func (rc *rootCommand) run(cmd *cobra.Command, _ []string) error {
	if rc.verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg, err := rc.loadConfig()
	if err != nil {
		return err
	}

	issues, err := analyzer.AnalyzeFile(rc.html)
	if err != nil {
		return err
	}
	printIssues(cmd.OutOrStdout(), issues)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	publisher := storage.Open(ctx, cfg)
	defer publisher.Close()
	log.Info().Int("sinks", publisher.Len()).Msg("Report sinks ready")

	runner := session.NewRunner(cfg, rc.launch, server.New(cfg.Server), publisher)
	// A failed report write is logged by the runner and does not change the
	// exit status.
	if _, err := runner.Run(ctx, issues, session.Options{
		HTML:   rc.html,
		Output: rc.output,
		Chart:  rc.chart,
	}); err != nil {
		log.Warn().Msg("Test completed without a report")
		return nil
	}

	log.Info().Msg("Test completed")
	return nil
}

// loadConfig reads the config file and applies the flag overrides.
func (rc *rootCommand) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(rc.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if rc.noThrottle {
		cfg.Browser.CPUThrottleRate = 0
	}
	if rc.throttleNetwork {
		cfg.Browser.ThrottleNetwork = true
	}
	if rc.headful {
		cfg.Browser.Headless = false
	}
	if rc.port != 0 {
		cfg.Server.Port = rc.port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printIssues(w io.Writer, issues []string) {
	fmt.Fprintf(w, "Found %d potential code issues\n", len(issues))
	for _, issue := range issues {
		fmt.Fprintf(w, "- %s\n", issue)
	}
}
