package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Browser    BrowserConfig    `yaml:"browser"`
	Page       PageConfig       `yaml:"page"`
	Session    SessionConfig    `yaml:"session"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	GCS        GCSConfig        `yaml:"gcs"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Root string `yaml:"root"`
}

type BrowserConfig struct {
	ExecPath        string        `yaml:"exec_path"`
	Headless        bool          `yaml:"headless"`
	WindowWidth     int           `yaml:"window_width"`
	WindowHeight    int           `yaml:"window_height"`
	CPUThrottleRate float64       `yaml:"cpu_throttle_rate"`
	ThrottleNetwork bool          `yaml:"throttle_network"`
	Network         NetworkConfig `yaml:"network"`
	MetricsInterval time.Duration `yaml:"metrics_interval"`
}

// NetworkConfig mirrors the CDP Network.emulateNetworkConditions parameters.
type NetworkConfig struct {
	LatencyMs           float64 `yaml:"latency_ms"`
	DownloadBytesPerSec float64 `yaml:"download_bytes_per_sec"`
	UploadBytesPerSec   float64 `yaml:"upload_bytes_per_sec"`
}

// PageConfig names the elements and globals the game page exposes.
type PageConfig struct {
	CanvasID       string `yaml:"canvas_id"`
	StartButtonID  string `yaml:"start_button_id"`
	DrawFunc       string `yaml:"draw_func"`
	KeyDownHandler string `yaml:"key_down_handler"`
}

type SessionConfig struct {
	ElementTimeout  time.Duration `yaml:"element_timeout"`
	ObserveDuration time.Duration `yaml:"observe_duration"`
	StartDelay      time.Duration `yaml:"start_delay"`
}

type ThresholdsConfig struct {
	MinFPS            float64 `yaml:"min_fps"`
	MaxRenderTimeMs   float64 `yaml:"max_render_time_ms"`
	MaxInputLatencyMs float64 `yaml:"max_input_latency_ms"`
	MaxMemoryMB       float64 `yaml:"max_memory_mb"`
}

type ClickHouseConfig struct {
	Addr         string `yaml:"addr"`
	Database     string `yaml:"database"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
	History  int64         `yaml:"history"`
}

type KafkaConfig struct {
	Brokers []string          `yaml:"brokers"`
	Topics  map[string]string `yaml:"topics"`
}

type GCSConfig struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	CredentialsFile string `yaml:"credentials_file"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8000,
			Root: ".",
		},
		Browser: BrowserConfig{
			Headless:        true,
			WindowWidth:     640,
			WindowHeight:    480,
			CPUThrottleRate: 4,
			Network: NetworkConfig{
				LatencyMs:           100,
				DownloadBytesPerSec: 1.5 * 1024 * 1024 / 8,
				UploadBytesPerSec:   750 * 1024 / 8,
			},
			MetricsInterval: time.Second,
		},
		Page: PageConfig{
			CanvasID:       "gameCanvas",
			StartButtonID:  "startButton",
			DrawFunc:       "draw",
			KeyDownHandler: "keyDownHandler",
		},
		Session: SessionConfig{
			ElementTimeout:  10 * time.Second,
			ObserveDuration: 10 * time.Second,
			StartDelay:      time.Second,
		},
		Thresholds: ThresholdsConfig{
			MinFPS:            30,
			MaxRenderTimeMs:   16,
			MaxInputLatencyMs: 100,
			MaxMemoryMB:       50,
		},
		ClickHouse: ClickHouseConfig{
			Database:     "default",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Redis: RedisConfig{
			TTL:     7 * 24 * time.Hour,
			History: 20,
		},
		GCS: GCSConfig{
			Prefix: "gameperf",
		},
	}
}

// Load reads a YAML config file over the defaults. A missing file is not an
// error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Browser.CPUThrottleRate < 0 {
		return fmt.Errorf("browser.cpu_throttle_rate must not be negative, got %g", c.Browser.CPUThrottleRate)
	}
	if c.Browser.WindowWidth <= 0 || c.Browser.WindowHeight <= 0 {
		return fmt.Errorf("browser window must be positive, got %dx%d", c.Browser.WindowWidth, c.Browser.WindowHeight)
	}
	if c.Browser.MetricsInterval <= 0 {
		return fmt.Errorf("browser.metrics_interval must be positive, got %s", c.Browser.MetricsInterval)
	}
	if c.Page.CanvasID == "" {
		return errors.New("page.canvas_id is required")
	}
	if c.Session.ObserveDuration < 0 || c.Session.ElementTimeout < 0 || c.Session.StartDelay < 0 {
		return errors.New("session durations must not be negative")
	}
	return nil
}
