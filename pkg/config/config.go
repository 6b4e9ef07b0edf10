// Package config loads orchestration settings from a YAML file,
// a .env file, and the process environment, in increasing order
// of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values can be written in
// human form ("30s", "1.5m").
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	dur, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML renders the duration in human form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// OracleConfig configures the vision oracle client.
type OracleConfig struct {
	URL     string   `yaml:"url"`
	APIKey  string   `yaml:"api_key"`
	Timeout Duration `yaml:"timeout"`
}

// StepConfig configures the step runner's retry policy.
type StepConfig struct {
	MaxRetries     int      `yaml:"max_retries"`
	MinConfidence  float64  `yaml:"min_confidence"`
	SettleDelay    Duration `yaml:"settle_delay"`
	BackoffBase    Duration `yaml:"backoff_base"`
	BackoffCeiling Duration `yaml:"backoff_ceiling"`
}

// MonitorConfig configures the HTTP monitor.
type MonitorConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// TargetConfig identifies the automated application.
type TargetConfig struct {
	Name    string `yaml:"name"`
	Command string `yaml:"command"`
}

// Config is the full orchestration configuration.
type Config struct {
	Oracle  OracleConfig  `yaml:"oracle"`
	Steps   StepConfig    `yaml:"steps"`
	Monitor MonitorConfig `yaml:"monitor"`
	Target  TargetConfig  `yaml:"target"`

	Display       string   `yaml:"display"`
	EventCapacity int      `yaml:"event_capacity"`
	RunTimeout    Duration `yaml:"run_timeout"`
	ResultsDir    string   `yaml:"results_dir"`
	ScreenshotDir string   `yaml:"screenshot_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Oracle: OracleConfig{
			URL:     "http://localhost:8765",
			Timeout: Duration(30 * time.Second),
		},
		Steps: StepConfig{
			MaxRetries:     3,
			MinConfidence:  0.6,
			SettleDelay:    Duration(time.Second),
			BackoffBase:    Duration(500 * time.Millisecond),
			BackoffCeiling: Duration(8 * time.Second),
		},
		Monitor: MonitorConfig{
			Enabled: true,
			Addr:    ":8799",
		},
		Target: TargetConfig{
			Name:    "KiCad",
			Command: "kicad",
		},
		Display:       ":0",
		EventCapacity: 1000,
		ResultsDir:    "results",
		ScreenshotDir: "results/screenshots",
	}
}

// Load builds the configuration: defaults, then the YAML file at
// path (skipped when path is empty), then .env, then process
// environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf(
				"reading config: %w", err,
			)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf(
				"parsing config: %w", err,
			)
		}
	}

	// A missing .env file is not an error.
	_ = godotenv.Load()

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the orchestrator cannot run
// with.
func (c Config) Validate() error {
	if c.Oracle.URL == "" {
		return fmt.Errorf("oracle.url must be set")
	}
	if c.Steps.MaxRetries < 1 {
		return fmt.Errorf(
			"steps.max_retries must be at least 1, got %d",
			c.Steps.MaxRetries,
		)
	}
	if c.Steps.MinConfidence < 0 || c.Steps.MinConfidence > 1 {
		return fmt.Errorf(
			"steps.min_confidence must be in [0, 1], got %g",
			c.Steps.MinConfidence,
		)
	}
	if c.EventCapacity < 1 {
		return fmt.Errorf(
			"event_capacity must be positive, got %d",
			c.EventCapacity,
		)
	}
	if c.Target.Command == "" {
		return fmt.Errorf("target.command must be set")
	}
	return nil
}

func applyEnv(cfg *Config) {
	envStr("AUTOMATION_ORACLE_URL", &cfg.Oracle.URL)
	envStr("AUTOMATION_ORACLE_API_KEY", &cfg.Oracle.APIKey)
	envDur("AUTOMATION_ORACLE_TIMEOUT", &cfg.Oracle.Timeout)

	envInt("AUTOMATION_MAX_RETRIES", &cfg.Steps.MaxRetries)
	envFloat(
		"AUTOMATION_MIN_CONFIDENCE", &cfg.Steps.MinConfidence,
	)
	envDur("AUTOMATION_SETTLE_DELAY", &cfg.Steps.SettleDelay)
	envDur("AUTOMATION_BACKOFF_BASE", &cfg.Steps.BackoffBase)
	envDur(
		"AUTOMATION_BACKOFF_CEILING",
		&cfg.Steps.BackoffCeiling,
	)

	envStr("AUTOMATION_MONITOR_ADDR", &cfg.Monitor.Addr)
	envStr("AUTOMATION_TARGET_NAME", &cfg.Target.Name)
	envStr("AUTOMATION_TARGET_COMMAND", &cfg.Target.Command)

	envStr("DISPLAY", &cfg.Display)
	envInt("AUTOMATION_EVENT_CAPACITY", &cfg.EventCapacity)
	envDur("AUTOMATION_RUN_TIMEOUT", &cfg.RunTimeout)
	envStr("AUTOMATION_RESULTS_DIR", &cfg.ResultsDir)
	envStr("AUTOMATION_SCREENSHOT_DIR", &cfg.ScreenshotDir)
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envDur(key string, dst *Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}
