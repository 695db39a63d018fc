package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/HampusRydin/vision-scroll-select-stream/pkg/detection"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultEndpoint = "http://localhost:5173/detection_output"
	DefaultCount    = 5
	DefaultInterval = 2 * time.Second
	DefaultTimeout  = 10 * time.Second
	DefaultLogLevel = "info"
)

// EnvEndpoint overrides sender.endpoint when set.
const EnvEndpoint = "DETECTION_ENDPOINT"

// Config is the top-level sender configuration.
type Config struct {
	Sender SenderConfig `yaml:"sender"`
}

// SenderConfig holds the simulation settings.
type SenderConfig struct {
	// Endpoint is the absolute http(s) URL events are POSTed to.
	Endpoint string `yaml:"endpoint"`

	// Count is how many events one simulation sends.
	Count int `yaml:"count"`

	// Interval is the pause after each successful send.
	Interval time.Duration `yaml:"interval"`

	// Timeout bounds each HTTP request.
	Timeout time.Duration `yaml:"timeout"`

	// FeedIDs are picked from at random for every event.
	FeedIDs []string `yaml:"feed_ids"`

	LogLevel string `yaml:"log_level"`
}

// LoadDotEnv reads .env files into the process environment. A missing file is
// not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// Load reads the YAML config at path. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("sender config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("sender config: parse yaml: %w", err)
		}
	}

	if v := os.Getenv(EnvEndpoint); v != "" {
		cfg.Sender.Endpoint = v
	}

	if err := Validate(cfg.Sender); err != nil {
		return nil, fmt.Errorf("sender config: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Sender: SenderConfig{
			Endpoint: DefaultEndpoint,
			Count:    DefaultCount,
			Interval: DefaultInterval,
			Timeout:  DefaultTimeout,
			FeedIDs:  append([]string(nil), detection.DefaultFeedIDs...),
			LogLevel: DefaultLogLevel,
		},
	}
}

// Validate checks s after flags or prompts have changed it.
func Validate(s SenderConfig) error {
	if s.Count < 1 {
		return fmt.Errorf("sender.count must be at least 1, got %d", s.Count)
	}
	if s.Interval < 0 {
		return fmt.Errorf("sender.interval must not be negative, got %v", s.Interval)
	}
	if s.Timeout <= 0 {
		return errors.New("sender.timeout must be positive")
	}
	if err := ValidateEndpoint(s.Endpoint); err != nil {
		return err
	}
	if len(s.FeedIDs) == 0 {
		return errors.New("sender.feed_ids must not be empty")
	}
	for i, id := range s.FeedIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("sender.feed_ids[%d] is blank", i)
		}
	}
	return nil
}

// ValidateEndpoint reports whether raw is an absolute http or https URL.
func ValidateEndpoint(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("sender.endpoint %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("sender.endpoint %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("sender.endpoint %q: host is required", raw)
	}
	return nil
}
