package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHost           = "localhost"
	DefaultPort           = 8080
	DefaultWSPath         = "/ws"
	DefaultSubmitPath     = "/detection_output"
	DefaultSendBuffer     = 16
	DefaultMinInterval    = 2 * time.Second
	DefaultMaxInterval    = 5 * time.Second
	DefaultIdlePoll       = 1 * time.Second
	DefaultBoxProbability = 0.30
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
)

// Environment variables that override file values.
const (
	EnvHost      = "DETECTHUB_HOST"
	EnvPort      = "DETECTHUB_PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"
)

// Config holds the hub configuration parsed from config.yaml.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
}

// ServerConfig holds listener and transport settings.
type ServerConfig struct {
	// Host is the interface to bind (default "localhost").
	Host string `yaml:"host"`

	// Port is the port the WebSocket hub, REST API and receiver listen on (default 8080).
	Port int `yaml:"port"`

	// WSPath is where clients connect (default "/ws").
	WSPath string `yaml:"ws_path"`

	// SubmitPath is where detection events may be POSTed (default "/detection_output").
	SubmitPath string `yaml:"submit_path"`

	// RelaySubmissions fans accepted submissions out to WebSocket clients.
	RelaySubmissions bool `yaml:"relay_submissions"`

	// SendBuffer is the per-client outgoing message queue depth.
	SendBuffer int `yaml:"send_buffer"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BroadcastConfig controls the synthetic event generator. Every field can be
// changed at runtime through Watch.
type BroadcastConfig struct {
	// FeedIDs are the camera feed ids events are attributed to.
	FeedIDs []string `yaml:"feed_ids"`

	// MinInterval and MaxInterval bound the random pause between passes.
	MinInterval time.Duration `yaml:"min_interval"`
	MaxInterval time.Duration `yaml:"max_interval"`

	// IdlePoll is how often the broadcaster rechecks an empty registry.
	IdlePoll time.Duration `yaml:"idle_poll"`

	// BoundingBoxProbability is the share of events carrying a bounding box.
	BoundingBoxProbability float64 `yaml:"bbox_probability"`
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

// Load reads and parses the config file at path. An empty path yields the
// defaults. Environment overrides are applied before validation.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("server config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("server config: parse yaml: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             DefaultHost,
			Port:             DefaultPort,
			WSPath:           DefaultWSPath,
			SubmitPath:       DefaultSubmitPath,
			RelaySubmissions: true,
			SendBuffer:       DefaultSendBuffer,
			LogLevel:         DefaultLogLevel,
			LogFormat:        DefaultLogFormat,
		},
		Broadcast: BroadcastConfig{
			FeedIDs:                []string{"1", "2"},
			MinInterval:            DefaultMinInterval,
			MaxInterval:            DefaultMaxInterval,
			IdlePoll:               DefaultIdlePoll,
			BoundingBoxProbability: DefaultBoxProbability,
		},
	}
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvHost); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s=%q is not a number", EnvPort, v)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Server.LogFormat = v
	}
	return nil
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	s, b := cfg.Server, cfg.Broadcast
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range [1, 65535]", s.Port)
	}
	if !strings.HasPrefix(s.WSPath, "/") {
		return fmt.Errorf("server.ws_path %q must start with /", s.WSPath)
	}
	if !strings.HasPrefix(s.SubmitPath, "/") {
		return fmt.Errorf("server.submit_path %q must start with /", s.SubmitPath)
	}
	if s.WSPath == s.SubmitPath {
		return errors.New("server.ws_path and server.submit_path must differ")
	}
	if s.SendBuffer < 1 {
		return fmt.Errorf("server.send_buffer must be at least 1, got %d", s.SendBuffer)
	}
	switch strings.ToLower(s.LogFormat) {
	case "json", "text", "":
	default:
		return fmt.Errorf("server.log_format %q unknown: want json|text", s.LogFormat)
	}
	return validateBroadcast(b)
}

func validateBroadcast(b BroadcastConfig) error {
	if len(b.FeedIDs) == 0 {
		return errors.New("broadcast.feed_ids must not be empty")
	}
	for i, id := range b.FeedIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("broadcast.feed_ids[%d] is blank", i)
		}
	}
	if b.MinInterval <= 0 {
		return errors.New("broadcast.min_interval must be positive")
	}
	if b.MaxInterval < b.MinInterval {
		return fmt.Errorf("broadcast.max_interval %v is below min_interval %v", b.MaxInterval, b.MinInterval)
	}
	if b.IdlePoll <= 0 {
		return errors.New("broadcast.idle_poll must be positive")
	}
	if b.BoundingBoxProbability < 0 || b.BoundingBoxProbability > 1 {
		return fmt.Errorf("broadcast.bbox_probability %v is out of range [0, 1]", b.BoundingBoxProbability)
	}
	return nil
}
