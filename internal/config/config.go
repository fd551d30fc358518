package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for the server.
type Config struct {
	Port      string          `yaml:"port"`
	Log       LogConfig       `yaml:"log"`
	Backend   BackendConfig   `yaml:"backend"`
	Detection DetectionConfig `yaml:"detection"`
	Drafts    DraftsConfig    `yaml:"drafts"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Events    EventsConfig    `yaml:"events"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// LogConfig selects the slog level and handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// BackendConfig controls the scoring backend client. BaseURL "fixture" runs
// against the in-memory backend.
type BackendConfig struct {
	BaseURL       string   `yaml:"base_url"`
	Timeout       Duration `yaml:"timeout"`
	RetryAttempts int      `yaml:"retry_attempts"`
	RetryBackoff  Duration `yaml:"retry_backoff"`
	ReadRate      float64  `yaml:"read_rate"`
	ReadBurst     int      `yaml:"read_burst"`
}

// UsesFixture reports whether the in-memory backend is selected.
func (b BackendConfig) UsesFixture() bool {
	return strings.EqualFold(strings.TrimSpace(b.BaseURL), FixtureBackend)
}

// DetectionConfig controls the photo score-detection client. URL "fixture"
// uses a static detector; empty disables detection.
type DetectionConfig struct {
	URL            string   `yaml:"url"`
	Timeout        Duration `yaml:"timeout"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`
}

// DraftsConfig controls the on-disk draft cache and its janitor. The janitor
// also evicts in-memory sessions idle for SessionIdleTTL.
type DraftsConfig struct {
	Folder          string   `yaml:"folder"`
	RetentionDays   int      `yaml:"retention_days"`
	JanitorInterval Duration `yaml:"janitor_interval"`
	SessionIdleTTL  Duration `yaml:"session_idle_ttl"`
}

// AuthConfig controls session token signing.
type AuthConfig struct {
	JWTSecret string   `yaml:"jwt_secret"`
	TokenTTL  Duration `yaml:"token_ttl"`
}

// RateLimitConfig bounds inbound requests per client IP. A zero rate disables it.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// EventsConfig sizes the in-process event bus.
type EventsConfig struct {
	Buffer int64 `yaml:"buffer"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	return Config{
		Port: defaultPort,
		Log:  LogConfig{Level: defaultLogLevel, Format: defaultLogFormat},
		Backend: BackendConfig{
			BaseURL:       defaultBackendURL,
			Timeout:       defaultBackendTimeout,
			RetryAttempts: defaultBackendAttempts,
			RetryBackoff:  defaultBackendBackoff,
			ReadRate:      defaultBackendRate,
			ReadBurst:     defaultBackendBurst,
		},
		Detection: DetectionConfig{
			Timeout:        defaultDetectionTimeout,
			MaxUploadBytes: defaultDetectionMax,
		},
		Drafts: DraftsConfig{
			Folder:          defaultDraftsFolder,
			RetentionDays:   defaultDraftsRetention,
			JanitorInterval: defaultJanitorInterval,
			SessionIdleTTL:  defaultSessionIdleTTL,
		},
		Auth:      AuthConfig{TokenTTL: defaultJWTTTL},
		RateLimit: RateLimitConfig{PerSecond: defaultRateLimitRPS, Burst: defaultRateLimitBurst},
		Events:    EventsConfig{Buffer: defaultEventsBuffer},
		Metrics:   defaultMetrics(),
	}
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	cfg := Defaults()
	cfg.applyEnv()
	return cfg
}

// LoadConfig layers an optional YAML file over the defaults, then the
// environment over both. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		errs = append(errs, errors.New("backend base_url is required"))
	}
	if c.Auth.JWTSecret == "" && !c.Backend.UsesFixture() {
		errs = append(errs, fmt.Errorf("auth jwt_secret is required (%s)", envJWTSecret))
	}
	if c.Drafts.Folder == "" {
		errs = append(errs, errors.New("drafts folder is required"))
	}
	if c.RateLimit.PerSecond < 0 {
		errs = append(errs, errors.New("rate_limit per_second must not be negative"))
	}
	return errors.Join(errs...)
}

func (c *Config) applyEnv() {
	c.Port = envOrDefault(envPort, c.Port)
	c.Log.Level = envOrDefault(envLogLevel, c.Log.Level)
	c.Log.Format = envOrDefault(envLogFormat, c.Log.Format)

	c.Backend.BaseURL = envOrDefault(envBackendURL, c.Backend.BaseURL)
	c.Backend.Timeout = durationEnvOrDefault(envBackendTimeout, c.Backend.Timeout)
	c.Backend.RetryAttempts = intEnvOrDefault(envBackendAttempts, c.Backend.RetryAttempts)
	c.Backend.RetryBackoff = durationEnvOrDefault(envBackendBackoff, c.Backend.RetryBackoff)
	c.Backend.ReadRate = floatEnvOrDefault(envBackendRate, c.Backend.ReadRate)
	c.Backend.ReadBurst = intEnvOrDefault(envBackendBurst, c.Backend.ReadBurst)

	c.Detection.URL = envOrDefault(envDetectionURL, c.Detection.URL)
	c.Detection.Timeout = durationEnvOrDefault(envDetectionTimeout, c.Detection.Timeout)
	c.Detection.MaxUploadBytes = int64EnvOrDefault(envDetectionMax, c.Detection.MaxUploadBytes)

	c.Drafts.Folder = envOrDefault(envDraftsFolder, c.Drafts.Folder)
	c.Drafts.RetentionDays = intEnvOrDefault(envDraftsRetention, c.Drafts.RetentionDays)
	c.Drafts.JanitorInterval = durationEnvOrDefault(envJanitorInterval, c.Drafts.JanitorInterval)
	c.Drafts.SessionIdleTTL = durationEnvOrDefault(envSessionIdleTTL, c.Drafts.SessionIdleTTL)

	c.Auth.JWTSecret = envOrDefault(envJWTSecret, c.Auth.JWTSecret)
	c.Auth.TokenTTL = durationEnvOrDefault(envJWTTTL, c.Auth.TokenTTL)

	c.RateLimit.PerSecond = floatEnvOrDefault(envRateLimitRPS, c.RateLimit.PerSecond)
	c.RateLimit.Burst = intEnvOrDefault(envRateLimitBurst, c.RateLimit.Burst)

	c.Events.Buffer = int64EnvOrDefault(envEventsBuffer, c.Events.Buffer)

	c.Metrics.applyEnv()
}
