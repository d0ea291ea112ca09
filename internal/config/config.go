package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/asesor-publico/noticias/internal/domain"
)

// Config holds all settings, populated from environment variables.
type Config struct {
	GeminiAPIKey   string        `env:"GEMINI_API_KEY"`
	GeminiModel    string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	GeminiBaseURL  string        `env:"GEMINI_BASE_URL"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"45s"`
	MaxRetries     int           `env:"MAX_RETRIES" envDefault:"2"`

	CivilTimezone string `env:"CIVIL_TIMEZONE" envDefault:"America/Argentina/Cordoba"`
	OutputDir     string `env:"OUTPUT_DIR" envDefault:"."`
	StateDBPath   string `env:"STATE_DB_PATH" envDefault:"asesor.db"`

	// Remote structured store (S3-compatible). Disabled when the bucket is empty.
	RemoteStoreBucket    string `env:"REMOTE_STORE_BUCKET"`
	RemoteStoreEndpoint  string `env:"REMOTE_STORE_ENDPOINT"`
	RemoteStoreRegion    string `env:"REMOTE_STORE_REGION" envDefault:"auto"`
	RemoteStoreAccessKey string `env:"REMOTE_STORE_ACCESS_KEY"`
	RemoteStoreSecretKey string `env:"REMOTE_STORE_SECRET_KEY"`
	RemoteStoreBasePath  string `env:"REMOTE_STORE_BASE_PATH" envDefault:"asesor"`

	// Report announcements. Disabled when no brokers are set.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"daily-reports"`

	PushgatewayURL  string        `env:"PUSHGATEWAY_URL"`
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	StaticDir       string        `env:"STATIC_DIR"` // frontend assets; empty serves the API only
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Location is the resolved CivilTimezone.
	Location *time.Location `env:"-"`
}

// LoadDotEnv loads variables from a .env file without overriding ones that
// are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.KafkaBrokers = compact(cfg.KafkaBrokers)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if cfg.RequestTimeout <= 0 {
		return nil, errors.New("invalid REQUEST_TIMEOUT: must be positive")
	}
	if cfg.ShutdownTimeout <= 0 {
		return nil, errors.New("invalid SHUTDOWN_TIMEOUT: must be positive")
	}
	if cfg.MaxRetries < 0 || cfg.MaxRetries > 5 {
		return nil, errors.New("invalid MAX_RETRIES: must be between 0 and 5")
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: must be json or text", cfg.LogFormat)
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("OUTPUT_DIR is required")
	}
	if cfg.RemoteStoreEnabled() && (cfg.RemoteStoreAccessKey == "" || cfg.RemoteStoreSecretKey == "") {
		return nil, errors.New("REMOTE_STORE_BUCKET is set but REMOTE_STORE_ACCESS_KEY or REMOTE_STORE_SECRET_KEY is not")
	}
	if cfg.KafkaEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_TOPIC is empty")
	}
	if cfg.StaticDir != "" && cfg.StateDBPath != "" && within(cfg.StaticDir, cfg.StateDBPath) {
		return nil, fmt.Errorf("STATIC_DIR %q must not contain STATE_DB_PATH %q", cfg.StaticDir, cfg.StateDBPath)
	}

	loc, err := domain.LoadCivilLocation(cfg.CivilTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid CIVIL_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	return cfg, nil
}

// RequireCredentials reports a ConfigurationError when the text-generation
// API key is missing. Generation must call it before any network access.
func (c *Config) RequireCredentials() error {
	if strings.TrimSpace(c.GeminiAPIKey) == "" {
		return &domain.ConfigurationError{Setting: "GEMINI_API_KEY", Reason: "not set"}
	}
	return nil
}

// RemoteStoreEnabled reports whether the remote structured store sink is configured.
func (c *Config) RemoteStoreEnabled() bool { return c.RemoteStoreBucket != "" }

// KafkaEnabled reports whether report announcements are configured.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// within reports whether path lies inside dir. Unresolvable paths are
// treated as inside.
func within(dir, path string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return true
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return true
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func compact(items []string) []string {
	out := items[:0]
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
