package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asesor-publico/noticias/internal/domain"
)

const testAPIKey = "test-gemini-key"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Empty(t, cfg.GeminiBaseURL)
	assert.Equal(t, 45*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, "America/Argentina/Cordoba", cfg.CivilTimezone)
	assert.Equal(t, "America/Argentina/Cordoba", cfg.Location.String())
	assert.Equal(t, ".", cfg.OutputDir)
	assert.Equal(t, "asesor.db", cfg.StateDBPath)
	assert.False(t, cfg.RemoteStoreEnabled())
	assert.Equal(t, "asesor", cfg.RemoteStoreBasePath)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "daily-reports", cfg.KafkaTopic)
	assert.Empty(t, cfg.PushgatewayURL)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.StaticDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", testAPIKey)
	t.Setenv("GEMINI_MODEL", "gemini-2.5-pro")
	t.Setenv("GEMINI_BASE_URL", "http://localhost:9999")
	t.Setenv("REQUEST_TIMEOUT", "10s")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("CIVIL_TIMEZONE", "UTC")
	t.Setenv("OUTPUT_DIR", "/srv/www")
	t.Setenv("STATE_DB_PATH", "")
	t.Setenv("REMOTE_STORE_BUCKET", "reports")
	t.Setenv("REMOTE_STORE_ENDPOINT", "http://localhost:9000")
	t.Setenv("REMOTE_STORE_ACCESS_KEY", "access")
	t.Setenv("REMOTE_STORE_SECRET_KEY", "secret")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092,")
	t.Setenv("KAFKA_TOPIC", "custom-reports")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "TEXT")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, testAPIKey, cfg.GeminiAPIKey)
	assert.Equal(t, "gemini-2.5-pro", cfg.GeminiModel)
	assert.Equal(t, "http://localhost:9999", cfg.GeminiBaseURL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, "/srv/www", cfg.OutputDir)
	assert.Empty(t, cfg.StateDBPath)
	assert.True(t, cfg.RemoteStoreEnabled())
	assert.Equal(t, "http://localhost:9000", cfg.RemoteStoreEndpoint)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, "custom-reports", cfg.KafkaTopic)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_InvalidRequestTimeout(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RequestTimeout")
}

func TestLoad_NonPositiveDurations(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero request timeout", "REQUEST_TIMEOUT", "0s"},
		{"negative request timeout", "REQUEST_TIMEOUT", "-1s"},
		{"zero shutdown timeout", "SHUTDOWN_TIMEOUT", "0s"},
		{"negative shutdown timeout", "SHUTDOWN_TIMEOUT", "-5s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_MaxRetriesRange(t *testing.T) {
	for _, v := range []string{"-1", "6"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("MAX_RETRIES", v)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "MAX_RETRIES")
		})
	}

	t.Setenv("MAX_RETRIES", "0")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.MaxRetries)
}

func TestLoad_InvalidTimezone(t *testing.T) {
	t.Setenv("CIVIL_TIMEZONE", "Mars/Olympus_Mons")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CIVIL_TIMEZONE")
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}

func TestLoad_EmptyOutputDir(t *testing.T) {
	t.Setenv("OUTPUT_DIR", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OUTPUT_DIR")
}

func TestLoad_RemoteStoreWithoutCredentials(t *testing.T) {
	t.Setenv("REMOTE_STORE_BUCKET", "reports")
	t.Setenv("REMOTE_STORE_ACCESS_KEY", "access")
	t.Setenv("REMOTE_STORE_SECRET_KEY", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REMOTE_STORE_SECRET_KEY")
}

func TestLoad_StaticDir(t *testing.T) {
	root := t.TempDir()
	t.Setenv("STATE_DB_PATH", filepath.Join(root, "state", "asesor.db"))

	tests := []struct {
		name      string
		staticDir string
		wantErr   bool
	}{
		{"unset", "", false},
		{"separate directory", filepath.Join(root, "public"), false},
		{"sibling with common prefix", filepath.Join(root, "state-public"), false},
		{"contains state database", filepath.Join(root, "state"), true},
		{"parent of state database", root, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STATIC_DIR", tt.staticDir)
			cfg, err := Load()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "STATIC_DIR")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.staticDir, cfg.StaticDir)
		})
	}
}

func TestLoad_StaticDirDefaultsExposeNoState(t *testing.T) {
	t.Setenv("STATIC_DIR", ".")
	_, err := Load()
	require.Error(t, err, "the default state database lives in the working directory")
}

func TestLoad_BlankKafkaBrokersDisablesAnnouncements(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " , ")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Nil(t, cfg.KafkaBrokers)
	assert.False(t, cfg.KafkaEnabled())
}

func TestRequireCredentials(t *testing.T) {
	cfg := &Config{GeminiAPIKey: "  "}
	err := cfg.RequireCredentials()
	require.Error(t, err)

	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "GEMINI_API_KEY", cfgErr.Setting)

	cfg.GeminiAPIKey = testAPIKey
	assert.NoError(t, cfg.RequireCredentials())
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GEMINI_MODEL=from-dotenv\nOUTPUT_DIR=/from/dotenv\n"), 0o600))

	t.Setenv("GEMINI_MODEL", "")
	require.NoError(t, os.Unsetenv("GEMINI_MODEL"))
	t.Setenv("OUTPUT_DIR", "/from/env")

	require.NoError(t, LoadDotEnv(path))
	t.Cleanup(func() { _ = os.Unsetenv("GEMINI_MODEL") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.GeminiModel)
	assert.Equal(t, "/from/env", cfg.OutputDir, "existing variables are not overridden")
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}
