package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.Google.APIKey)
	assert.Equal(t, ".ga_key", cfg.Google.KeyFile)
	assert.Equal(t, "https://maps.googleapis.com/maps/api", cfg.Google.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Google.Timeout())
	assert.Equal(t, 2*time.Second, cfg.Google.PageDelay())
	assert.InDelta(t, 10, cfg.Google.RatePerSec, 0.001)
	assert.Equal(t, 1, cfg.Google.MaxAttempts)
	assert.InDelta(t, 0.6, cfg.Google.RadiusFactor, 0.001)
	assert.InDelta(t, 50000, cfg.Google.MaxRadiusM, 0.001)
	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Equal(t, "us_postal_codes.csv", cfg.Data.PostalTable)
	assert.Equal(t, 4, cfg.Email.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.Email.Timeout())
	assert.Equal(t, 5, cfg.Email.MaxContactPages)
	assert.Contains(t, cfg.Email.UserAgent, "gmaps-contacts")
	assert.True(t, cfg.Store.Enabled)
	assert.Equal(t, "data/gmaps.db", cfg.Store.Path)
	assert.Equal(t, 720*time.Hour, cfg.Store.PlaceTTL())
	assert.Empty(t, cfg.Metrics.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
google:
  page_delay_ms: 2500
  max_attempts: 3
data:
  dir: /var/lib/gmaps
store:
  enabled: false
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2500*time.Millisecond, cfg.Google.PageDelay())
	assert.Equal(t, 3, cfg.Google.MaxAttempts)
	assert.Equal(t, "/var/lib/gmaps", cfg.Data.Dir)
	assert.False(t, cfg.Store.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 4, cfg.Email.Concurrency)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: debug\n"), 0o644))
	t.Setenv("GMAPS_LOG_LEVEL", "warn")
	t.Setenv("GMAPS_GOOGLE_API_KEY", "env-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "env-key", cfg.Google.APIKey)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("google: [unclosed"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Google.KeyFile = ".ga_key"
	cfg.Google.BaseURL = "https://maps.googleapis.com/maps/api"
	cfg.Google.TimeoutSecs = 10
	cfg.Google.PageDelayMS = 2000
	cfg.Google.MaxAttempts = 1
	cfg.Google.RadiusFactor = 0.6
	cfg.Google.MaxRadiusM = 50000
	cfg.Data.Dir = "data"
	cfg.Data.PostalTable = "us_postal_codes.csv"
	cfg.Email.Concurrency = 4
	cfg.Email.TimeoutSecs = 10
	cfg.Email.MaxContactPages = 5
	cfg.Store.Enabled = true
	cfg.Store.Path = "data/gmaps.db"
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"grab", "state", "emails", "plan", "runs"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidateGrab_MissingFields(t *testing.T) {
	cfg := validDefaults()
	cfg.Google.KeyFile = ""
	cfg.Google.MaxAttempts = 0
	cfg.Data.Dir = ""

	err := cfg.Validate("grab")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "google.api_key or google.key_file is required")
	assert.Contains(t, err.Error(), "google.max_attempts must be between 1 and 10")
	assert.Contains(t, err.Error(), "data.dir is required")
}

func TestValidateState_RadiusBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Google.MaxRadiusM = 60000

	err := cfg.Validate("state")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "google.max_radius_m")

	cfg.Google.MaxRadiusM = 50000
	cfg.Data.PostalTable = ""
	err = cfg.Validate("state")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "data.postal_table is required")
}

func TestValidateEmails_ConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Email.Concurrency = 0
	err := cfg.Validate("emails")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "email.concurrency must be between 1 and 64")

	cfg.Email.Concurrency = 64
	assert.NoError(t, cfg.Validate("emails"))
}

func TestValidateRuns_StoreDisabled(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Enabled = false

	err := cfg.Validate("runs")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.enabled")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestRedacted(t *testing.T) {
	cfg := validDefaults()
	cfg.Google.APIKey = "AIza-secret"

	red := cfg.Redacted()
	assert.Equal(t, "<redacted>", red.Google.APIKey)
	assert.Equal(t, "AIza-secret", cfg.Google.APIKey)
}
