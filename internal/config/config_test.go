package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
env: local
http_server:
  address: "0.0.0.0:8080"
  timeout: 10s
database:
  user: reader
  name: gpao
  port: 3307
reporting:
  near_term_window_days: 7
alerts:
  enabled: true
  interval: 1h
  daily_summary: true
  recipients:
    - planning@example.com
    - chef@example.com
smtp:
  host: smtp.example.com
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "local.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FromFileWithDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPServer.Address)
	assert.Equal(t, 10*time.Second, cfg.HTTPServer.Timeout)
	assert.Equal(t, 60*time.Second, cfg.HTTPServer.IdleTimeout)
	assert.Equal(t, 3307, cfg.Database.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "F", cfg.Database.OrderPrefix)
	assert.Equal(t, 2*time.Second, cfg.Database.SlowQuery)
	assert.Equal(t, 7, cfg.Reporting.NearTermWindowDays)
	assert.Equal(t, 5, cfg.Reporting.ChargePeriodDays)
	assert.True(t, cfg.Alerts.Enabled)
	assert.Equal(t, time.Hour, cfg.Alerts.Interval)
	assert.Equal(t, 24*time.Hour, cfg.Alerts.RunWindow)
	assert.True(t, cfg.Alerts.DailySummary)
	assert.False(t, cfg.Alerts.Completions)
	assert.Equal(t, []string{"planning@example.com", "chef@example.com"}, cfg.Alerts.Recipients)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "noop", cfg.Cache.Driver)
	assert.True(t, cfg.MailEnabled())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("DB_HOST", "erp-db")
	t.Setenv("REPORT_NEAR_TERM_WINDOW_DAYS", "3")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "erp-db", cfg.Database.Host)
	assert.Equal(t, 3, cfg.Reporting.NearTermWindowDays)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	bad := *cfg
	bad.Alerts.Interval = 0
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Cache.Driver = "memcached"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Reporting.Location = "Mars/Olympus"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Reporting.ChargePeriodDays = 0
	assert.Error(t, bad.Validate())
}
