package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "support-service", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())

	assert.Equal(t, 4, cfg.Sla.Critical.ResponseHours)
	assert.Equal(t, 8, cfg.Sla.Critical.ResolutionHours)
	assert.Equal(t, 48, cfg.Sla.Low.ResponseHours)
	assert.Equal(t, 168, cfg.Sla.Low.ResolutionHours)

	assert.True(t, cfg.Scanner.Enabled)
	assert.Equal(t, time.Minute, cfg.Scanner.Interval())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("SLA_HIGH_RESPONSE_HOURS", "2")
	t.Setenv("SLA_SCANNER_INTERVAL_SECONDS", "15")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, 2, cfg.Sla.High.ResponseHours)
	assert.Equal(t, 15*time.Second, cfg.Scanner.Interval())
}

func TestParseAPIKeys(t *testing.T) {
	keys := parseAPIKeys("messaging:$2a$10$hash1, billing:$2a$10$hash2")
	require.Len(t, keys, 2)
	assert.Equal(t, "$2a$10$hash1", keys["messaging"])
	assert.Equal(t, "$2a$10$hash2", keys["billing"])

	assert.Empty(t, parseAPIKeys(""))
	assert.Empty(t, parseAPIKeys("malformed"))
	assert.Empty(t, parseAPIKeys(":nohash,name:"))
}
