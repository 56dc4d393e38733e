package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("VERIFY_TOKEN", "secret")
	t.Setenv("ADMIN_PHONES", "999000111,999000222")
	t.Setenv("OUTBOUND_URL", "http://outbound.local/send")
	t.Setenv("CATALOG_URL", "http://content.local")
	t.Setenv("GENERATE_URL", "http://gen.local/generate")
}

func TestLoad_DefaultsAndRequired(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "/", cfg.CommandPrefix)
	assert.Equal(t, []string{"999000111", "999000222"}, cfg.AdminPhones)
	assert.Equal(t, 60*time.Second, cfg.DedupTTL())
	assert.Equal(t, 5*time.Minute, cfg.DedupSweepInterval())
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL())
	assert.Equal(t, 30*time.Minute, cfg.TranscriptTTL())
	assert.Equal(t, 2*time.Hour, cfg.HandoffTTL())
	assert.Equal(t, 8, cfg.TranscriptMaxTurns)
	assert.Equal(t, "09:00-13:00,15:00-19:00", cfg.HoursWindows)
	assert.NotEmpty(t, cfg.InstanceID, "instance id is generated when unset")
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("VERIFY_TOKEN", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidWindows(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HOURS_WINDOWS", "13:00-09:00")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HOURS_WINDOWS")
}

func TestLoad_SweepShorterThanTTLRejected(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DEDUP_TTL_SECONDS", "120")
	t.Setenv("DEDUP_SWEEP_SECONDS", "60")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEDUP_SWEEP_SECONDS")
}

func TestLoad_NonPositiveDurationRejected(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TRANSCRIPT_MAX_TURNS", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestIsAdmin(t *testing.T) {
	cfg := &Config{AdminPhones: []string{"999000111"}}
	assert.True(t, cfg.IsAdmin("999000111"))
	assert.False(t, cfg.IsAdmin("947111222"))
	assert.False(t, cfg.IsAdmin(""))
}
