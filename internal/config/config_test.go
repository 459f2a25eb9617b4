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

	assert.Equal(t, "8083", cfg.Port)
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "http://localhost:8083", cfg.PublicBaseURL)
	assert.Equal(t, "mafia.events", cfg.AMQPExchange)
	assert.Empty(t, cfg.ArchiveDSN)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
	assert.Equal(t, time.Hour, cfg.SessionRetention)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DEBUG", "true")
	t.Setenv("DB_DSN", "postgres://localhost/mafia")
	t.Setenv("SESSION_RETENTION", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "postgres://localhost/mafia", cfg.ArchiveDSN)
	assert.Equal(t, 30*time.Minute, cfg.SessionRetention)
}
