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

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 30*time.Second, cfg.ServerReadTimeout)
	assert.Equal(t, []string{"https://*", "http://*"}, cfg.AllowedOrigins)
	assert.Equal(t, 12*time.Hour, cfg.JWTExpiration)
	assert.Equal(t, 50, cfg.TitleLimit)
	assert.True(t, cfg.AssistantDelays)
	assert.Empty(t, cfg.NATSURL)
	assert.False(t, cfg.TracingEnabled)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_EXPIRATION", "15m")
	t.Setenv("MOCK_ASSISTANT_DELAYS", "false")
	t.Setenv("ALLOWED_ORIGINS", "https://courses.example.edu")
	t.Setenv("MOCK_FAILURE_RATE", "0.25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 15*time.Minute, cfg.JWTExpiration)
	assert.False(t, cfg.AssistantDelays)
	assert.Equal(t, []string{"https://courses.example.edu"}, cfg.AllowedOrigins)
	assert.Equal(t, 0.25, cfg.FailureRate)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("MOCK_FAILURE_RATE", "2")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("MOCK_FAILURE_RATE", "0")
	t.Setenv("RATE_LIMIT_WINDOW", "soon")
	_, err = Load()
	assert.Error(t, err)
}
