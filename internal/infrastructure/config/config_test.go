package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("GATEWAY_URL", "")
	t.Setenv("POLL_INTERVAL", "")
	t.Setenv("CLIENT_KEY", "laptop")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api", cfg.GatewayURL)
	assert.Equal(t, "ws://localhost:8085/ws/notifications", cfg.NotificationURL)
	assert.Equal(t, "laptop", cfg.ClientKey)
	assert.Equal(t, 10*time.Second, cfg.SlowNoticeAfter)
	assert.Equal(t, 30*time.Second, cfg.CriticalNoticeAfter)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 60, cfg.PollMaxAttempts)
	assert.Equal(t, 5*time.Minute, cfg.MessageRetention)
	assert.Equal(t, 10, cfg.ReconnectMaxAttempts)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "500ms")
	t.Setenv("POLL_MAX_ATTEMPTS", "5")
	t.Setenv("REJECT_CLOSE_DELAY", "3")
	t.Setenv("HTTP_TIMEOUT", "not-a-duration")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 5, cfg.PollMaxAttempts)
	assert.Equal(t, 3*time.Second, cfg.RejectCloseDelay)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Run("gateway scheme", func(t *testing.T) {
		t.Setenv("GATEWAY_URL", "ftp://example.com")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "GATEWAY_URL")
	})

	t.Run("escalation order", func(t *testing.T) {
		t.Setenv("SLOW_NOTICE_AFTER", "40s")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "SLOW_NOTICE_AFTER")
	})
}
