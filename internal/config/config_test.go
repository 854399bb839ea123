package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, time.Hour, cfg.CredentialTTL)
	assert.Equal(t, 5*time.Second, cfg.SendCooldown)
	assert.Equal(t, 3, cfg.DeliveryMaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.DeliveryInitialBackoff)
	assert.Equal(t, 30*time.Second, cfg.DeliveryAttemptTimeout)
	assert.False(t, cfg.AuditEnabled)
	assert.False(t, cfg.SNSEnabled)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "MediOps", cfg.BrandName)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CREDENTIAL_TTL", "30m")
	t.Setenv("SEND_COOLDOWN", "10")
	t.Setenv("DELIVERY_MAX_ATTEMPTS", "5")
	t.Setenv("SNS_ENABLED", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg := Load()
	assert.Equal(t, 30*time.Minute, cfg.CredentialTTL)
	assert.Equal(t, 10*time.Second, cfg.SendCooldown)
	assert.Equal(t, 5, cfg.DeliveryMaxAttempts)
	assert.True(t, cfg.SNSEnabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestGetEnvDuration_InvalidFallsBack(t *testing.T) {
	t.Setenv("X_DURATION", "soon")
	assert.Equal(t, time.Minute, getEnvDuration("X_DURATION", time.Minute))

	t.Setenv("X_DURATION", "-5s")
	assert.Equal(t, time.Minute, getEnvDuration("X_DURATION", time.Minute))
}

func TestGetEnvBool_InvalidFallsBack(t *testing.T) {
	t.Setenv("X_BOOL", "maybe")
	assert.True(t, getEnvBool("X_BOOL", true))
}
