package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("PAYMENT_PROVIDER", "  BKASH ")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "storefront", cfg.DBName)
	assert.Equal(t, "bkash", cfg.Payment.Provider)
	assert.Equal(t, 55*time.Minute, cfg.Payment.BkashTokenTTL)
	assert.Equal(t, 10*time.Second, cfg.Courier.Timeout)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL())
}

func TestParseInvalidNumber(t *testing.T) {
	t.Setenv("SMTP_PORT", "not-a-port")

	_, err := Parse()
	assert.Error(t, err)
}

func TestParseNonPositiveTTLFallsBack(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL", "0")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL())
}
