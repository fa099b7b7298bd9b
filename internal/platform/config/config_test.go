package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityFromEnv_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/presence")
	t.Setenv("JWT_SIGNING_KEY", "test-key")

	cfg, err := IdentityFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Addr)
	assert.Equal(t, 60*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.LoginMaxFailures)
}

func TestIdentityFromEnv_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SIGNING_KEY", "")

	_, err := IdentityFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required environment variables")
}

func TestLedgerFromEnv_GeofenceRequiresIdentityURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/presence")
	t.Setenv("LEDGER_ENFORCE_GEOFENCE", "true")
	t.Setenv("IDENTITY_URL", "")

	_, err := LedgerFromEnv()
	require.Error(t, err)

	t.Setenv("LEDGER_ENFORCE_GEOFENCE", "false")
	cfg, err := LedgerFromEnv()
	require.NoError(t, err)
	assert.False(t, cfg.EnforceGeofence)
}

func TestGatewayFromEnv(t *testing.T) {
	t.Setenv("IDENTITY_URL", "http://identity:8081")
	t.Setenv("EVIDENCE_URL", "http://evidence:8082")
	t.Setenv("LEDGER_URL", "http://ledger:8083")

	cfg, err := GatewayFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "http://ledger:8083", cfg.LedgerURL)
}
