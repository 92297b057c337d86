package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/config"
)

func TestLoadFrom_Defaults(t *testing.T) {
	dir := t.TempDir()

	c, err := config.LoadFrom(filepath.Join(dir, ".env"), filepath.Join(dir, "app.json"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "shop.db", c.DatabaseDSN)
	assert.Equal(t, time.Hour, c.TokenTTL)
	assert.Equal(t, "warn", c.CartStockPolicy)
}

func TestLoadFrom_LayersFiles(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	jsonPath := filepath.Join(dir, "app.json")

	require.NoError(t, os.WriteFile(envPath, []byte("ADMIN_EMAIL=ops@example.com\n"), 0o600))
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"admin_email":"ignored@example.com","cart_stock_policy":"REJECT"}`), 0o600))

	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("DB_DRIVER", "oracle")
	// godotenv and the json layer only fill unset keys; register cleanup for them.
	t.Cleanup(func() {
		os.Unsetenv("ADMIN_EMAIL")
		os.Unsetenv("CART_STOCK_POLICY")
	})

	c, err := config.LoadFrom(envPath, jsonPath)
	require.NoError(t, err)

	assert.Equal(t, "ops@example.com", c.AdminEmail)
	assert.Equal(t, "reject", c.CartStockPolicy)
	assert.Equal(t, 30*time.Minute, c.TokenTTL)
	assert.Equal(t, "sqlite", c.DBDriver, "unknown drivers fall back to sqlite")
}
