package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 15*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Cache.CleanupInterval)
	assert.Equal(t, 2*time.Second, cfg.Cache.OperationTimeout)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.NoError(t, config.Validate(cfg))
}

func TestLoadConfig_FileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
database:
  driver: sqlite
  dsn: "file:hoteis.db"
  queryTimeout: 30s
cache:
  type: memory
auth:
  bcryptCost: 11
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	t.Setenv("HOTEIS_SERVER_PORT", "9090")
	t.Setenv("HOTEIS_AUTH_JWTSECRET", "segredo-vindo-do-ambiente")

	cfg, err := config.LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 30*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, "memory", cfg.Cache.Type)
	assert.Equal(t, 11, cfg.Auth.BcryptCost)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "segredo-vindo-do-ambiente", cfg.Auth.JWTSecret)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown driver", func(c *config.Config) { c.Database.Driver = "oracle" }},
		{"unknown cache type", func(c *config.Config) { c.Cache.Type = "memcached" }},
		{"redis without address", func(c *config.Config) { c.Cache.Redis.Address = "" }},
		{"weak bcrypt cost", func(c *config.Config) { c.Auth.BcryptCost = 4 }},
		{"tls without certificate", func(c *config.Config) { c.Server.TLS = true }},
		{"negative query timeout", func(c *config.Config) { c.Database.QueryTimeout = -time.Second }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(cfg)
			assert.Error(t, config.Validate(cfg))
		})
	}

	t.Run("tls with domains uses lets encrypt", func(t *testing.T) {
		cfg := config.Default()
		cfg.Server.TLS = true
		cfg.Server.Domains = []string{"painel.hotel.com"}
		assert.NoError(t, config.Validate(cfg))
	})

	t.Run("disabled cache skips cache checks", func(t *testing.T) {
		cfg := config.Default()
		cfg.Cache.Enabled = false
		cfg.Cache.Type = "qualquer"
		assert.NoError(t, config.Validate(cfg))
	})
}
