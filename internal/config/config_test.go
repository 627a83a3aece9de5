package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, 3*time.Minute, cfg.Missions.RotateInterval)
	assert.Equal(t, 3, cfg.Missions.ActiveCount)
	assert.Equal(t, time.Second, cfg.Missions.TickInterval)
	assert.Equal(t, 10*time.Second, cfg.Remote.Timeout)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("MISSION_ROTATE_INTERVAL", "90s")
	t.Setenv("MISSION_ACTIVE_COUNT", "2")
	t.Setenv("REMOTE_API_URL", "https://api.example.test/v1/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, 90*time.Second, cfg.Missions.RotateInterval)
	assert.Equal(t, 2, cfg.Missions.ActiveCount)
	assert.Equal(t, "https://api.example.test/v1", cfg.Remote.BaseURL)
}

func TestLoad_TrustedProxies(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"127.0.0.0/8", "::1/128"}, cfg.TrustedProxies)

	t.Setenv("TRUSTED_PROXIES", " 10.0.0.0/8, ,172.16.0.0/12 ")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.0/12"}, cfg.TrustedProxies)

	t.Setenv("TRUSTED_PROXIES", "")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.TrustedProxies)
}

func TestLoad_UnparseableValuesFallBack(t *testing.T) {
	t.Setenv("MISSION_ROTATE_INTERVAL", "soon")
	t.Setenv("PORT", "eighty")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Minute, cfg.Missions.RotateInterval)
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoad_Rejects(t *testing.T) {
	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "indexeddb")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "STORE_BACKEND")
	})

	t.Run("zero active count", func(t *testing.T) {
		t.Setenv("MISSION_ACTIVE_COUNT", "0")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("board larger than three", func(t *testing.T) {
		t.Setenv("MISSION_ACTIVE_COUNT", "4")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("short secret in production", func(t *testing.T) {
		t.Setenv("ENV", "production")
		t.Setenv("STORE_SECRET", "short")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("long secret in production", func(t *testing.T) {
		t.Setenv("ENV", "production")
		t.Setenv("STORE_SECRET", strings.Repeat("s", 32))
		_, err := Load()
		require.NoError(t, err)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", User: "u", Password: "p@ss", Name: "sprout"}
	dsn := d.DSN()
	assert.Contains(t, dsn, "tcp(db:3306)")
	assert.Contains(t, dsn, "/sprout")

	d.dsnOverride = "custom"
	assert.Equal(t, "custom", d.DSN())
}
