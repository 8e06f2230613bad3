package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(newViper())
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, DispatchMemory, cfg.Dispatch.Mode)
	assert.Equal(t, time.Second, cfg.Dispatch.PollInterval)
	assert.Equal(t, 5, cfg.Dispatch.MaxAttempts)
	assert.Equal(t, time.Hour, cfg.Policy.ExpiryInterval)
	assert.Equal(t, 90, cfg.Notification.RetentionDays)
	assert.Empty(t, cfg.CORSAllowedOrigins)
}

func TestParse_ProdRejectsDefaultSecret(t *testing.T) {
	v := newViper()
	v.Set("app_env", "Production")

	_, err := Parse(v)
	assert.ErrorContains(t, err, "JWT_SECRET")

	v.Set("jwt_secret", "a-real-production-secret")
	cfg, err := Parse(v)
	require.NoError(t, err)
	assert.True(t, cfg.IsProdLike())
}

func TestParse_InvalidValues(t *testing.T) {
	cases := map[string]struct {
		key   string
		value any
		field string
	}{
		"unknown dispatch mode": {"dispatch.mode", "kafka", "dispatch.mode"},
		"zero ttl":              {"jwt_ttl", "0s", "jwt_ttl"},
		"bad log level":         {"log_level", "loud", "log_level"},
		"zero batch":            {"dispatch.batch_size", 0, "dispatch.batch_size"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			v := newViper()
			v.Set(tc.key, tc.value)

			_, err := Parse(v)
			assert.ErrorContains(t, err, tc.field)
		})
	}
}

func TestParse_RedisModeNeedsAddress(t *testing.T) {
	v := newViper()
	v.Set("dispatch.mode", "redis")

	_, err := Parse(v)
	assert.ErrorContains(t, err, "dispatch.redis_addr")

	v.Set("dispatch.redis_addr", "localhost:6379")
	_, err = Parse(v)
	assert.NoError(t, err)
}

func TestLoad_EnvAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_addr: \":9090\"\ndispatch:\n  batch_size: 10\n"), 0o600))

	t.Chdir(dir)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DISPATCH_MODE", "outbox")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 10, cfg.Dispatch.BatchSize)
	assert.Equal(t, DispatchOutbox, cfg.Dispatch.Mode)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}
