package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, 720*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "images", cfg.Storage.DefaultBucket)
	assert.Equal(t, 256, cfg.Storage.ClientCacheSize)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.False(t, cfg.UsesSQLite())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_SQLiteURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite:///var/lib/picshelf/picshelf.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.UsesSQLite())
	assert.Equal(t, "/var/lib/picshelf/picshelf.db", cfg.SQLitePath())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("STORAGE_DEFAULT_BUCKET", "pictures")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("HTTP_READ_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "pictures", cfg.Storage.DefaultBucket)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ReadTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"default secret in production": {"APP_ENV": "production"},
		"empty sqlite path":            {"DATABASE_URL": "sqlite://"},
		"zero cache size":              {"STORAGE_CLIENT_CACHE_SIZE": "0"},
		"negative ttl":                 {"JWT_TTL": "-1h"},
		"malformed duration":           {"HTTP_IDLE_TIMEOUT": "soon"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_ProductionWithSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "a-real-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}
