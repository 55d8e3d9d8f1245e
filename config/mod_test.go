package config

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "GIN_MODE", "DATABASE_URL", "DB_NAME", "REDIS_URL", "SECRET",
		"ADMIN_INVITE_CODE", "MONGO_TRANSACTIONS", "AUTO_MIGRATE", "IMAGE_BACKEND",
		"CLOUDINARY_UPLOAD_FOLDER", "CORS_ORIGINS", "RATE_LIMIT_PER_SECOND",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, gin.DebugMode, cfg.GinMode)
	assert.Equal(t, "storefront", cfg.DBName)
	assert.Equal(t, ImageBackendGridFS, cfg.ImageBackend)
	assert.Equal(t, uint(10), cfg.RateLimitPerSecond)
	assert.False(t, cfg.MongoTransactions)
	assert.True(t, cfg.AutoMigrate)
	assert.NotEmpty(t, cfg.Secret)
	assert.Empty(t, cfg.CORSOrigins)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("SECRET", "s3cret")
	t.Setenv("ADMIN_INVITE_CODE", "  let-me-in ")
	t.Setenv("MONGO_TRANSACTIONS", "true")
	t.Setenv("IMAGE_BACKEND", "Cloudinary")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("RATE_LIMIT_PER_SECOND", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, "s3cret", cfg.Secret)
	assert.Equal(t, "let-me-in", cfg.AdminInviteCode)
	assert.True(t, cfg.MongoTransactions)
	assert.Equal(t, ImageBackendCloudinary, cfg.ImageBackend)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Zero(t, cfg.RateLimitPerSecond)
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]map[string]string{
		"release without secret": {"GIN_MODE": gin.ReleaseMode},
		"unknown image backend":  {"IMAGE_BACKEND": "s3"},
		"bad bool":               {"MONGO_TRANSACTIONS": "maybe"},
		"bad rate":               {"RATE_LIMIT_PER_SECOND": "-1"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
