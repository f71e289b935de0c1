package config_test

import (
	"testing"
	"time"

	"github.com/muhammadheryan/storefront/cmd/config"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("TOP_RATED_CACHE_TTL", "")

	cfg := config.Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 2*time.Minute, cfg.Catalog.TopRatedCacheTTL)
	assert.Equal(t, 3306, cfg.Database.Port)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("RABBITMQ_ENABLED", "true")
	t.Setenv("JWT_EXPIRATION", "30m")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := config.Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3307, cfg.Database.Port)
	assert.True(t, cfg.RabbitMQ.Enabled)
	assert.Equal(t, 30*time.Minute, cfg.Auth.JWTExpiration)
	assert.Equal(t, 0, cfg.Redis.DB)
}

func TestConfig_GetDSN(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{
		Host: "db", Port: 3306, User: "app", Password: "secret", Name: "storefront",
	}}
	assert.Equal(t, "app:secret@tcp(db:3306)/storefront?parseTime=true&loc=UTC&charset=utf8mb4", cfg.GetDSN())
}
