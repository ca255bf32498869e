package config

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, DriverMySQL, cfg.DB.Driver)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 24*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, "log", cfg.Mail.Transport)
	assert.Equal(t, "s3cret", cfg.RegistrationSecret, "registration secret falls back to the session secret")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", "a")
	t.Setenv("REGISTRATION_SECRET", "b")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("MAIL_TRANSPORT", "redis")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "b", cfg.RegistrationSecret)
	assert.Equal(t, DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, 5*time.Minute, cfg.AccessTTL)
	assert.Equal(t, "redis", cfg.Mail.Transport)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{"SESSION_SECRET": ""}, "parse env"},
		{"bad driver", map[string]string{"SESSION_SECRET": "x", "DB_DRIVER": "oracle"}, "DB_DRIVER"},
		{"bad transport", map[string]string{"SESSION_SECRET": "x", "MAIL_TRANSPORT": "pigeon"}, "MAIL_TRANSPORT"},
		{"bad duration", map[string]string{"SESSION_SECRET": "x", "REFRESH_TOKEN_TTL": "soon"}, "parse env"},
		{"bad cost", map[string]string{"SESSION_SECRET": "x", "BCRYPT_COST": "2"}, "BCRYPT_COST"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()
	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(context.Background(), RedisConfig{Addr: addr})
	assert.Error(t, err)
}
