package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ADMIN_PASSCODE", "011090")

	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 5*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, "memberhub", cfg.Auth.JWTIssuer)
	assert.Equal(t, BackendNone, cfg.MQ.Backend)
	assert.Equal(t, BackendNone, cfg.Storage.Backend)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_DRIVER", "Memory")
	t.Setenv("DB_QUERY_TIMEOUT", "750ms")
	t.Setenv("DB_SSL", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("MQ_BACKEND", "rabbitmq")
	t.Setenv("RABBITMQ_DURABLE", "not-a-bool")

	cfg := LoadConfig()

	assert.Equal(t, ":9090", cfg.HTTPAddress())
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 750*time.Millisecond, cfg.Database.QueryTimeout)
	assert.True(t, cfg.Database.UseSSL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, BackendRabbitMQ, cfg.MQ.Backend)
	assert.True(t, cfg.RabbitMQ.QueueDurable, "invalid bool keeps the default")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database: DatabaseConfig{Driver: DriverPostgres, QueryTimeout: time.Second},
			Auth:     AuthConfig{JWTSecret: "s", AdminPasscode: "p"},
			MQ:       MQConfig{Backend: BackendNone},
			Storage:  StorageConfig{Backend: BackendNone},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"ok", func(*Config) {}, ""},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, "JWT_SECRET"},
		{"missing passcode", func(c *Config) { c.Auth.AdminPasscode = "" }, "ADMIN_PASSCODE"},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "DB_DRIVER"},
		{"zero timeout", func(c *Config) { c.Database.QueryTimeout = 0 }, "DB_QUERY_TIMEOUT"},
		{"bad mq", func(c *Config) { c.MQ.Backend = "kafka" }, "MQ_BACKEND"},
		{"bad storage", func(c *Config) { c.Storage.Backend = "s3" }, "STORAGE_BACKEND"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.errSub == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errSub)
		})
	}
}
