package config

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte("test-signing-key"))

	t.Run("valid config", func(t *testing.T) {
		cfg, err := NewConfig("localhost:8000", "host=localhost", "localhost:6379", secret, []string{"http://localhost:3000"})

		assert.NoError(t, err)
		assert.Equal(t, "localhost:8000", cfg.ServerAddr)
		assert.Equal(t, "host=localhost", cfg.DatabaseDSN)
		assert.Equal(t, "localhost:6379", cfg.RedisAddr)
		assert.Equal(t, []byte("test-signing-key"), cfg.SigningKey)
		assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	})

	tt := []struct {
		name       string
		serverAddr string
		dsn        string
		redisAddr  string
		secret     string
	}{
		{name: "empty server address", dsn: "host=localhost", redisAddr: "localhost:6379", secret: secret},
		{name: "empty database DSN", serverAddr: "localhost:8000", redisAddr: "localhost:6379", secret: secret},
		{name: "empty redis address", serverAddr: "localhost:8000", dsn: "host=localhost", secret: secret},
		{name: "empty signing secret", serverAddr: "localhost:8000", dsn: "host=localhost", redisAddr: "localhost:6379"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(tc.serverAddr, tc.dsn, tc.redisAddr, tc.secret, nil)
			assert.Error(t, err, "expected an error for %s", tc.name)
			assert.Nil(t, cfg)
		})
	}

	t.Run("invalid base64 secret", func(t *testing.T) {
		cfg, err := NewConfig("localhost:8000", "host=localhost", "localhost:6379", "not-base64!!", nil)
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})
}
