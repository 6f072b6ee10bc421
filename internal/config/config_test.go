package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", ":memory:")
	t.Setenv("JWT_SECRET", "0123456789abcdef-secret")
}

func TestParse_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "social_feed", cfg.ServiceName)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, 15*time.Minute, cfg.JWTTTL)
	assert.Equal(t, "bcrypt", cfg.PasswordHasher)
	assert.Equal(t, "posts", cfg.ESIndex)
	assert.True(t, cfg.SecureCookies)
	assert.False(t, cfg.KafkaEnabled())
	assert.False(t, cfg.SearchEnabled())
}

func TestParse_Overrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("PASSWORD_HASHER", " Argon2id ")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, ,kafka-2:9092 ")
	t.Setenv("ES_URL", "http://localhost:9200")
	t.Setenv("SECURE_COOKIES", "false")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, "argon2id", cfg.PasswordHasher)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.True(t, cfg.SearchEnabled())
	assert.False(t, cfg.SecureCookies)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{name: "short secret", key: "JWT_SECRET", val: "short", want: "JWT_SECRET"},
		{name: "unknown driver", key: "DB_DRIVER", val: "mysql", want: "DB_DRIVER"},
		{name: "missing dsn", key: "DATABASE_URL", val: "", want: "DATABASE_URL"},
		{name: "unknown hasher", key: "PASSWORD_HASHER", val: "md5", want: "PASSWORD_HASHER"},
		{name: "negative ttl", key: "JWT_TTL", val: "-1m", want: "JWT_TTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Parse()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_SecretNeverInError(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_SECRET", "tiny-secret")

	_, err := Parse()
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "tiny-secret")
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SERVICE_NAME=from_file\n"), 0o600))

	setBaseEnv(t)
	// godotenv does not override variables that are already set
	t.Setenv("SERVICE_NAME", "")
	require.NoError(t, os.Unsetenv("SERVICE_NAME"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from_file", cfg.ServiceName)
}
