package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, "environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, RoleAll, c.Role)
	assert.Equal(t, "memory", c.Queue.Backend)
	assert.Equal(t, 5, c.Analysis.PoolSize)
	assert.Equal(t, 24*time.Hour, c.Jobs.ResultTTL)
	assert.Equal(t, 30*time.Second, c.LLM.Timeout)
	assert.Equal(t, "gemini-flash-latest", c.LLM.Model)
	assert.Equal(t, "yahoo", c.Market.Backend)
}

func TestLoadOverridesFromYAML(t *testing.T) {
	c, err := Load(writeConfig(t, "environment: test\nanalysis:\n  pool_size: 2\nserver:\n  port: 9001\n"))
	require.NoError(t, err)

	assert.Equal(t, 2, c.Analysis.PoolSize)
	assert.Equal(t, 9001, c.Server.Port)
	assert.Equal(t, 10*time.Second, c.Server.ReadTimeout)
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "secret")
	t.Setenv("APP_ROLE", "worker")
	t.Setenv("QUEUE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")

	c, err := LoadWithEnv(writeConfig(t, "environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "secret", c.LLM.APIKey)
	assert.Equal(t, RoleWorker, c.Role)
	assert.Equal(t, "redis", c.Queue.Backend)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.Kafka.Brokers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad role", func(c *Config) { c.Role = "scheduler" }},
		{"memory queue outside all", func(c *Config) { c.Role = RoleAPI }},
		{"redis queue without addr", func(c *Config) { c.Queue.Backend = "redis" }},
		{"clickhouse without host", func(c *Config) { c.Market.Backend = "clickhouse" }},
		{"unknown market backend", func(c *Config) { c.Market.Backend = "bloomberg" }},
		{"zero pool", func(c *Config) { c.Analysis.PoolSize = 0 }},
		{"kafka without brokers", func(c *Config) { c.Kafka.Enabled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Default()
			require.NoError(t, err)
			require.NoError(t, c.Validate())

			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
