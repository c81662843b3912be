package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"MarketWhisperer/pkg/util"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

const (
	RoleAll    = "all"
	RoleAPI    = "api"
	RoleWorker = "worker"
)

type Config struct {
	Environment string `yaml:"environment" default:"local"`
	Role        string `yaml:"role" default:"all"`
	Server      struct {
		Port            int           `yaml:"port" default:"8000"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
		StartRateLimit  struct {
			Capacity     float64 `yaml:"capacity" default:"3"`
			RefillPerSec float64 `yaml:"refill_per_sec" default:"0.2"`
		} `yaml:"start_rate_limit"`
	} `yaml:"server"`
	Log struct {
		Level           string        `yaml:"level" default:"info"`
		Format          string        `yaml:"format" default:"console"`
		Output          string        `yaml:"output" default:"stdout"`
		CollectErrors   bool          `yaml:"collect_errors"`
		CollectorTopic  string        `yaml:"collector_topic" default:"whisperer.logs"`
		CollectInterval time.Duration `yaml:"collect_interval" default:"30s"`
		CollectMax      int           `yaml:"collect_max" default:"100"`
	} `yaml:"log"`
	Metrics struct {
		Enabled       bool          `yaml:"enabled" default:"true"`
		Path          string        `yaml:"path" default:"/metrics"`
		SlowThreshold time.Duration `yaml:"slow_threshold" default:"2s"`
	} `yaml:"metrics"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"whisperer"`
	} `yaml:"redis"`
	Queue struct {
		Backend   string `yaml:"backend" default:"memory"`
		Workers   int    `yaml:"workers" default:"2"`
		QueueSize int    `yaml:"queue_size" default:"64"`
	} `yaml:"queue"`
	Jobs struct {
		ResultTTL  time.Duration `yaml:"result_ttl" default:"24h"`
		RunTimeout time.Duration `yaml:"run_timeout" default:"5m"`
	} `yaml:"jobs"`
	Analysis struct {
		PoolSize        int           `yaml:"pool_size" default:"5"`
		ContextCacheTTL time.Duration `yaml:"context_cache_ttl" default:"10m"`
	} `yaml:"analysis"`
	News struct {
		BaseURL  string        `yaml:"base_url" default:"https://news.google.com/rss/search"`
		Language string        `yaml:"language" default:"en-IN"`
		Country  string        `yaml:"country" default:"IN"`
		Edition  string        `yaml:"edition" default:"IN:en"`
		Timeout  time.Duration `yaml:"timeout" default:"10s"`
		Attempts int           `yaml:"attempts" default:"2"`
	} `yaml:"news"`
	Market struct {
		Backend  string        `yaml:"backend" default:"yahoo"`
		BaseURL  string        `yaml:"base_url" default:"https://query1.finance.yahoo.com"`
		Range    string        `yaml:"range" default:"1mo"`
		Timeout  time.Duration `yaml:"timeout" default:"10s"`
		Attempts int           `yaml:"attempts" default:"2"`
		Table    string        `yaml:"table" default:"whisperer.daily_candles"`
	} `yaml:"market"`
	LLM struct {
		APIKey      string        `yaml:"api_key"`
		Model       string        `yaml:"model" default:"gemini-flash-latest"`
		Temperature float32       `yaml:"temperature" default:"0.2"`
		Timeout     time.Duration `yaml:"timeout" default:"30s"`
	} `yaml:"llm"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"whisperer.whispers"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"200ms"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"whisperer"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"10s"`
	} `yaml:"clickhouse"`
}

// Default returns a configuration populated only from struct defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file on top of defaults.
func Load(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}

	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func read(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("APP_ROLE"); v != "" {
		c.Role = v
	}
	if v := os.Getenv("QUEUE_BACKEND"); v != "" {
		c.Queue.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("MARKET_BACKEND"); v != "" {
		c.Market.Backend = v
	}
	c.Server.Port = util.ParseIntDefault(os.Getenv("PORT"), c.Server.Port)
	c.Analysis.PoolSize = util.ParseIntDefault(os.Getenv("ANALYSIS_POOL_SIZE"), c.Analysis.PoolSize)
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Role {
	case RoleAll, RoleAPI, RoleWorker:
	default:
		return fmt.Errorf("role must be 'all', 'api' or 'worker', got '%s'", c.Role)
	}
	switch c.Queue.Backend {
	case "memory":
		if c.Role != RoleAll {
			return fmt.Errorf("queue.backend 'memory' requires role 'all', got '%s'", c.Role)
		}
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for queue.backend 'redis'")
		}
	default:
		return fmt.Errorf("queue.backend must be 'memory' or 'redis', got '%s'", c.Queue.Backend)
	}
	switch c.Market.Backend {
	case "yahoo":
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required for market.backend 'clickhouse'")
		}
	default:
		return fmt.Errorf("market.backend must be 'yahoo' or 'clickhouse', got '%s'", c.Market.Backend)
	}
	if c.Analysis.PoolSize <= 0 {
		return fmt.Errorf("analysis.pool_size must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
