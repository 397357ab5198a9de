package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	strs "sowell/pkg/platform/strings"
)

// Config holds all configuration for the service.
type Config struct {
	Server    Server          `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Search    SearchConfig    `yaml:"search"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// AdminToken guards operator routes. Empty leaves them open.
	AdminToken string `yaml:"admin_token"`
}

// DatabaseConfig configures the Postgres pool.
type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	TxTimeout       time.Duration `yaml:"tx_timeout"`
}

// RedisConfig configures the optional classification cache. An empty URL disables it.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
}

// KafkaConfig configures audit event publishing. No brokers means events are only logged.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// SearchConfig bounds the matching engine.
type SearchConfig struct {
	RankedLimit   int           `yaml:"ranked_limit"`
	WildcardLimit int           `yaml:"wildcard_limit"`
	Timeout       time.Duration `yaml:"timeout"`
}

// RateLimitConfig bounds requests per client IP across the API routes.
// Limits are shared through Redis when it is configured.
type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// AuthConfig configures the identity-provider token check.
// Disabled auth is meant for local development only.
type AuthConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertsURL string `yaml:"certs_url"`
	Audience string `yaml:"audience"`
	Header   string `yaml:"header"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			TxTimeout:       5 * time.Second,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			CacheTTL:     10 * time.Minute,
		},
		Kafka: KafkaConfig{
			Topic: "sowell.audit",
		},
		Search: SearchConfig{
			RankedLimit:   50,
			WildcardLimit: 40,
			Timeout:       5 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:  true,
			Requests: 600,
			Window:   time.Minute,
		},
		Auth: AuthConfig{
			Header: "Cf-Access-Jwt-Assertion",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// SOWELL_CONFIG, and environment variables (a .env file is honoured when present),
// in that order of precedence.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("SOWELL_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv builds a Config from defaults and environment variables only.
func FromEnv() (Config, error) {
	cfg := Default()
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Addr, "SOWELL_ADDR")
	setString(&c.Server.AdminToken, "ADMIN_TOKEN")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Redis.URL, "REDIS_URL")
	setString(&c.Kafka.Topic, "KAFKA_TOPIC")
	setString(&c.Auth.CertsURL, "AUTH_CERTS_URL")
	setString(&c.Auth.Audience, "AUTH_AUDIENCE")
	setString(&c.Auth.Header, "AUTH_HEADER")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strs.DedupeAndTrim(strings.Split(v, ","))
	}
	if v := os.Getenv("AUTH_ENABLED"); v != "" {
		c.Auth.Enabled = v == "true"
	}
	if v := os.Getenv("RATE_LIMIT_ENABLED"); v != "" {
		c.RateLimit.Enabled = v == "true"
	}

	for _, d := range []struct {
		dst *time.Duration
		key string
	}{
		{&c.Search.Timeout, "SEARCH_TIMEOUT"},
		{&c.Database.TxTimeout, "DATABASE_TX_TIMEOUT"},
		{&c.Redis.CacheTTL, "CLASSIFICATION_CACHE_TTL"},
		{&c.Server.ShutdownTimeout, "SHUTDOWN_TIMEOUT"},
		{&c.RateLimit.Window, "RATE_LIMIT_WINDOW"},
	} {
		if err := setDuration(d.dst, d.key); err != nil {
			return err
		}
	}
	for _, n := range []struct {
		dst *int
		key string
	}{
		{&c.Search.RankedLimit, "SEARCH_RANKED_LIMIT"},
		{&c.Search.WildcardLimit, "SEARCH_WILDCARD_LIMIT"},
		{&c.Database.MaxOpenConns, "DATABASE_MAX_OPEN_CONNS"},
		{&c.Database.MaxIdleConns, "DATABASE_MAX_IDLE_CONNS"},
		{&c.RateLimit.Requests, "RATE_LIMIT_REQUESTS"},
	} {
		if err := setInt(n.dst, n.key); err != nil {
			return err
		}
	}
	return nil
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	if c.Search.RankedLimit <= 0 || c.Search.WildcardLimit <= 0 {
		return fmt.Errorf("search limits must be positive")
	}
	if c.Search.Timeout <= 0 {
		return fmt.Errorf("search timeout must be positive")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("rate limit requests and window must be positive")
	}
	if c.Auth.Enabled && (c.Auth.CertsURL == "" || c.Auth.Audience == "") {
		return fmt.Errorf("auth enabled but AUTH_CERTS_URL or AUTH_AUDIENCE is missing")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}
