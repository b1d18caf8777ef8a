package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// Store backends
const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Defaults applied by Validate
const (
	DefaultInstance     = "default"
	DefaultAddr         = ":8080"
	DefaultRedisURL     = "redis://localhost:6379/0"
	DefaultSQLitePath   = "slate.db"
	DefaultSaveDelay    = 500 * time.Millisecond
	DefaultHistoryLimit = 100
	DefaultMinShapeSize = 5.0
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "slate.yml"

var instanceNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// SlateConfig represents the top-level slate.yml configuration
type SlateConfig struct {
	Version  string         `yaml:"version"`
	Instance string         `yaml:"instance,omitempty"` // Namespaces Redis keys; several deployments can share one server
	Server   *ServerConfig  `yaml:"server,omitempty"`
	Redis    *RedisConfig   `yaml:"redis,omitempty"`
	Store    *StoreConfig   `yaml:"store,omitempty"`
	Session  *SessionConfig `yaml:"session,omitempty"`
}

// ServerConfig specifies the HTTP gateway
type ServerConfig struct {
	Addr           string   `yaml:"addr,omitempty"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// RedisConfig specifies the Redis connection
type RedisConfig struct {
	URL string `yaml:"url,omitempty"`
}

// StoreConfig selects where boards are persisted
type StoreConfig struct {
	Backend    string `yaml:"backend,omitempty"` // redis, sqlite or memory (default redis)
	SQLitePath string `yaml:"sqlite_path,omitempty"`
}

// SessionConfig tunes whiteboard sessions
type SessionConfig struct {
	SaveDelay    time.Duration `yaml:"save_delay,omitempty"`
	HistoryLimit *int          `yaml:"history_limit,omitempty"` // 0 = unlimited, default = 100
	MinShapeSize float64       `yaml:"min_shape_size,omitempty"`
}

// Default returns a validated configuration with every default applied.
func Default() *SlateConfig {
	c := &SlateConfig{Version: "1.0"}
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("config: defaults are invalid: %v", err))
	}
	return c
}

// Validate performs strict validation on the configuration and fills in
// defaults for omitted sections.
func (c *SlateConfig) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.Instance == "" {
		c.Instance = DefaultInstance
	}
	if !instanceNamePattern.MatchString(c.Instance) {
		return fmt.Errorf("invalid instance name '%s': use letters, digits, '-' and '_'", c.Instance)
	}

	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}

	if c.Redis == nil {
		c.Redis = &RedisConfig{}
	}
	if c.Redis.URL == "" {
		c.Redis.URL = DefaultRedisURL
	}

	if c.Store == nil {
		c.Store = &StoreConfig{}
	}
	switch c.Store.Backend {
	case "":
		c.Store.Backend = BackendRedis
	case BackendRedis, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("invalid store.backend: %s (must be 'redis', 'sqlite', or 'memory')", c.Store.Backend)
	}
	if c.Store.Backend == BackendSQLite && c.Store.SQLitePath == "" {
		c.Store.SQLitePath = DefaultSQLitePath
	}

	if c.Store.Backend == BackendRedis {
		if _, err := redis.ParseURL(c.Redis.URL); err != nil {
			return fmt.Errorf("invalid redis.url: %w", err)
		}
	}

	if c.Session == nil {
		c.Session = &SessionConfig{}
	}
	if c.Session.SaveDelay < 0 {
		return fmt.Errorf("session.save_delay must be >= 0, got %s", c.Session.SaveDelay)
	}
	if c.Session.SaveDelay == 0 {
		c.Session.SaveDelay = DefaultSaveDelay
	}
	if c.Session.HistoryLimit == nil {
		limit := DefaultHistoryLimit
		c.Session.HistoryLimit = &limit
	}
	if *c.Session.HistoryLimit < 0 {
		return fmt.Errorf("session.history_limit must be >= 0 (0 = unlimited), got %d", *c.Session.HistoryLimit)
	}
	if c.Session.MinShapeSize < 0 {
		return fmt.Errorf("session.min_shape_size must be >= 0, got %v", c.Session.MinShapeSize)
	}
	if c.Session.MinShapeSize == 0 {
		c.Session.MinShapeSize = DefaultMinShapeSize
	}

	return nil
}

// ApplyEnv overrides file values from the environment: REDIS_URL,
// SLATE_INSTANCE_NAME and SLATE_ADDR. Call Validate afterwards.
func (c *SlateConfig) ApplyEnv() {
	if v := os.Getenv("REDIS_URL"); v != "" {
		if c.Redis == nil {
			c.Redis = &RedisConfig{}
		}
		c.Redis.URL = v
	}
	if v := os.Getenv("SLATE_INSTANCE_NAME"); v != "" {
		c.Instance = v
	}
	if v := os.Getenv("SLATE_ADDR"); v != "" {
		if c.Server == nil {
			c.Server = &ServerConfig{}
		}
		c.Server.Addr = v
	}
}

// RedisOptions parses the configured Redis URL.
func (c *SlateConfig) RedisOptions() (*redis.Options, error) {
	opts, err := redis.ParseURL(c.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis.url: %w", err)
	}
	return opts, nil
}

// Load reads slate.yml from the specified path, applies environment overrides
// and validates the result.
func Load(path string) (*SlateConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config SlateConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	config.ApplyEnv()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOrDefault behaves like Load but falls back to the defaults, with
// environment overrides, when the file does not exist.
func LoadOrDefault(path string) (*SlateConfig, error) {
	config, err := Load(path)
	if err == nil {
		return config, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	config = &SlateConfig{Version: "1.0"}
	config.ApplyEnv()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}
