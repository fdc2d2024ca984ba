package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreBackendMemory = "memory"
	StoreBackendRedis  = "redis"

	DisplayFormatText = "text"
	DisplayFormatJSON = "json"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Recovery RecoveryConfig `mapstructure:"recovery"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Display  DisplayConfig  `mapstructure:"display"`
}

// ServerConfig locates the ABX exchange server. Zero timeouts mean the
// client blocks until the server sends data or closes the connection.
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	// SkipInvalid keeps reading the stream past a record that fails
	// validation. By default the first invalid record ends the stream.
	SkipInvalid    bool          `mapstructure:"skip_invalid"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type StoreConfig struct {
	Backend string           `mapstructure:"backend"` // memory or redis
	Redis   RedisStoreConfig `mapstructure:"redis"`
}

type RedisStoreConfig struct {
	Address   string        `mapstructure:"address"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	KeyPrefix string        `mapstructure:"key_prefix"` // run id is appended
	TTL       time.Duration `mapstructure:"ttl"`
}

type RecoveryConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	RateLimit float64 `mapstructure:"rate_limit"` // resend requests per second, 0 = unlimited
	Burst     int     `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`  // json or text
	Output     string `mapstructure:"output"`  // stdout, stderr, or file path
	Console    bool   `mapstructure:"console"` // also write to stdout when Output is a file
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Port    int    `mapstructure:"port"`
}

type DisplayConfig struct {
	Format string `mapstructure:"format"` // text or json
	Color  bool   `mapstructure:"color"`
}

// Load reads configPath (skipped when empty), applies ABX_* environment
// overrides and defaults, and validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix("ABX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration Load produces with no file and no
// environment overrides.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.connect_timeout", "0s")
	v.SetDefault("server.read_timeout", "0s")
	v.SetDefault("server.write_timeout", "0s")
	v.SetDefault("server.skip_invalid", false)

	// Store defaults
	v.SetDefault("store.backend", StoreBackendMemory)
	v.SetDefault("store.redis.address", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.key_prefix", "abx:")
	v.SetDefault("store.redis.ttl", "0s")

	// Recovery defaults
	v.SetDefault("recovery.enabled", true)
	v.SetDefault("recovery.rate_limit", 0)
	v.SetDefault("recovery.burst", 1)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "logs.txt")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age", 30)

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.port", 9090)

	// Display defaults
	v.SetDefault("display.format", DisplayFormatText)
	v.SetDefault("display.color", false)
}
