package config

import (
	"fmt"
	"strings"
)

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store config: %w", err)
	}

	if err := c.Recovery.Validate(); err != nil {
		return fmt.Errorf("recovery config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	if err := c.Display.Validate(); err != nil {
		return fmt.Errorf("display config: %w", err)
	}

	return nil
}

func (s *ServerConfig) Validate() error {
	if strings.TrimSpace(s.Host) == "" {
		return fmt.Errorf("server host cannot be empty")
	}

	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", s.Port)
	}

	if s.ConnectTimeout < 0 {
		return fmt.Errorf("connect_timeout cannot be negative")
	}

	if s.ReadTimeout < 0 {
		return fmt.Errorf("read_timeout cannot be negative")
	}

	if s.WriteTimeout < 0 {
		return fmt.Errorf("write_timeout cannot be negative")
	}

	return nil
}

func (s *StoreConfig) Validate() error {
	switch s.Backend {
	case StoreBackendMemory:
		return nil
	case StoreBackendRedis:
		if s.Redis.Address == "" {
			return fmt.Errorf("redis address is required for the redis backend")
		}
		if s.Redis.DB < 0 {
			return fmt.Errorf("invalid Redis database number: %d", s.Redis.DB)
		}
		if s.Redis.TTL < 0 {
			return fmt.Errorf("redis ttl cannot be negative")
		}
		return nil
	default:
		return fmt.Errorf("unknown store backend: %q", s.Backend)
	}
}

func (r *RecoveryConfig) Validate() error {
	if r.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative")
	}

	if r.Burst < 1 {
		return fmt.Errorf("burst must be at least 1")
	}

	return nil
}

func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"panic": true,
		"fatal": true,
		"error": true,
		"warn":  true,
		"info":  true,
		"debug": true,
		"trace": true,
	}

	if !validLevels[l.Level] {
		return fmt.Errorf("invalid log level: %s", l.Level)
	}

	if l.Format != "json" && l.Format != "text" {
		return fmt.Errorf("log format must be 'json' or 'text'")
	}

	if l.Output == "" {
		return fmt.Errorf("log output cannot be empty")
	}

	if l.Output != "stdout" && l.Output != "stderr" {
		if l.MaxSize <= 0 {
			return fmt.Errorf("max_size must be positive for file output")
		}
		if l.MaxBackups < 0 {
			return fmt.Errorf("max_backups cannot be negative")
		}
		if l.MaxAge < 0 {
			return fmt.Errorf("max_age cannot be negative")
		}
	}

	return nil
}

func (m *MetricsConfig) Validate() error {
	if m.Enabled {
		if m.Port < 1 || m.Port > 65535 {
			return fmt.Errorf("invalid metrics port: %d", m.Port)
		}

		if m.Path == "" || !strings.HasPrefix(m.Path, "/") {
			return fmt.Errorf("metrics path must start with '/'")
		}
	}

	return nil
}

func (d *DisplayConfig) Validate() error {
	if d.Format != DisplayFormatText && d.Format != DisplayFormatJSON {
		return fmt.Errorf("display format must be 'text' or 'json'")
	}
	return nil
}
