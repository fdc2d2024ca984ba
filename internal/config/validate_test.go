package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "empty host",
			mutate:  func(c *Config) { c.Server.Host = " " },
			wantErr: true,
			errMsg:  "server host cannot be empty",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: true,
			errMsg:  "invalid server port",
		},
		{
			name:    "negative read timeout",
			mutate:  func(c *Config) { c.Server.ReadTimeout = -time.Second },
			wantErr: true,
			errMsg:  "read_timeout cannot be negative",
		},
		{
			name:    "unknown store backend",
			mutate:  func(c *Config) { c.Store.Backend = "sqlite" },
			wantErr: true,
			errMsg:  "unknown store backend",
		},
		{
			name: "redis backend without address",
			mutate: func(c *Config) {
				c.Store.Backend = StoreBackendRedis
				c.Store.Redis.Address = ""
			},
			wantErr: true,
			errMsg:  "redis address is required",
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *Config) { c.Recovery.RateLimit = -1 },
			wantErr: true,
			errMsg:  "rate_limit cannot be negative",
		},
		{
			name:    "zero burst",
			mutate:  func(c *Config) { c.Recovery.Burst = 0 },
			wantErr: true,
			errMsg:  "burst must be at least 1",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
			errMsg:  "invalid log level",
		},
		{
			name:    "file output without max size",
			mutate:  func(c *Config) { c.Logging.MaxSize = 0 },
			wantErr: true,
			errMsg:  "max_size must be positive",
		},
		{
			name: "stdout output ignores rotation",
			mutate: func(c *Config) {
				c.Logging.Output = "stdout"
				c.Logging.MaxSize = 0
			},
		},
		{
			name: "metrics path without slash",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Path = "metrics"
			},
			wantErr: true,
			errMsg:  "metrics path must start with '/'",
		},
		{
			name:    "display format",
			mutate:  func(c *Config) { c.Display.Format = "csv" },
			wantErr: true,
			errMsg:  "display format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				if err != nil {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
