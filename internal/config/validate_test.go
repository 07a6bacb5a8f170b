package config

import (
	"testing"
	"time"

	"github.com/rileyhilliard/esdbtop/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errContains string
	}{
		{
			name:    "defaults are valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "https endpoint",
			mutate:  func(c *Config) { c.Endpoint = "https://node1.example:2113" },
			wantErr: false,
		},
		{
			name:        "future version",
			mutate:      func(c *Config) { c.Version = CurrentConfigVersion + 1 },
			wantErr:     true,
			errContains: "from the future",
		},
		{
			name:        "empty endpoint",
			mutate:      func(c *Config) { c.Endpoint = "" },
			wantErr:     true,
			errContains: "No endpoint",
		},
		{
			name:        "tcp scheme rejected",
			mutate:      func(c *Config) { c.Endpoint = "tcp://localhost:1113" },
			wantErr:     true,
			errContains: "must use http or https",
		},
		{
			name:        "missing host",
			mutate:      func(c *Config) { c.Endpoint = "http://" },
			wantErr:     true,
			errContains: "has no host",
		},
		{
			name:        "zero timeout",
			mutate:      func(c *Config) { c.Timeout = 0 },
			wantErr:     true,
			errContains: "timeout must be positive",
		},
		{
			name:        "negative refresh",
			mutate:      func(c *Config) { c.RefreshInterval = -time.Second },
			wantErr:     true,
			errContains: "must be positive",
		},
		{
			name: "tick not shorter than refresh",
			mutate: func(c *Config) {
				c.TickInterval = 2 * time.Second
				c.RefreshInterval = 2 * time.Second
			},
			wantErr:     true,
			errContains: "must be shorter than",
		},
		{
			name:        "page size zero",
			mutate:      func(c *Config) { c.StreamPageSize = 0 },
			wantErr:     true,
			errContains: "stream_page_size",
		},
		{
			name:        "page size too big",
			mutate:      func(c *Config) { c.StreamPageSize = MaxStreamPageSize + 1 },
			wantErr:     true,
			errContains: "stream_page_size",
		},
		{
			name:    "page size at max",
			mutate:  func(c *Config) { c.StreamPageSize = MaxStreamPageSize },
			wantErr: false,
		},
		{
			name:        "unknown log level",
			mutate:      func(c *Config) { c.Log.Level = "verbose" },
			wantErr:     true,
			errContains: "Unknown log level",
		},
		{
			name:    "log level is case insensitive",
			mutate:  func(c *Config) { c.Log.Level = "DEBUG" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}
