package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete .esdbtop.yaml configuration file.
type Config struct {
	Version int `yaml:"version" mapstructure:"version"`

	// Endpoint is the HTTP(S) address of any cluster node, e.g. http://localhost:2113.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`

	// Username and Password are sent as basic auth when Username is set.
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`

	// InsecureSkipVerify disables TLS certificate verification (dev clusters).
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`

	// Timeout bounds every individual call to the node.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// TickInterval is the repaint cadence of the dashboard.
	TickInterval time.Duration `yaml:"tick_interval" mapstructure:"tick_interval"`

	// RefreshInterval is how often the active tab re-fetches its data.
	RefreshInterval time.Duration `yaml:"refresh_interval" mapstructure:"refresh_interval"`

	// StreamPageSize is how many events the stream browser reads per page.
	StreamPageSize int `yaml:"stream_page_size" mapstructure:"stream_page_size"`

	Log LogConfig `yaml:"log" mapstructure:"log"`
}

// LogConfig controls where diagnostic logs go while the dashboard owns the terminal.
type LogConfig struct {
	// File is the path of the log file. Relative paths resolve against the working directory.
	File string `yaml:"file" mapstructure:"file"`

	// Level is one of "debug", "info", "warn", or "error".
	Level string `yaml:"level" mapstructure:"level"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:         CurrentConfigVersion,
		Endpoint:        "http://localhost:2113",
		Timeout:         5 * time.Second,
		TickInterval:    250 * time.Millisecond,
		RefreshInterval: 2 * time.Second,
		StreamPageSize:  20,
		Log: LogConfig{
			File:  "esdbtop.log",
			Level: "info",
		},
	}
}
