package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rileyhilliard/esdbtop/internal/errors"
)

// MaxStreamPageSize caps how many events a single stream read may request.
const MaxStreamPageSize = 4096

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but esdbtop only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade esdbtop or lower the version field")
	}

	if err := validateEndpoint(cfg.Endpoint); err != nil {
		return err
	}

	if cfg.Timeout <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("timeout must be positive, got %s", cfg.Timeout),
			"Use a duration like 5s")
	}

	if cfg.TickInterval <= 0 || cfg.RefreshInterval <= 0 {
		return errors.New(errors.ErrConfig,
			"tick_interval and refresh_interval must be positive",
			"Defaults are 250ms and 2s")
	}

	if cfg.TickInterval >= cfg.RefreshInterval {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("tick_interval (%s) must be shorter than refresh_interval (%s)", cfg.TickInterval, cfg.RefreshInterval),
			"Repaints need to happen more often than data refreshes")
	}

	if cfg.StreamPageSize < 1 || cfg.StreamPageSize > MaxStreamPageSize {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("stream_page_size must be between 1 and %d, got %d", MaxStreamPageSize, cfg.StreamPageSize),
			"The default is 20")
	}

	if cfg.Log.Level != "" && !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown log level '%s'", cfg.Log.Level),
			"Use one of: debug, info, warn, error")
	}

	return nil
}

func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return errors.New(errors.ErrConfig,
			"No endpoint configured",
			"Pass --endpoint http://host:2113 or set 'endpoint' in .esdbtop.yaml")
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Endpoint '%s' is not a valid URL", endpoint),
			"Use the form http://host:2113")
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Endpoint '%s' must use http or https", endpoint),
			"esdbtop talks to the node's HTTP API, e.g. https://node1:2113")
	}

	if u.Host == "" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Endpoint '%s' has no host", endpoint),
			"Use the form http://host:2113")
	}

	return nil
}
