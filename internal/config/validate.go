package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEndpoints(); err != nil {
		return err
	}
	if err := c.validateBudgets(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DaemonBinary == "" {
		return fmt.Errorf("paths.daemon_binary must be set (or export %s)", EnvDaemonBinary)
	}
	if c.Paths.MainDir == "" {
		return errors.New("paths.main_dir must be set")
	}
	if c.Paths.NServDataDir == "" {
		return errors.New("paths.nserv_data_dir must be set")
	}
	if c.Paths.MainDir == c.Paths.NServDataDir {
		return errors.New("paths.main_dir and paths.nserv_data_dir must differ")
	}
	return nil
}

func (c *Config) validateEndpoints() error {
	if c.Control.Port <= 0 || c.Control.Port > 65535 {
		return fmt.Errorf("control.port %d out of range", c.Control.Port)
	}
	if strings.ContainsAny(c.Control.Username, ":@/") {
		return errors.New("control.username must not contain ':', '@' or '/'")
	}
	seen := make(map[int]struct{}, len(c.Servers.Ports))
	for _, port := range c.Servers.Ports {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("servers.ports entry %d out of range", port)
		}
		if port == c.Control.Port {
			return fmt.Errorf("servers.ports entry %d collides with control.port", port)
		}
		if _, ok := seen[port]; ok {
			return fmt.Errorf("servers.ports entry %d listed twice", port)
		}
		seen[port] = struct{}{}
	}
	if c.Servers.Connections <= 0 {
		return errors.New("servers.connections must be positive")
	}
	if c.NServ.Instances <= 0 {
		return errors.New("nserv.instances must be positive")
	}
	if c.NServ.SegmentSize <= 0 {
		return errors.New("nserv.segment_size must be positive")
	}
	return nil
}

func (c *Config) validateBudgets() error {
	if c.Readiness.Attempts <= 0 {
		return errors.New("readiness.attempts must be positive")
	}
	if c.Readiness.IntervalMS < 0 {
		return errors.New("readiness.interval_ms must be non-negative")
	}
	if c.Completion.PollIntervalMS <= 0 {
		return errors.New("completion.poll_interval_ms must be positive")
	}
	if c.Completion.TimeoutSeconds < 0 {
		return errors.New("completion.timeout_seconds must be zero (unbounded) or positive")
	}
	if c.Teardown.RemoveAttempts <= 0 {
		return errors.New("teardown.remove_attempts must be positive")
	}
	if c.Teardown.RemoveBackoffMS < 0 {
		return errors.New("teardown.remove_backoff_ms must be non-negative")
	}
	if c.Fixtures.SampleMediumMB <= 0 || c.Fixtures.SampleLargeMB <= 0 {
		return errors.New("fixtures sample sizes must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not recognised", c.Logging.Level)
	}
	return nil
}
