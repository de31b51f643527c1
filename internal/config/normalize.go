package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Environment variables that take precedence over the config file.
const (
	EnvDaemonBinary   = "NZBHARNESS_DAEMON_BIN"
	EnvNServDataDir   = "NZBHARNESS_NSERV_DATADIR"
	EnvMainDir        = "NZBHARNESS_MAINDIR"
	EnvSevenZipBinary = "NZBHARNESS_SEVENZIP_BIN"
	EnvPar2Binary     = "NZBHARNESS_PAR2_BIN"
	EnvHold           = "NZBHARNESS_HOLD"

	// EnvConfigPath selects the config file when no path is given.
	EnvConfigPath = "NZBHARNESS_CONFIG"
)

func (c *Config) normalize() error {
	if err := c.applyEnv(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeControl()
	c.normalizeServers()
	c.normalizeLogging()
	return nil
}

func (c *Config) applyEnv() error {
	overrides := []struct {
		name  string
		field *string
	}{
		{EnvDaemonBinary, &c.Paths.DaemonBinary},
		{EnvNServDataDir, &c.Paths.NServDataDir},
		{EnvMainDir, &c.Paths.MainDir},
		{EnvSevenZipBinary, &c.Paths.SevenZipBinary},
		{EnvPar2Binary, &c.Paths.Par2Binary},
	}
	for _, o := range overrides {
		if value, ok := os.LookupEnv(o.name); ok && strings.TrimSpace(value) != "" {
			*o.field = strings.TrimSpace(value)
		}
	}
	if value, ok := os.LookupEnv(EnvHold); ok && strings.TrimSpace(value) != "" {
		hold, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHold, err)
		}
		c.Teardown.Hold = hold
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DaemonBinary, err = expandBinary(c.Paths.DaemonBinary); err != nil {
		return fmt.Errorf("paths.daemon_binary: %w", err)
	}
	if c.Paths.SevenZipBinary, err = expandBinary(c.Paths.SevenZipBinary); err != nil {
		return fmt.Errorf("paths.sevenzip_binary: %w", err)
	}
	if c.Paths.Par2Binary, err = expandBinary(c.Paths.Par2Binary); err != nil {
		return fmt.Errorf("paths.par2_binary: %w", err)
	}

	if strings.TrimSpace(c.Paths.SourceDir) == "" && filepath.IsAbs(c.Paths.DaemonBinary) {
		c.Paths.SourceDir = filepath.Dir(c.Paths.DaemonBinary)
	}
	if c.Paths.SourceDir, err = expandPath(c.Paths.SourceDir); err != nil {
		return fmt.Errorf("paths.source_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.TestDataDir) == "" && c.Paths.SourceDir != "" {
		c.Paths.TestDataDir = filepath.Join(c.Paths.SourceDir, "tests", "testdata")
	}
	if c.Paths.TestDataDir, err = expandPath(c.Paths.TestDataDir); err != nil {
		return fmt.Errorf("paths.testdata_dir: %w", err)
	}
	if c.Paths.MainDir, err = expandPath(c.Paths.MainDir); err != nil {
		return fmt.Errorf("paths.main_dir: %w", err)
	}
	if c.Paths.NServDataDir, err = expandPath(c.Paths.NServDataDir); err != nil {
		return fmt.Errorf("paths.nserv_data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LedgerPath) == "" && c.Paths.LogDir != "" {
		c.Paths.LedgerPath = filepath.Join(c.Paths.LogDir, "ledger.db")
	}
	if c.Paths.LedgerPath, err = expandPath(c.Paths.LedgerPath); err != nil {
		return fmt.Errorf("paths.ledger_path: %w", err)
	}
	return nil
}

// expandBinary leaves bare command names for a PATH lookup and expands
// anything that looks like a filesystem path.
func expandBinary(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" || !strings.ContainsAny(value, `/\`) && !strings.HasPrefix(value, "~") {
		return value, nil
	}
	return expandPath(value)
}

func (c *Config) normalizeControl() {
	c.Control.Host = strings.TrimSpace(c.Control.Host)
	if c.Control.Host == "" {
		c.Control.Host = defaultControlHost
	}
	if c.Control.Port == 0 {
		c.Control.Port = defaultControlPort
	}
}

func (c *Config) normalizeServers() {
	c.Servers.Host = strings.TrimSpace(c.Servers.Host)
	if c.Servers.Host == "" {
		c.Servers.Host = defaultServerHost
	}
	if len(c.Servers.Ports) == 0 {
		c.Servers.Ports = append([]int(nil), defaultServerPorts...)
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
