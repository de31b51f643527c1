package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains binary and directory locations.
type Paths struct {
	DaemonBinary   string `toml:"daemon_binary"`
	SourceDir      string `toml:"source_dir"`
	MainDir        string `toml:"main_dir"`
	NServDataDir   string `toml:"nserv_data_dir"`
	TestDataDir    string `toml:"testdata_dir"`
	SevenZipBinary string `toml:"sevenzip_binary"`
	Par2Binary     string `toml:"par2_binary"`
	LogDir         string `toml:"log_dir"`
	LedgerPath     string `toml:"ledger_path"`
}

// Control describes the daemon's remote-control endpoint.
type Control struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Servers describes the simulated news servers the daemon is pointed at.
type Servers struct {
	Host        string `toml:"host"`
	Ports       []int  `toml:"ports"`
	Connections int    `toml:"connections"`
}

// NServ contains simulation service flags.
type NServ struct {
	Verbosity   int `toml:"verbosity"`
	Instances   int `toml:"instances"`
	SegmentSize int `toml:"segment_size"`
}

// Readiness bounds the startup probe.
type Readiness struct {
	Attempts   int `toml:"attempts"`
	IntervalMS int `toml:"interval_ms"`
}

// Completion controls the job completion poll. TimeoutSeconds of zero leaves
// the poll unbounded.
type Completion struct {
	PollIntervalMS int `toml:"poll_interval_ms"`
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Teardown controls work directory removal and hold mode.
type Teardown struct {
	RemoveAttempts  int  `toml:"remove_attempts"`
	RemoveBackoffMS int  `toml:"remove_backoff_ms"`
	Hold            bool `toml:"hold"`
}

// Fixtures sizes the large synthetic downloads.
type Fixtures struct {
	SampleMediumMB int `toml:"sample_medium_mb"`
	SampleLargeMB  int `toml:"sample_large_mb"`
}

// Logging contains configuration for harness log output.
type Logging struct {
	Format          string `toml:"format"`
	Level           string `toml:"level"`
	FollowDaemonLog bool   `toml:"follow_daemon_log"`
}

// Config encapsulates all configuration values for nzbharness.
//
// Configuration sections by subsystem:
//   - Paths: daemon binary, data directories, archive tools, ledger
//   - Control: remote-control endpoint the daemon listens on
//   - Servers: simulated news servers written into the daemon config
//   - NServ: simulation service flags
//   - Readiness, Completion, Teardown: retry budgets and poll intervals
//   - Fixtures: synthetic download sizes
//   - Logging: log format, level, daemon log mirroring
type Config struct {
	Paths      Paths      `toml:"paths"`
	Control    Control    `toml:"control"`
	Servers    Servers    `toml:"servers"`
	NServ      NServ      `toml:"nserv"`
	Readiness  Readiness  `toml:"readiness"`
	Completion Completion `toml:"completion"`
	Teardown   Teardown   `toml:"teardown"`
	Fixtures   Fixtures   `toml:"fixtures"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/nzbharness/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfigPath))
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("nzbharness.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the harness writes into. The main
// directory is owned by sessions and is created per session instead.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.NServDataDir, filepath.Dir(c.Paths.MainDir)} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ControlAddress returns host:port of the daemon control endpoint.
func (c *Config) ControlAddress() string {
	return net.JoinHostPort(c.Control.Host, strconv.Itoa(c.Control.Port))
}

// ControlURL returns the JSON-RPC endpoint with embedded credentials.
func (c *Config) ControlURL() string {
	u := url.URL{
		Scheme: "http",
		Host:   c.ControlAddress(),
		Path:   "/jsonrpc",
	}
	if c.Control.Username != "" || c.Control.Password != "" {
		u.User = url.UserPassword(c.Control.Username, c.Control.Password)
	}
	return u.String()
}

// ReadinessInterval is the sleep between startup probes.
func (c *Config) ReadinessInterval() time.Duration {
	return time.Duration(c.Readiness.IntervalMS) * time.Millisecond
}

// PollInterval is the sleep between history polls.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Completion.PollIntervalMS) * time.Millisecond
}

// CompletionTimeout returns zero when the completion poll is unbounded.
func (c *Config) CompletionTimeout() time.Duration {
	return time.Duration(c.Completion.TimeoutSeconds) * time.Second
}

// RemoveBackoff is the sleep between work directory removal attempts.
func (c *Config) RemoveBackoff() time.Duration {
	return time.Duration(c.Teardown.RemoveBackoffMS) * time.Millisecond
}

// WebDir is the daemon's web asset directory inside the source tree.
func (c *Config) WebDir() string {
	return filepath.Join(c.Paths.SourceDir, "webui")
}

// ConfigTemplate is the daemon's stock configuration file inside the source tree.
func (c *Config) ConfigTemplate() string {
	return filepath.Join(c.Paths.SourceDir, "nzbget.conf")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
