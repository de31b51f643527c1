package testsupport

import (
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"nzbharness/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Budgets are shrunk so failure paths finish quickly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.SourceDir = filepath.Join(base, "src")
	cfgVal.Paths.TestDataDir = filepath.Join(base, "src", "tests", "testdata")
	cfgVal.Paths.MainDir = filepath.Join(base, "nzbget.temp")
	cfgVal.Paths.NServDataDir = filepath.Join(base, "nserv.temp")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.LedgerPath = filepath.Join(base, "logs", "ledger.db")
	cfgVal.Readiness.IntervalMS = 10
	cfgVal.Completion.PollIntervalMS = 5
	cfgVal.Teardown.RemoveBackoffMS = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithControlURL points the control endpoint at rawURL (typically an
// httptest server).
func WithControlURL(rawURL string) ConfigOption {
	return func(b *configBuilder) {
		u, err := url.Parse(rawURL)
		if err != nil {
			b.t.Fatalf("parse control url: %v", err)
		}
		host, portText, err := net.SplitHostPort(u.Host)
		if err != nil {
			b.t.Fatalf("split control host: %v", err)
		}
		port, err := strconv.Atoi(portText)
		if err != nil {
			b.t.Fatalf("control port: %v", err)
		}
		b.cfg.Control.Host = host
		b.cfg.Control.Port = port
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the daemon and archive tools are
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"nzbget", "7z", "par2"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		for _, name := range names {
			WriteScript(b.t, filepath.Join(binDir, name), "exit 0")
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// WithDaemonScript installs an executable shell script as the daemon binary.
func WithDaemonScript(body string) ConfigOption {
	return func(b *configBuilder) {
		target := filepath.Join(b.baseDir, "bin", "nzbget-daemon")
		WriteScript(b.t, target, body)
		b.cfg.Paths.DaemonBinary = target
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.MainDir)
}
