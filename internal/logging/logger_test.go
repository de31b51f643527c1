package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"nzbharness/internal/config"
	"nzbharness/internal/logging"
)

func newFileLogger(t *testing.T, opts logging.Options) (*slog.Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.log")
	opts.Outputs = []string{path}
	logger, err := logging.New(opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return logger, path
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return string(content)
}

func TestNewFromConfigWritesHarnessLog(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("daemon started", logging.Int(logging.FieldPID, 42))

	content := readLog(t, filepath.Join(cfg.Paths.LogDir, logging.HarnessLogName))
	if !strings.Contains(content, "daemon started") || !strings.Contains(content, "pid=42") {
		t.Fatalf("unexpected log content %q", content)
	}
}

func TestConsoleLineLayout(t *testing.T) {
	logger, path := newFileLogger(t, logging.Options{Format: "console"})

	logger = logging.WithSessionID(logging.NewComponentLogger(logger, "teardown"), "1a2b3c4d-5e6f")
	logger.Info("work dir kept", logging.String(logging.FieldWorkDir, "/tmp/x y"))

	line := readLog(t, path)
	pattern := regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{3} INFO  \[1a2b3c4d\] teardown: work dir kept work_dir="/tmp/x y"\n$`)
	if !pattern.MatchString(line) {
		t.Fatalf("unexpected console line %q", line)
	}
}

func TestConsoleOmitsSourceAboveDebug(t *testing.T) {
	logger, path := newFileLogger(t, logging.Options{Level: "info"})
	logger.Info("message without caller")
	logger.Debug("suppressed")

	content := readLog(t, path)
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
	if strings.Contains(content, "suppressed") {
		t.Fatalf("debug record leaked at info level: %q", content)
	}
}

func TestConsoleFlattensGroups(t *testing.T) {
	logger, path := newFileLogger(t, logging.Options{})
	logger.WithGroup("job").Info("polled", logging.Int("polls", 3), logging.Duration("elapsed", 1500*time.Millisecond))

	content := readLog(t, path)
	for _, want := range []string{"job.polls=3", "job.elapsed=1.5s"} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
}

func TestJSONRecordShape(t *testing.T) {
	logger, path := newFileLogger(t, logging.Options{Format: "json", Level: "debug"})

	logging.WithSessionID(logger, "abc-123").Debug("polling",
		logging.Int("polls", 3),
		logging.Duration("elapsed", 250*time.Millisecond),
	)

	var record map[string]any
	if err := json.Unmarshal([]byte(readLog(t, path)), &record); err != nil {
		t.Fatalf("decode json record: %v", err)
	}
	if record["level"] != "debug" || record["msg"] != "polling" {
		t.Fatalf("unexpected record %v", record)
	}
	if record[logging.FieldSessionID] != "abc-123" {
		t.Fatalf("expected session id in %v", record)
	}
	if record["elapsed_ms"] != float64(250) {
		t.Fatalf("expected elapsed_ms=250 in %v", record)
	}
	if _, ok := record["source"].(string); !ok {
		t.Fatalf("expected source at debug level in %v", record)
	}
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if _, err := logging.New(logging.Options{Level: "loud"}); err == nil {
		t.Fatal("expected error for unsupported level")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logger, path := newFileLogger(t, logging.Options{})
	logging.WarnWithContext(logger, "remove failed", "workdir_remove_retry",
		logging.Error(errors.New("busy")),
		logging.String(logging.FieldImpact, "work dir left behind"),
	)

	content := readLog(t, path)
	for _, want := range []string{"event_type=workdir_remove_retry", "error_hint=", `impact="work dir left behind"`, "error=busy"} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
	if strings.Count(content, "impact=") != 1 {
		t.Fatalf("impact should not be duplicated: %q", content)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should not be enabled")
	}
	if logging.NewComponentLogger(nil, "x").Enabled(context.Background(), slog.LevelError) {
		t.Fatal("component logger over nil should discard")
	}
}
