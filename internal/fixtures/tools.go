package fixtures

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"nzbharness/internal/config"
	"nzbharness/internal/logging"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, dir, binary string, args ...string) error
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, dir, binary string, args ...string) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = dir
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(output.String())
		if len(detail) > 512 {
			detail = detail[len(detail)-512:]
		}
		if detail == "" {
			return fmt.Errorf("%s: %w", filepath.Base(binary), err)
		}
		return fmt.Errorf("%s: %w: %s", filepath.Base(binary), err, detail)
	}
	return nil
}

// Option configures Tools.
type Option func(*Tools)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(t *Tools) {
		if exec != nil {
			t.exec = exec
		}
	}
}

// Tools wraps the external programs used to build fixtures: 7-Zip, par2 and
// the daemon's NZB generator.
type Tools struct {
	SevenZip string
	Par2     string
	Daemon   string

	exec   Executor
	logger *slog.Logger
}

// NewTools binds the binaries configured in cfg.
func NewTools(cfg *config.Config, logger *slog.Logger, opts ...Option) *Tools {
	if logger == nil {
		logger = logging.NewNop()
	}
	tools := &Tools{
		SevenZip: cfg.Paths.SevenZipBinary,
		Par2:     cfg.Paths.Par2Binary,
		Daemon:   cfg.Paths.DaemonBinary,
		exec:     commandExecutor{},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(tools)
	}
	return tools
}

// CreateTestFile writes <dir>/<sizeMB>mb.dat of random data. When archive is
// set the file is packed into store-only 7-Zip volumes of partMB each
// (<sizeMB>mb.7z.001, ...) and the raw file is removed.
func (t *Tools) CreateTestFile(ctx context.Context, dir string, sizeMB, partMB int, archive bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	base := strconv.Itoa(sizeMB) + "mb"
	dat := filepath.Join(dir, base+".dat")
	t.logger.Info("preparing test file",
		logging.String("path", dat),
		logging.Int("size_mb", sizeMB),
	)
	if err := WriteRandom(dat, sizeMB, partMB); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(dat), err)
	}
	if !archive {
		return nil
	}
	args := []string{"a", filepath.Join(dir, base+".7z"), "-mx=0", "-v" + strconv.Itoa(partMB) + "m", dat}
	if err := t.exec.Run(ctx, dir, t.SevenZip, args...); err != nil {
		return fmt.Errorf("archive %s: %w", base, err)
	}
	return os.Remove(dat)
}

// Par2Create builds a par2 set named name inside dir covering every file
// currently in dir, with the given block count.
func (t *Tools) Par2Create(ctx context.Context, dir, name string, blocks int) error {
	files, err := regularFiles(dir)
	if err != nil {
		return err
	}
	args := append([]string{"c", "-b" + strconv.Itoa(blocks), name}, files...)
	t.logger.Debug("creating par2 set",
		logging.String("dir", dir),
		logging.String("name", name),
		logging.Int("files", len(files)),
	)
	if err := t.exec.Run(ctx, dir, t.Par2, args...); err != nil {
		return fmt.Errorf("par2 %s: %w", name, err)
	}
	return nil
}

// GenerateNZBs asks the daemon's simulation mode to write an NZB for every
// data directory under dataDir, using segmentSize byte articles.
func (t *Tools) GenerateNZBs(ctx context.Context, dataDir string, segmentSize int) error {
	t.logger.Info("generating nzb files",
		logging.String("nserv_data_dir", dataDir),
		logging.Int("segment_size", segmentSize),
	)
	args := GenerateArgs(dataDir, segmentSize)
	if err := t.exec.Run(ctx, dataDir, t.Daemon, args...); err != nil {
		return fmt.Errorf("generate nzbs: %w", err)
	}
	return nil
}

// GenerateArgs returns the daemon arguments that generate NZB files and quit.
func GenerateArgs(dataDir string, segmentSize int) []string {
	return []string{"--nserv", "-d", dataDir, "-v", "2", "-z", strconv.Itoa(segmentSize), "-q"}
}

func regularFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
