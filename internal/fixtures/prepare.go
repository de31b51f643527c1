package fixtures

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"nzbharness/internal/config"
	"nzbharness/internal/faults"
	"nzbharness/internal/logging"
)

// Suite names a group of functional tests sharing one fixture set.
type Suite string

const (
	SuiteDownload Suite = "download"
	SuiteUnpack   Suite = "unpack"
	SuiteRename   Suite = "rename"
)

// Suites lists every suite with a fixture set, in preparation order.
func Suites() []Suite {
	return []Suite{SuiteDownload, SuiteUnpack, SuiteRename}
}

// ParseSuite resolves a suite name.
func ParseSuite(name string) (Suite, error) {
	for _, s := range Suites() {
		if strings.EqualFold(name, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown fixture suite %q", name)
}

const (
	archivePartMB = 50
	largeSegment  = 500000
	mediumSegment = 100000
	smallSegment  = 500
)

// CorruptBytes is what the damaged unpack sets get overwritten with at
// CorruptOffset of their first volume.
var CorruptBytes = []byte{0x0a, 0x1b, 0x2c}

// CorruptOffset is the byte offset the damage is written at.
const CorruptOffset = 100000

// Preparer lays out suite fixtures under the nserv data dir.
type Preparer struct {
	tools       *Tools
	dataDir     string
	testDataDir string
	sourceDir   string
	segmentSize int
	mediumMB    int
	largeMB     int
	logger      *slog.Logger
}

// NewPreparer builds a Preparer from the harness config.
func NewPreparer(cfg *config.Config, logger *slog.Logger, opts ...Option) *Preparer {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldComponent, "fixtures"))
	return &Preparer{
		tools:       NewTools(cfg, logger, opts...),
		dataDir:     cfg.Paths.NServDataDir,
		testDataDir: cfg.Paths.TestDataDir,
		sourceDir:   cfg.Paths.SourceDir,
		segmentSize: cfg.NServ.SegmentSize,
		mediumMB:    cfg.Fixtures.SampleMediumMB,
		largeMB:     cfg.Fixtures.SampleLargeMB,
		logger:      logger,
	}
}

// DataDir returns the directory fixtures are written to.
func (p *Preparer) DataDir() string {
	return p.dataDir
}

// Prepare builds the fixture set for suite.
func (p *Preparer) Prepare(ctx context.Context, suite Suite) error {
	p.logger.Info("preparing test data", logging.String("suite", string(suite)))
	if err := os.MkdirAll(p.dataDir, 0o755); err != nil {
		return faults.Wrap(faults.ErrConfiguration, "fixtures", string(suite), "create nserv data dir", err)
	}

	var err error
	switch suite {
	case SuiteDownload:
		err = p.PrepareDownload(ctx)
	case SuiteUnpack:
		err = p.PrepareUnpack(ctx)
	case SuiteRename:
		err = p.PrepareRename(ctx)
	default:
		return fmt.Errorf("unknown fixture suite %q", suite)
	}
	if err != nil {
		return faults.Wrap(nil, "fixtures", string(suite), "test file generation failed", err)
	}
	return nil
}

// PrepareAll prepares every suite in order.
func (p *Preparer) PrepareAll(ctx context.Context) error {
	for _, suite := range Suites() {
		if err := p.Prepare(ctx, suite); err != nil {
			return err
		}
	}
	return nil
}

// PrepareDownload builds medium and large 7-Zip volume sets plus the small
// plain and obfuscated single-file sets.
func (p *Preparer) PrepareDownload(ctx context.Context) error {
	if !p.hasNZB("medium") {
		if err := p.tools.CreateTestFile(ctx, p.path("medium"), p.mediumMB, archivePartMB, true); err != nil {
			return err
		}
	}
	if !p.hasNZB("large") {
		if err := p.tools.CreateTestFile(ctx, p.path("large"), p.largeMB, archivePartMB, true); err != nil {
			return err
		}
	}
	if !p.hasNZB("medium") || !p.hasNZB("large") {
		if err := p.tools.GenerateNZBs(ctx, p.dataDir, largeSegment); err != nil {
			return err
		}
	}

	if !p.hasNZB("small") {
		if err := CopyAll(p.sourceDir, p.path("small"), []Copy{{From: "COPYING", To: "small.dat"}}); err != nil {
			return err
		}
	}
	if !p.hasNZB("small-obfuscated") {
		if err := CopyAll(p.sourceDir, p.path("small-obfuscated"), []Copy{{From: "COPYING", To: "fsdkhKHGuwuMNBKskd"}}); err != nil {
			return err
		}
	}
	return p.tools.GenerateNZBs(ctx, p.dataDir, p.segmentSize)
}

// PrepareUnpack builds three 3MB volume sets whose first volume is damaged:
// one repairable (par2 created before the damage), one with par2 covering
// the damage, and one without par2.
func (p *Preparer) PrepareUnpack(ctx context.Context) error {
	sets := []struct {
		name       string
		parBefore  bool
		parAfter   bool
		par2Target string
	}{
		{name: "unpack-damaged", parBefore: true, par2Target: "unpackcrc-damaged.par2"},
		{name: "unpackcrc-par", parAfter: true, par2Target: "unpackcrc-par.par2"},
		{name: "unpackcrc-nopar"},
	}
	for _, set := range sets {
		if p.hasNZB(set.name) {
			continue
		}
		dir := p.path(set.name)
		if err := p.tools.CreateTestFile(ctx, dir, 3, 1, true); err != nil {
			return err
		}
		if set.parBefore {
			if err := p.tools.Par2Create(ctx, dir, set.par2Target, 100); err != nil {
				return err
			}
		}
		if err := CorruptAt(filepath.Join(dir, "3mb.7z.001"), CorruptOffset, CorruptBytes); err != nil {
			return err
		}
		if set.parAfter {
			if err := p.tools.Par2Create(ctx, dir, set.par2Target, 100); err != nil {
				return err
			}
		}
	}
	return p.tools.GenerateNZBs(ctx, p.dataDir, p.segmentSize)
}

func (p *Preparer) path(name string) string {
	return filepath.Join(p.dataDir, name)
}

func (p *Preparer) hasNZB(name string) bool {
	return exists(p.path(name + ".nzb"))
}

func (p *Preparer) hasDir(name string) bool {
	return exists(p.path(name))
}
