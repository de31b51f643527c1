package session

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"nzbharness/internal/config"
	"nzbharness/internal/faults"
	"nzbharness/internal/logging"
	"nzbharness/internal/procsup"
)

// Simulation is a running simulated news server.
type Simulation struct {
	DataDir    string
	handle     *procsup.Handle
	supervisor *procsup.Supervisor
	logger     *slog.Logger
}

// SimulationArgs returns the daemon arguments that serve dataDir.
func SimulationArgs(dataDir string, verbosity, instances int) []string {
	return []string{"--nserv", "-d", dataDir, "-v", strconv.Itoa(verbosity), "-i", strconv.Itoa(instances)}
}

// StartSimulation launches a simulation service serving the configured data
// dir. Most callers want Shared.
func StartSimulation(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Simulation, error) {
	logger = logging.NewComponentLogger(logger, "nserv")
	dataDir := cfg.Paths.NServDataDir
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "nserv", "prepare", "create data dir", err)
	}
	supervisor := procsup.NewSupervisor(logger)
	handle, err := supervisor.Start(ctx, procsup.Spec{
		Path: cfg.Paths.DaemonBinary,
		Args: SimulationArgs(dataDir, cfg.NServ.Verbosity, cfg.NServ.Instances),
		Dir:  dataDir,
	})
	if err != nil {
		return nil, err
	}
	return &Simulation{DataDir: dataDir, handle: handle, supervisor: supervisor, logger: logger}, nil
}

// PID returns the simulation process id.
func (s *Simulation) PID() int {
	return s.handle.PID()
}

// Exited reports whether the process has gone away.
func (s *Simulation) Exited() bool {
	return s.handle.Exited()
}

// Stop kills the simulation. It is safe to call more than once.
func (s *Simulation) Stop() error {
	if s == nil {
		return nil
	}
	return s.supervisor.Stop(s.handle)
}

var shared struct {
	once sync.Once
	mu   sync.Mutex
	sim  *Simulation
	err  error
}

// Shared starts the process-wide simulation on first use and returns it on
// every later call, whatever cfg those calls pass.
func Shared(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Simulation, error) {
	shared.once.Do(func() {
		sim, err := StartSimulation(ctx, cfg, logger)
		shared.mu.Lock()
		shared.sim, shared.err = sim, err
		shared.mu.Unlock()
	})
	shared.mu.Lock()
	defer shared.mu.Unlock()
	return shared.sim, shared.err
}

// StopShared kills the process-wide simulation if it was started. It runs at
// the end of the test binary regardless of test outcomes.
func StopShared() error {
	shared.mu.Lock()
	sim := shared.sim
	shared.mu.Unlock()
	return sim.Stop()
}
