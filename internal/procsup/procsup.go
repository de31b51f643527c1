//go:build unix

package procsup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"

	"nzbharness/internal/faults"
	"nzbharness/internal/logging"
)

// ErrExecutableNotFound reports a binary path that does not resolve. It is
// always wrapped together with faults.ErrConfiguration.
var ErrExecutableNotFound = errors.New("executable not found")

// Spec describes a process to launch.
type Spec struct {
	Path   string
	Args   []string
	Dir    string
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

// Handle is a running (or exited) child process.
type Handle struct {
	cmd  *exec.Cmd
	name string
	pid  int

	done    chan struct{}
	waitErr error

	killOnce sync.Once
	killErr  error
}

// Supervisor starts and stops child processes, logging each transition.
type Supervisor struct {
	logger *slog.Logger
}

// NewSupervisor constructs a supervisor. A nil logger discards output.
func NewSupervisor(logger *slog.Logger) *Supervisor {
	return &Supervisor{logger: logging.NewComponentLogger(logger, "procsup")}
}

// Start launches the process described by spec and returns without waiting
// for it to become ready.
func (s *Supervisor) Start(ctx context.Context, spec Spec) (*Handle, error) {
	h, err := Start(ctx, spec)
	if err != nil {
		return nil, err
	}
	s.logger.Info("process started",
		logging.String(logging.FieldEventType, "process_started"),
		logging.String("binary", h.name),
		logging.Int(logging.FieldPID, h.pid),
		logging.String("args", strings.Join(spec.Args, " ")),
	)
	return h, nil
}

// Stop kills the process group of h.
func (s *Supervisor) Stop(h *Handle) error {
	if h == nil {
		return nil
	}
	alreadyExited := h.Exited()
	if err := h.Kill(); err != nil {
		s.logger.Warn("process kill failed",
			logging.String(logging.FieldEventType, "process_kill_failed"),
			logging.Int(logging.FieldPID, h.pid),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "kill the process group manually"),
		)
		return err
	}
	if alreadyExited {
		s.logger.Debug("process had already exited", logging.Int(logging.FieldPID, h.pid), logging.Any("exit", h.waitErr))
		return nil
	}
	s.logger.Info("process killed",
		logging.String(logging.FieldEventType, "process_killed"),
		logging.String("binary", h.name),
		logging.Int(logging.FieldPID, h.pid),
	)
	return nil
}

// Start launches a process without a supervisor.
func Start(ctx context.Context, spec Spec) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := strings.TrimSpace(spec.Path)
	if path == "" {
		return nil, faults.Wrap(faults.ErrConfiguration, "procsup", "resolve executable", "executable path is empty", ErrExecutableNotFound)
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "procsup", "resolve executable", path,
			fmt.Errorf("%w: %w", ErrExecutableNotFound, err))
	}

	cmd := exec.Command(resolved, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", path, err)
	}

	h := &Handle{
		cmd:  cmd,
		name: path,
		pid:  cmd.Process.Pid,
		done: make(chan struct{}),
	}
	go h.reap()
	return h, nil
}

func (h *Handle) reap() {
	h.waitErr = h.cmd.Wait()
	close(h.done)
}

// PID returns the operating system process id (also the process group id).
func (h *Handle) PID() int {
	return h.pid
}

// Done is closed once the process has exited and been reaped.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Exited reports whether the process has already terminated.
func (h *Handle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the process exits or ctx is done and returns the exit error.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.waitErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Kill sends SIGKILL to the process group. Repeated calls are no-ops, as is
// killing a process that already exited.
func (h *Handle) Kill() error {
	h.killOnce.Do(func() {
		if h.Exited() {
			return
		}
		err := unix.Kill(-h.pid, unix.SIGKILL)
		if errors.Is(err, unix.ESRCH) {
			return
		}
		if err != nil {
			// group may be gone while the leader lingers; target the leader alone
			if perr := h.cmd.Process.Kill(); perr != nil && !errors.Is(perr, os.ErrProcessDone) {
				h.killErr = fmt.Errorf("kill pid %d: %w", h.pid, err)
			}
		}
	})
	return h.killErr
}
