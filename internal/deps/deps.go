// Package deps verifies that the external binaries a run needs are present.
package deps

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"nzbharness/internal/config"
	"nzbharness/internal/faults"
)

// Requirement defines an external binary the harness relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	// Option is the config key that overrides Command; Env the matching variable.
	Option   string
	Env      string
	Optional bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Option      string
	Env         string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
}

// HarnessRequirements lists the binaries every functional run needs.
func HarnessRequirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "nzbget",
			Command:     cfg.Paths.DaemonBinary,
			Description: "download daemon under test and simulation service",
			Option:      "paths.daemon_binary",
			Env:         config.EnvDaemonBinary,
		},
		{
			Name:        "7-Zip",
			Command:     cfg.Paths.SevenZipBinary,
			Description: "archive tool used to build unpack fixtures",
			Option:      "paths.sevenzip_binary",
			Env:         config.EnvSevenZipBinary,
		},
		{
			Name:        "par2",
			Command:     cfg.Paths.Par2Binary,
			Description: "redundancy tool used to build repair fixtures",
			Option:      "paths.par2_binary",
			Env:         config.EnvPar2Binary,
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
// Bare names are looked up in PATH; anything else must exist as given.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Option:      req.Option,
			Env:         req.Env,
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = resolved
		results = append(results, status)
	}
	return results
}

// Verify checks the harness requirements and returns a configuration error
// naming every missing binary and how to point the harness at it.
func Verify(cfg *config.Config) ([]Status, error) {
	statuses := CheckBinaries(HarnessRequirements(cfg))
	var errs []error
	for _, status := range statuses {
		if status.Available || status.Optional {
			continue
		}
		errs = append(errs, fmt.Errorf("could not find %s binary at %q; set %s or %s",
			status.Name, status.Command, status.Option, status.Env))
	}
	if len(errs) > 0 {
		return statuses, faults.Wrap(faults.ErrConfiguration, "deps", "verify binaries", "", errors.Join(errs...))
	}
	return statuses, nil
}
