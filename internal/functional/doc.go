// Package functional groups the suites that drive a real daemon against the
// simulation service. Each sub-package is one suite with its own daemon
// options and fixtures, and only builds with the functional tag:
//
//	go test -tags functional -p 1 -timeout 0 ./internal/functional/...
//
// Suites sharing a configuration share its fixture directory, simulation
// ports and work dir, so each test binary holds a run lock from fixture
// preparation to exit. Without -p 1 the binaries still run one after another
// but a waiting binary's -timeout keeps ticking.
//
// The suites read the same configuration as the nzbharness command
// (NZBHARNESS_CONFIG or ~/.config/nzbharness/config.toml). Run
// "nzbharness check" first to confirm the daemon and archive tools are found.
package functional
