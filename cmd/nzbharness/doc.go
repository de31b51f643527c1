// Package main hosts the nzbharness CLI.
//
// The functional suites run through go test; this command covers everything
// around them: checking that the daemon and archive tools are found,
// building fixtures ahead of a run, starting an ad-hoc session for manual
// poking (optionally held open until interrupted), inspecting a running
// daemon's queue and history, saving job logs, and browsing the run ledger.
package main
