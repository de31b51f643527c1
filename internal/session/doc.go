// Package session owns one daemon instance for the duration of a test.
//
// Start writes the daemon configuration into a freshly cleared work
// directory, launches the daemon, and blocks until its control endpoint
// answers. Close tears it down again: the daemon is killed and the work
// directory is removed unless some test in the process failed, in which case
// it is kept for inspection. Simulation manages the companion simulated news
// server, which is shared by every session in the process.
package session
