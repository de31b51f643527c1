// Package procsup starts external processes and kills them.
//
// Children run in their own process group so a kill also reaches any helper
// they spawned (unpackers, scripts). Stop is forceful: it sends SIGKILL to the
// group and never waits for a graceful shutdown. A reaper goroutine collects
// each child's exit status so killed processes do not linger as zombies.
package procsup
