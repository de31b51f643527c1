// Package fixtures prepares the on-disk payloads the simulated news server
// serves to the daemon.
//
// Each suite has a Prepare function that lays out data directories under the
// nserv data dir (random files, 7-Zip volume sets, par2 recovery sets, split
// and deliberately damaged files) and then asks the daemon binary to
// generate the matching NZB files. Preparation is idempotent: a set whose
// NZB (or directory) already exists is left alone so repeated runs reuse the
// expensive large payloads.
package fixtures
