// Package daemonconf renders the daemon's runtime configuration file.
//
// A session owns one work directory. Layout derives every path the daemon
// uses beneath it, Base carries the non-path settings every session shares,
// and Render concatenates the mandatory keys with the caller's override lines
// verbatim and in order. The daemon parses the result with last-wins
// semantics, so an override line naming a mandatory key replaces it.
package daemonconf
