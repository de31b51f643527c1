// Package config loads, normalizes, and validates nzbharness configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the NZBHARNESS_* environment
// overrides that mirror the options a developer typically passes per run
// (daemon binary, data directories, archive tools, hold mode). The Config
// type centralizes every knob the session layer, fixture preparation and the
// CLI need.
//
// Always obtain settings through this package so downstream code receives
// absolute paths and clear validation errors.
package config
