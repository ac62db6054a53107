// Package config loads, normalizes, and validates bookrip configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and validates the rip settings the pipeline
// depends on (bitrate bounds, output mode, worker counts). The Config type
// centralizes every knob the daemon and CLI need so output, staging, and log
// directories are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
