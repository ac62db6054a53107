// Package main hosts the bookrip CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into IPC calls
// against the daemon, plus queue maintenance, drive inspection, and
// configuration scaffolding. Queue commands fall back to direct database
// access when the daemon is offline.
package main
