// Package daemon coordinates the long-running bookrip process and system
// integration points.
//
// It wires configuration, queue storage, the workflow manager, and the udev
// disc monitor into a single lifecycle with flock-based locking to prevent
// multiple instances. The daemon exposes queue maintenance helpers and the
// detection entry point shared by automatic insert events and manual rip
// requests.
package daemon
