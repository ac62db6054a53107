// Package notifications publishes workflow events to ntfy. Each event class
// is gated by configuration, and an unconfigured topic degrades to a noop
// service so callers never branch on notification availability.
package notifications
