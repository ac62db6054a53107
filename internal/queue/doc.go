// Package queue persists rip jobs in SQLite and exposes helpers for driving
// their lifecycle.
//
// The Store manages database connections, schema initialization, status
// queries, stuck-job recovery, and the transitions that mirror the workflow
// enum. Jobs capture progress, the disc table of contents, book metadata, and
// encode results so stages can coordinate without additional state.
//
// The database is transient storage for in-flight jobs rather than a long-term
// archive. Schema changes bump the version in schema.go; users clear the
// database to adopt the new schema.
package queue
