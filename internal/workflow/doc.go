// Package workflow advances rip jobs through the configured pipeline stages.
//
// The Manager polls the queue and feeds jobs into registered stage handlers
// (identifier, ripper, encoder, tagger) while capturing progress and failure
// metadata. Interrupted jobs are rolled back to their stage start on restart,
// and a user cancellation takes precedence over a failure outcome.
package workflow
