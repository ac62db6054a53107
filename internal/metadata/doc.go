// Package metadata defines the audiobook domain model shared across the
// pipeline: discs, tracks, editable book metadata, and the output filename
// contracts.
//
// The Book type carries the ID3 frame payload renderings (track and disc
// position, series grouping) so the tagging stage never rebuilds them ad hoc.
// Filename helpers own the two naming conventions — "NN - Title.mp3" for
// per-track output and "Album - Disc NN.mp3" for combined discs — including
// filesystem sanitization.
package metadata
