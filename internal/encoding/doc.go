// Package encoding turns the staged rip into the item's final MP3 files.
//
// Combined mode produces one file per disc; split mode first cuts the rip
// into per-track WAV segments, then encodes them through a bounded worker
// pool. Split-mode failures are per-track: good tracks are kept and failed
// ones recorded on the item, and only a fully failed encode fails the stage.
package encoding
