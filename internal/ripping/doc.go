// Package ripping reads the whole disc into a single staging WAV file via
// ffmpeg's libcdio input. Rip failures are always fatal for the job; a
// partially read disc produces no usable audio downstream.
package ripping
