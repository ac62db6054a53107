// Package ffmpeg wraps ffmpeg and ffprobe subprocess interactions for audio
// CD work: probing the disc table of contents through libcdio, ripping the
// disc to PCM WAV, and encoding WAV sources to MP3 with libmp3lame.
//
// Commands run through an injectable Executor so stages can be tested without
// the binaries installed. Progress is parsed from ffmpeg's stderr status line
// during rips and from -progress key=value output during encodes.
package ffmpeg
