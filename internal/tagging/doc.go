// Package tagging writes ID3v2 metadata onto the encoded MP3 outputs. It is
// the final pipeline stage before a job completes.
package tagging
