// Package identification reads a loaded audio CD's table of contents and
// resolves book-level metadata before ripping starts.
//
// The handler probes the TOC through ffprobe, reads the disc label, computes
// the FreeDB disc ID, and optionally asks MusicBrainz for release metadata.
// Lookup failures degrade to label-derived metadata; only an unreadable disc
// fails the stage.
package identification
