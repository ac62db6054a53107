// Package musicbrainz queries the MusicBrainz web service to resolve disc
// identifiers and release searches into book-level metadata. Lookup failures
// wrap services.ErrMetadataLookup so callers can treat them as degradations
// rather than pipeline errors.
package musicbrainz
