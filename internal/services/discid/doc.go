// Package discid shells out to cd-discid to compute the FreeDB identifier of
// a loaded audio CD. Every failure wraps services.ErrDiscIDUnavailable: the
// identifier feeds metadata lookup only, and its absence never blocks a rip.
package discid
