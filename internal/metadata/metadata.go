package metadata

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Drive describes an optical drive on the host.
type Drive struct {
	Device string `json:"device"`
	Model  string `json:"model"`
	Ready  bool   `json:"ready"`
}

// Track is a single audio track on a disc.
type Track struct {
	Number  int           `json:"number"`
	Title   string        `json:"title"`
	Start   time.Duration `json:"start"`
	End     time.Duration `json:"end"`
}

// Duration returns the track length.
func (t Track) Duration() time.Duration {
	if t.End <= t.Start {
		return 0
	}
	return t.End - t.Start
}

// Disc represents an inserted audiobook CD.
type Disc struct {
	Device string `json:"device"`
	Label  string `json:"label"`
	DiscID string `json:"disc_id,omitempty"`
	// TOC is the MusicBrainz-form table of contents used for release lookups.
	TOC    string  `json:"toc,omitempty"`
	Tracks []Track `json:"tracks"`
}

// TotalDuration is the play time covered by the track list.
func (d Disc) TotalDuration() time.Duration {
	if len(d.Tracks) == 0 {
		return 0
	}
	return d.Tracks[len(d.Tracks)-1].End
}

// Book holds the editable audiobook metadata written into ID3 tags.
type Book struct {
	Title        string `json:"title"`
	Author       string `json:"author"`
	Narrator     string `json:"narrator,omitempty"`
	Album        string `json:"album"`
	Year         int    `json:"year,omitempty"`
	Genre        string `json:"genre,omitempty"`
	Series       string `json:"series,omitempty"`
	SeriesNumber string `json:"series_number,omitempty"`
	DiscNumber   int    `json:"disc_number,omitempty"`
	TotalDiscs   int    `json:"total_discs,omitempty"`
	TrackNumber  int    `json:"track_number,omitempty"`
	TotalTracks  int    `json:"total_tracks,omitempty"`
}

// TrackFrame renders the ID3 TRCK payload ("n" or "n/total").
func (b Book) TrackFrame() string {
	if b.TrackNumber == 0 {
		return ""
	}
	if b.TotalTracks > 0 {
		return fmt.Sprintf("%d/%d", b.TrackNumber, b.TotalTracks)
	}
	return fmt.Sprintf("%d", b.TrackNumber)
}

// DiscFrame renders the ID3 TPOS payload ("n" or "n/total").
func (b Book) DiscFrame() string {
	if b.DiscNumber == 0 {
		return ""
	}
	if b.TotalDiscs > 0 {
		return fmt.Sprintf("%d/%d", b.DiscNumber, b.TotalDiscs)
	}
	return fmt.Sprintf("%d", b.DiscNumber)
}

// SeriesFrame renders the ID3 TIT1 grouping payload ("Series" or "Series #n").
func (b Book) SeriesFrame() string {
	if b.Series == "" {
		return ""
	}
	if b.SeriesNumber != "" {
		return b.Series + " #" + b.SeriesNumber
	}
	return b.Series
}

// DefaultTrackTitle returns the placeholder title for an untitled track.
func DefaultTrackTitle(number int) string {
	return fmt.Sprintf("Track %02d", number)
}

var titleCaser = cases.Title(language.English)

// NormalizeLabel converts a raw disc label (often ALL_CAPS_WITH_UNDERSCORES)
// into a presentable album title.
func NormalizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return ""
	}
	cleaned := strings.NewReplacer("_", " ", ".", " ").Replace(label)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return ""
	}
	if cleaned == strings.ToUpper(cleaned) {
		return titleCaser.String(strings.ToLower(cleaned))
	}
	return cleaned
}
