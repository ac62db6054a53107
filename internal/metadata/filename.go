package metadata

import (
	"fmt"
	"strings"
)

// SanitizeFileName strips characters that are unsafe in output filenames.
func SanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// TrackFileName renders the split-mode output name: "NN - Title.mp3".
func TrackFileName(number int, title string) string {
	safe := SanitizeFileName(title)
	if safe == "" {
		safe = DefaultTrackTitle(number)
	}
	return fmt.Sprintf("%02d - %s.mp3", number, safe)
}

// CombinedFileName renders the combined-mode output name: "Album - Disc NN.mp3".
func CombinedFileName(album string, discNumber int) string {
	safe := SanitizeFileName(album)
	if safe == "" {
		safe = "Audiobook"
	}
	if discNumber < 1 {
		discNumber = 1
	}
	return fmt.Sprintf("%s - Disc %02d.mp3", safe, discNumber)
}

// CombinedTitle is the tag title used for a combined disc file ("Disc NN").
func CombinedTitle(discNumber int) string {
	if discNumber < 1 {
		discNumber = 1
	}
	return fmt.Sprintf("Disc %02d", discNumber)
}
