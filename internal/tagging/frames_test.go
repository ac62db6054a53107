package tagging_test

import (
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"

	"bookrip/internal/metadata"
	"bookrip/internal/tagging"
)

func TestWriteTagsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "01 - Chapter One.mp3")
	writeDummyMP3(t, path)

	book := metadata.Book{
		Title:        "The Long Way Home",
		Author:       "Jane Writer",
		Narrator:     "Sam Reader",
		Album:        "The Long Way Home",
		Year:         2019,
		Genre:        "Audiobook",
		Series:       "Homeward",
		SeriesNumber: "2",
		DiscNumber:   1,
		TotalDiscs:   3,
		TrackNumber:  1,
		TotalTracks:  12,
	}
	if err := tagging.WriteTags(path, book, "Chapter One"); err != nil {
		t.Fatalf("WriteTags failed: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer tag.Close()

	if got := tag.Title(); got != "Chapter One" {
		t.Errorf("title = %q", got)
	}
	if got := tag.Artist(); got != "Jane Writer" {
		t.Errorf("artist = %q", got)
	}
	if got := tag.Album(); got != "The Long Way Home" {
		t.Errorf("album = %q", got)
	}
	if got := tag.Genre(); got != "Audiobook" {
		t.Errorf("genre = %q", got)
	}
	if got := textFrame(tag, tag.CommonID("Track number/Position in set")); got != "1/12" {
		t.Errorf("track frame = %q", got)
	}
	if got := textFrame(tag, "TPOS"); got != "1/3" {
		t.Errorf("disc frame = %q", got)
	}
	if got := textFrame(tag, "TPE2"); got != "Sam Reader" {
		t.Errorf("narrator frame = %q", got)
	}
	if got := textFrame(tag, "TIT1"); got != "Homeward #2" {
		t.Errorf("series frame = %q", got)
	}
}

func TestWriteTagsOmitsEmptyFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.mp3")
	writeDummyMP3(t, path)

	book := metadata.Book{Author: "Jane Writer", Album: "Standalone"}
	if err := tagging.WriteTags(path, book, "Standalone"); err != nil {
		t.Fatalf("WriteTags failed: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer tag.Close()

	if got := textFrame(tag, "TIT1"); got != "" {
		t.Errorf("expected no series frame, got %q", got)
	}
	if got := textFrame(tag, "TPE2"); got != "" {
		t.Errorf("expected no narrator frame, got %q", got)
	}
}

func textFrame(tag *id3v2.Tag, id string) string {
	return tag.GetTextFrame(id).Text
}
