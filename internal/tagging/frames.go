package tagging

import (
	"strconv"

	"github.com/bogem/id3v2/v2"

	"bookrip/internal/metadata"
)

// WriteTags writes the ID3v2 frames for one output file. The title argument
// overrides book.Title so split tracks and combined discs can carry their own
// per-file titles.
func WriteTags(path string, book metadata.Book, title string) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(title)
	tag.SetArtist(book.Author)
	tag.SetAlbum(book.Album)
	if book.Genre != "" {
		tag.SetGenre(book.Genre)
	}
	if book.Year > 0 {
		tag.SetYear(strconv.Itoa(book.Year))
	}
	if frame := book.TrackFrame(); frame != "" {
		tag.AddTextFrame(tag.CommonID("Track number/Position in set"), id3v2.EncodingUTF8, frame)
	}
	if frame := book.DiscFrame(); frame != "" {
		tag.AddTextFrame("TPOS", id3v2.EncodingUTF8, frame)
	}
	if book.Narrator != "" {
		// Album-artist slot doubles as the narrator credit for audiobooks.
		tag.AddTextFrame("TPE2", id3v2.EncodingUTF8, book.Narrator)
	}
	if frame := book.SeriesFrame(); frame != "" {
		tag.AddTextFrame("TIT1", id3v2.EncodingUTF8, frame)
	}
	return tag.Save()
}
