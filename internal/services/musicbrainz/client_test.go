package musicbrainz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookrip/internal/services"
)

func TestLookupTOCParsesRelease(t *testing.T) {
	const toc = "1 2 45150 150 18901"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/discid/-" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("toc"); got != toc {
			t.Errorf("toc param = %q, want %q", got, toc)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("expected User-Agent header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
            "releases": [{
                "title": "The Long Way Home",
                "date": "2009-04-01",
                "artist-credit": [{"name": "Jane Example"}],
                "medium-count": 2,
                "media": [{"tracks": [
                    {"position": 1, "title": "Chapter One"},
                    {"position": 2, "title": "Chapter Two"}
                ]}]
            }]
        }`))
	}))
	defer server.Close()

	client, err := New(server.URL, "bookrip-test/1.0", 5)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	release, err := client.LookupTOC(context.Background(), toc)
	if err != nil {
		t.Fatalf("LookupTOC failed: %v", err)
	}
	if release.Title != "The Long Way Home" || release.Artist != "Jane Example" {
		t.Fatalf("unexpected release: %#v", release)
	}
	if release.Year != 2009 || release.DiscCount != 2 {
		t.Fatalf("unexpected year/disc count: %#v", release)
	}
	if len(release.TrackTitles) != 2 || release.TrackTitles[1] != "Chapter Two" {
		t.Fatalf("unexpected track titles: %#v", release.TrackTitles)
	}
}

func TestLookupTOCNoMatchIsDegraded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, err := New(server.URL, "bookrip-test/1.0", 5)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = client.LookupTOC(context.Background(), "1 1 16000 150")
	if !errors.Is(err, services.ErrMetadataLookup) {
		t.Fatalf("expected ErrMetadataLookup, got %v", err)
	}
	if !services.Degraded(err) {
		t.Fatal("expected lookup miss to be degraded, not fatal")
	}
}

func TestSearchReleaseBuildsQuery(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"releases": [{"title": "Found Book", "date": "1999", "artist-credit": [{"name": "Author"}]}]}`))
	}))
	defer server.Close()

	client, err := New(server.URL, "bookrip-test/1.0", 5)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	release, err := client.SearchRelease(context.Background(), "Found Book", "Author")
	if err != nil {
		t.Fatalf("SearchRelease failed: %v", err)
	}
	if release.Title != "Found Book" || release.Year != 1999 {
		t.Fatalf("unexpected release: %#v", release)
	}
	if gotQuery != `release:"Found Book" AND artist:"Author"` {
		t.Fatalf("unexpected query: %q", gotQuery)
	}
}

func TestServerErrorSurfacesAsLookupFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := New(server.URL, "bookrip-test/1.0", 5)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := client.SearchRelease(context.Background(), "Anything", ""); !errors.Is(err, services.ErrMetadataLookup) {
		t.Fatalf("expected ErrMetadataLookup, got %v", err)
	}
}
