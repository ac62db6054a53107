package musicbrainz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bookrip/internal/services"
)

// Release captures the fields of a MusicBrainz release the pipeline uses.
type Release struct {
	Title       string
	Artist      string
	Year        int
	TrackTitles []string
	DiscCount   int
}

// Lookuper defines the MusicBrainz operations used by identification.
type Lookuper interface {
	LookupTOC(ctx context.Context, toc string) (*Release, error)
	SearchRelease(ctx context.Context, title, artist string) (*Release, error)
}

// Client provides access to the MusicBrainz web service.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

var _ Lookuper = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a MusicBrainz client. The service requires a meaningful
// User-Agent on every request.
func New(baseURL, userAgent string, timeoutSeconds int, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("musicbrainz base url required")
	}
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return nil, errors.New("musicbrainz user agent required")
	}
	timeout := time.Duration(timeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type releasePayload struct {
	Title        string `json:"title"`
	Date         string `json:"date"`
	ArtistCredit []struct {
		Name string `json:"name"`
	} `json:"artist-credit"`
	Media []struct {
		Tracks []struct {
			Position int    `json:"position"`
			Title    string `json:"title"`
		} `json:"tracks"`
	} `json:"media"`
	MediumCount int `json:"medium-count"`
}

type lookupResponse struct {
	Releases []releasePayload `json:"releases"`
}

// LookupTOC resolves a disc table of contents to a release via the fuzzy
// disc ID lookup, including per-track titles when the release media are
// present in the response. The toc string is the space-separated form the
// web service accepts: first track, last track, leadout frame, per-track
// frame offsets.
func (c *Client) LookupTOC(ctx context.Context, toc string) (*Release, error) {
	toc = strings.TrimSpace(toc)
	if toc == "" {
		return nil, services.Wrap(
			services.ErrMetadataLookup, "musicbrainz", "lookup toc",
			"No table of contents available for lookup", errors.New("empty toc"))
	}

	endpoint := c.baseURL + "/discid/-"
	params := url.Values{}
	params.Set("toc", toc)
	params.Set("fmt", "json")
	params.Set("inc", "artist-credits recordings")

	payload, err := c.get(ctx, endpoint, params)
	if err != nil {
		return nil, services.Wrap(
			services.ErrMetadataLookup, "musicbrainz", "lookup toc",
			"Disc lookup failed; continuing with disc label", err)
	}

	if len(payload.Releases) == 0 {
		return nil, services.Wrap(
			services.ErrMetadataLookup, "musicbrainz", "lookup toc",
			"No release matches this disc", errors.New("empty result set"))
	}
	return convertRelease(payload.Releases[0]), nil
}

// SearchRelease queries releases by title and artist. Track titles are not
// populated; search results carry release-level fields only.
func (c *Client) SearchRelease(ctx context.Context, title, artist string) (*Release, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, services.Wrap(
			services.ErrMetadataLookup, "musicbrainz", "search release",
			"No title available for search", errors.New("empty query"))
	}

	query := fmt.Sprintf("release:%q", title)
	if artist = strings.TrimSpace(artist); artist != "" {
		query += fmt.Sprintf(" AND artist:%q", artist)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("fmt", "json")
	params.Set("limit", "5")

	payload, err := c.get(ctx, c.baseURL+"/release/", params)
	if err != nil {
		return nil, services.Wrap(
			services.ErrMetadataLookup, "musicbrainz", "search release",
			"Release search failed; continuing with disc label", err)
	}

	if len(payload.Releases) == 0 {
		return nil, services.Wrap(
			services.ErrMetadataLookup, "musicbrainz", "search release",
			"No release matches this title", errors.New("empty result set"))
	}
	return convertRelease(payload.Releases[0]), nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (*lookupResponse, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse musicbrainz url: %w", err)
	}
	parsed.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &lookupResponse{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("musicbrainz returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var payload lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode musicbrainz response: %w", err)
	}
	return &payload, nil
}

func convertRelease(payload releasePayload) *Release {
	release := &Release{
		Title:     strings.TrimSpace(payload.Title),
		Year:      parseYear(payload.Date),
		DiscCount: payload.MediumCount,
	}
	if release.DiscCount == 0 && len(payload.Media) > 0 {
		release.DiscCount = len(payload.Media)
	}

	names := make([]string, 0, len(payload.ArtistCredit))
	for _, credit := range payload.ArtistCredit {
		if name := strings.TrimSpace(credit.Name); name != "" {
			names = append(names, name)
		}
	}
	release.Artist = strings.Join(names, ", ")

	if len(payload.Media) > 0 {
		for _, track := range payload.Media[0].Tracks {
			release.TrackTitles = append(release.TrackTitles, strings.TrimSpace(track.Title))
		}
	}
	return release
}

func parseYear(date string) int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
