package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tune-guesser/internal/game"
)

const deezerNoData = 800

// Deezer talks to the public Deezer API, which needs no credentials.
type Deezer struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

type deezerArtist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type deezerAlbum struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Cover       string `json:"cover"`
	CoverSmall  string `json:"cover_small"`
	CoverMedium string `json:"cover_medium"`
}

type deezerTrack struct {
	ID       int64        `json:"id"`
	Title    string       `json:"title"`
	Preview  string       `json:"preview"`
	Duration int          `json:"duration"`
	Rank     int          `json:"rank"`
	Artist   deezerArtist `json:"artist"`
	Album    deezerAlbum  `json:"album"`
}

type deezerError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type deezerList struct {
	Data  []deezerTrack `json:"data"`
	Total int           `json:"total"`
	Error *deezerError  `json:"error,omitempty"`
}

type deezerSingle struct {
	deezerTrack
	Error *deezerError `json:"error,omitempty"`
}

func NewDeezer(baseURL string, timeout time.Duration) *Deezer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Deezer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

func (d *Deezer) Search(ctx context.Context, query string, limit int) (SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchResult{Tracks: []game.Track{}}, nil
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(clampLimit(limit, DefaultSearchLimit, MaxSearchLimit)))
	var list deezerList
	if err := d.get(ctx, "/search", params, &list); err != nil {
		return SearchResult{}, err
	}
	if list.Error != nil {
		return SearchResult{}, game.CatalogError("Failed to search tracks")
	}
	return SearchResult{Tracks: withPreview(convertTracks(list.Data)), Total: list.Total}, nil
}

func (d *Deezer) Track(ctx context.Context, id string) (game.Track, error) {
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return game.Track{}, &game.Error{Code: game.CodeNotFound, Message: "Track not found"}
	}
	var single deezerSingle
	if err := d.get(ctx, "/track/"+id, nil, &single); err != nil {
		return game.Track{}, err
	}
	if single.Error != nil {
		if single.Error.Code == deezerNoData {
			return game.Track{}, &game.Error{Code: game.CodeNotFound, Message: "Track not found"}
		}
		return game.Track{}, game.CatalogError("Failed to get track")
	}
	return convertTrack(single.deezerTrack), nil
}

func (d *Deezer) Popular(ctx context.Context, limit int) ([]game.Track, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(clampLimit(limit, DefaultPopularLimit, MaxPopularLimit)))
	var list deezerList
	if err := d.get(ctx, "/chart/0/tracks", params, &list); err != nil {
		return nil, err
	}
	if list.Error != nil {
		return nil, game.CatalogError("Failed to get popular tracks")
	}
	return withPreview(convertTracks(list.Data)), nil
}

// Recommendations returns the top tracks of the first seed's artist, or the
// chart when there is no usable seed.
func (d *Deezer) Recommendations(ctx context.Context, seedTrackIDs []string, limit int) ([]game.Track, error) {
	limit = clampLimit(limit, DefaultSearchLimit, MaxSearchLimit)
	if len(seedTrackIDs) == 0 {
		return d.Popular(ctx, limit)
	}
	seed, err := d.Track(ctx, seedTrackIDs[0])
	if err != nil || len(seed.Artists) == 0 || seed.Artists[0].ID == "" {
		return d.Popular(ctx, limit)
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	var list deezerList
	if err := d.get(ctx, "/artist/"+seed.Artists[0].ID+"/top", params, &list); err != nil || list.Error != nil {
		return d.Popular(ctx, limit)
	}
	tracks := withPreview(convertTracks(list.Data))
	if len(tracks) == 0 {
		return d.Popular(ctx, limit)
	}
	return tracks, nil
}

func (d *Deezer) get(ctx context.Context, path string, params url.Values, dest any) error {
	endpoint := d.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	reqCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return game.CatalogError("Failed to build catalog request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return game.CatalogError("Failed to reach the track catalog")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return game.CatalogError("Failed to read catalog response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return game.CatalogError(fmt.Sprintf("Catalog request failed (%d)", resp.StatusCode))
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return game.CatalogError("Failed to parse catalog response")
	}
	return nil
}

func convertTracks(items []deezerTrack) []game.Track {
	tracks := make([]game.Track, 0, len(items))
	for _, item := range items {
		tracks = append(tracks, convertTrack(item))
	}
	return tracks
}

func convertTrack(item deezerTrack) game.Track {
	return game.Track{
		ID:   strconv.FormatInt(item.ID, 10),
		Name: item.Title,
		Artists: []game.Artist{{
			ID:   strconv.FormatInt(item.Artist.ID, 10),
			Name: item.Artist.Name,
		}},
		Album: game.Album{
			ID:   strconv.FormatInt(item.Album.ID, 10),
			Name: item.Album.Title,
			Images: []game.Image{
				{URL: item.Album.Cover, Width: 300, Height: 300},
				{URL: item.Album.CoverMedium, Width: 250, Height: 250},
				{URL: item.Album.CoverSmall, Width: 120, Height: 120},
			},
		},
		PreviewURL: item.Preview,
		DurationMs: item.Duration * 1000,
		Popularity: item.Rank,
	}
}
