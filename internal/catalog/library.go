package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"tune-guesser/internal/db"
	"tune-guesser/internal/game"

	"gorm.io/gorm"
)

// Library serves tracks from the local track_library table.
type Library struct {
	conn *gorm.DB
}

func NewLibrary(conn *gorm.DB) *Library {
	return &Library{conn: conn}
}

func (l *Library) Search(ctx context.Context, query string, limit int) (SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchResult{Tracks: []game.Track{}}, nil
	}
	rows, err := db.SearchTrackLibrary(l.conn.WithContext(ctx), query, clampLimit(limit, DefaultSearchLimit, MaxSearchLimit))
	if err != nil {
		return SearchResult{}, game.CatalogError("Failed to search tracks")
	}
	tracks := libraryTracks(rows)
	return SearchResult{Tracks: tracks, Total: len(tracks)}, nil
}

func (l *Library) Track(ctx context.Context, id string) (game.Track, error) {
	row, err := db.FindTrackLibrary(l.conn.WithContext(ctx), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return game.Track{}, &game.Error{Code: game.CodeNotFound, Message: "Track not found"}
	}
	if err != nil {
		return game.Track{}, game.CatalogError("Failed to get track")
	}
	return libraryTrack(row), nil
}

func (l *Library) Popular(ctx context.Context, limit int) ([]game.Track, error) {
	rows, err := db.PopularTrackLibrary(l.conn.WithContext(ctx), clampLimit(limit, DefaultPopularLimit, MaxPopularLimit))
	if err != nil {
		return nil, game.CatalogError("Failed to get popular tracks")
	}
	return libraryTracks(rows), nil
}

func (l *Library) Recommendations(ctx context.Context, seedTrackIDs []string, limit int) ([]game.Track, error) {
	limit = clampLimit(limit, DefaultSearchLimit, MaxSearchLimit)
	artistIDs := make([]string, 0, len(seedTrackIDs))
	for _, id := range seedTrackIDs {
		row, err := db.FindTrackLibrary(l.conn.WithContext(ctx), id)
		if err == nil && row.ArtistID != "" {
			artistIDs = append(artistIDs, row.ArtistID)
		}
	}
	rows, err := db.TrackLibraryByArtists(l.conn.WithContext(ctx), artistIDs, limit)
	if err != nil || len(rows) == 0 {
		return l.Popular(ctx, limit)
	}
	return libraryTracks(rows), nil
}

func libraryTracks(rows []db.TrackLibrary) []game.Track {
	tracks := make([]game.Track, 0, len(rows))
	for _, row := range rows {
		tracks = append(tracks, libraryTrack(row))
	}
	return withPreview(tracks)
}

func libraryTrack(row db.TrackLibrary) game.Track {
	var images []game.Image
	if len(row.Images) > 0 {
		_ = json.Unmarshal(row.Images, &images)
	}
	if images == nil {
		images = []game.Image{}
	}
	return game.Track{
		ID:         row.ExternalID,
		Name:       row.Name,
		Artists:    []game.Artist{{ID: row.ArtistID, Name: row.Artist}},
		Album:      game.Album{Name: row.AlbumName, Images: images},
		PreviewURL: row.PreviewURL,
		DurationMs: row.DurationMs,
		Popularity: row.Popularity,
	}
}
