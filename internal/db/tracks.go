package db

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Columns: id, name, artist, artist_id, album, image_url, preview_url, duration_ms, popularity.
const trackColumns = 9

type trackImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// LoadTrackLibrary reads tracks from a CSV and upserts them into the track_library table.
func LoadTrackLibrary(conn *gorm.DB, path string) (int, error) {
	if conn == nil {
		return 0, nil
	}
	records, err := readTracks(path)
	if err != nil {
		return 0, err
	}
	inserted := 0
	for _, record := range records {
		var entry TrackLibrary
		if err := conn.Where(TrackLibrary{ExternalID: record.ExternalID}).
			Assign(TrackLibrary{
				Name:       record.Name,
				Artist:     record.Artist,
				ArtistID:   record.ArtistID,
				AlbumName:  record.AlbumName,
				Images:     record.Images,
				PreviewURL: record.PreviewURL,
				DurationMs: record.DurationMs,
				Popularity: record.Popularity,
			}).
			FirstOrCreate(&entry).Error; err != nil {
			return inserted, fmt.Errorf("upsert track %s: %w", record.ExternalID, err)
		}
		inserted++
	}
	return inserted, nil
}

func readTracks(path string) ([]TrackLibrary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var records []TrackLibrary
	for i, row := range rows {
		if i == 0 || len(row) < trackColumns {
			continue
		}
		record, ok := parseTrackRow(row)
		if !ok {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func parseTrackRow(row []string) (TrackLibrary, bool) {
	for i := range row {
		row[i] = strings.TrimSpace(row[i])
	}
	externalID, name, artist, previewURL := row[0], row[1], row[2], row[6]
	if externalID == "" || name == "" || artist == "" || previewURL == "" {
		return TrackLibrary{}, false
	}
	images := []trackImage{}
	if row[5] != "" {
		images = append(images, trackImage{URL: row[5], Width: 300, Height: 300})
	}
	data, err := json.Marshal(images)
	if err != nil {
		return TrackLibrary{}, false
	}
	duration, _ := strconv.Atoi(row[7])
	popularity, _ := strconv.Atoi(row[8])
	return TrackLibrary{
		ExternalID: externalID,
		Name:       name,
		Artist:     artist,
		ArtistID:   row[3],
		AlbumName:  row[4],
		Images:     datatypes.JSON(data),
		PreviewURL: previewURL,
		DurationMs: duration,
		Popularity: popularity,
	}, true
}
