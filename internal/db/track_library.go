package db

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TrackLibrary is a curated track kept locally so games can run when the
// remote catalog is unreachable.
type TrackLibrary struct {
	ID         uint           `gorm:"primaryKey"`
	ExternalID string         `gorm:"size:64;uniqueIndex;not null"`
	Name       string         `gorm:"size:200;not null;index"`
	Artist     string         `gorm:"size:200;not null;index"`
	ArtistID   string         `gorm:"size:64;index"`
	AlbumName  string         `gorm:"size:200"`
	Images     datatypes.JSON `gorm:"type:jsonb"`
	PreviewURL string         `gorm:"size:512;not null"`
	DurationMs int            `gorm:"not null;default:0"`
	Popularity int            `gorm:"not null;default:0;index"`
	CreatedAt  time.Time      `gorm:"not null"`
	UpdatedAt  time.Time      `gorm:"not null"`
}

func (TrackLibrary) TableName() string {
	return "track_library"
}

// SearchTrackLibrary matches the query against titles and artists.
func SearchTrackLibrary(conn *gorm.DB, query string, limit int) ([]TrackLibrary, error) {
	pattern := "%" + strings.TrimSpace(query) + "%"
	var tracks []TrackLibrary
	err := conn.Where("name ILIKE ? OR artist ILIKE ?", pattern, pattern).
		Order("popularity DESC").
		Order("id ASC").
		Limit(limit).
		Find(&tracks).Error
	return tracks, err
}

// FindTrackLibrary looks a track up by its catalog id.
func FindTrackLibrary(conn *gorm.DB, externalID string) (TrackLibrary, error) {
	var track TrackLibrary
	err := conn.Where("external_id = ?", externalID).First(&track).Error
	return track, err
}

// PopularTrackLibrary returns the highest ranked tracks.
func PopularTrackLibrary(conn *gorm.DB, limit int) ([]TrackLibrary, error) {
	var tracks []TrackLibrary
	err := conn.Order("popularity DESC").Order("id ASC").Limit(limit).Find(&tracks).Error
	return tracks, err
}

// TrackLibraryByArtists returns tracks by any of the given artist ids.
func TrackLibraryByArtists(conn *gorm.DB, artistIDs []string, limit int) ([]TrackLibrary, error) {
	var tracks []TrackLibrary
	if len(artistIDs) == 0 {
		return tracks, nil
	}
	err := conn.Where("artist_id IN ?", artistIDs).
		Order("popularity DESC").
		Order("id ASC").
		Limit(limit).
		Find(&tracks).Error
	return tracks, err
}
