package catalog

import (
	"context"
	"errors"
	"log"

	"tune-guesser/internal/game"
)

const (
	DefaultSearchLimit  = 20
	MaxSearchLimit      = 50
	DefaultPopularLimit = 50
	MaxPopularLimit     = 100
)

type SearchResult struct {
	Tracks []game.Track `json:"tracks"`
	Total  int          `json:"total"`
}

// Provider resolves track metadata. Failures are reported as
// game.CodeCatalogUnavailable, or game.CodeNotFound for unknown tracks.
type Provider interface {
	Search(ctx context.Context, query string, limit int) (SearchResult, error)
	Track(ctx context.Context, id string) (game.Track, error)
	Popular(ctx context.Context, limit int) ([]game.Track, error)
	Recommendations(ctx context.Context, seedTrackIDs []string, limit int) ([]game.Track, error)
}

// Fallback asks each provider in turn and returns the first answer.
type Fallback struct {
	providers []Provider
}

func NewFallback(providers ...Provider) *Fallback {
	list := make([]Provider, 0, len(providers))
	for _, provider := range providers {
		if provider != nil {
			list = append(list, provider)
		}
	}
	return &Fallback{providers: list}
}

func (f *Fallback) Search(ctx context.Context, query string, limit int) (SearchResult, error) {
	return firstOf(f.providers, "search", func(p Provider) (SearchResult, error) {
		return p.Search(ctx, query, limit)
	})
}

func (f *Fallback) Track(ctx context.Context, id string) (game.Track, error) {
	return firstOf(f.providers, "track", func(p Provider) (game.Track, error) {
		return p.Track(ctx, id)
	})
}

func (f *Fallback) Popular(ctx context.Context, limit int) ([]game.Track, error) {
	return firstOf(f.providers, "popular", func(p Provider) ([]game.Track, error) {
		return p.Popular(ctx, limit)
	})
}

func (f *Fallback) Recommendations(ctx context.Context, seedTrackIDs []string, limit int) ([]game.Track, error) {
	return firstOf(f.providers, "recommendations", func(p Provider) ([]game.Track, error) {
		return p.Recommendations(ctx, seedTrackIDs, limit)
	})
}

func firstOf[T any](providers []Provider, op string, call func(Provider) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)
	for i, provider := range providers {
		value, err := call(provider)
		if err == nil {
			return value, nil
		}
		log.Printf("catalog provider failed op=%s provider=%d error=%v", op, i, err)
		lastErr = err
	}
	if lastErr == nil {
		return zero, game.CatalogError("No track catalog is configured")
	}
	if errors.Is(lastErr, game.ErrNotFound) {
		return zero, lastErr
	}
	return zero, game.CatalogError("Track catalog is unavailable. Please try again.")
}

func clampLimit(limit, fallback, maximum int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > maximum {
		return maximum
	}
	return limit
}

func withPreview(tracks []game.Track) []game.Track {
	filtered := make([]game.Track, 0, len(tracks))
	for _, track := range tracks {
		if track.PreviewURL != "" {
			filtered = append(filtered, track)
		}
	}
	return filtered
}
