// Package index defines the denormalized search index entry, the Store
// contract every index backend satisfies, and an in-process backend.
package index

import (
	"context"
	"time"
)

// Entry is one denormalized index record per live content item.
type Entry struct {
	ContentID      string    `json:"content_id"`
	ContentType    string    `json:"content_type"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	Excerpt        string    `json:"excerpt"`
	URL            string    `json:"url"`
	Categories     []string  `json:"categories"`
	Tags           []string  `json:"tags"`
	RelevanceScore float64   `json:"relevance_score"`
	BoostFactor    float64   `json:"boost_factor"`
	IndexedAt      time.Time `json:"indexed_at"`
}

// ScoredEntry is a ranked search hit.
type ScoredEntry struct {
	ContentID string    `json:"content_id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Score     float64   `json:"score"`
	IndexedAt time.Time `json:"indexed_at"`
}

// Store is the persistence contract for index entries.
//
// Upsert replaces every field of an existing entry except BoostFactor,
// which is an external override and survives re-indexing. Delete of an
// absent id is a no-op. Search performs a ranked full-text lookup scored
// as textMatch * relevanceScore * boostFactor, ordered by score then
// IndexedAt descending, and returns the page plus the total match count.
// MatchingAll returns every entry whose title or body contains all of the
// given terms, for the pattern-based retrieval path.
type Store interface {
	Upsert(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, contentID string) error
	Get(ctx context.Context, contentID string) (*Entry, error)
	SetBoostFactor(ctx context.Context, contentID string, factor float64) error
	Search(ctx context.Context, term string, contentTypes []string, offset, limit int) ([]ScoredEntry, int, error)
	MatchingAll(ctx context.Context, terms []string) ([]Entry, error)
	Count(ctx context.Context) (int, error)
}
