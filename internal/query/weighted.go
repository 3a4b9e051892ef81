package query

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/coralcms/sitesearch/internal/indexer/index"
)

// DefaultWeightedLimit caps weighted search results when the caller does
// not supply a limit.
const DefaultWeightedLimit = 50

// WeightedResult is one hit from the pattern-based retrieval path.
type WeightedResult struct {
	ContentID string  `json:"content_id"`
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Score     float64 `json:"score"`
}

// Engine runs processed queries against an index store using AND
// pattern matching instead of the store's native ranked operator.
type Engine struct {
	store     index.Store
	processor *Processor
	logger    *slog.Logger
}

func NewEngine(store index.Store, processor *Processor) *Engine {
	return &Engine{
		store:     store,
		processor: processor,
		logger:    slog.Default().With("component", "query-engine"),
	}
}

// Processor exposes the engine's processor for callers that only need
// normalization.
func (e *Engine) Processor() *Processor {
	return e.processor
}

// WeightedSearch normalizes the raw query and returns entries matching
// every surviving term, scored as
// relevanceScore * boostFactor * Π(termWeight). A query with no surviving
// terms, or any term that matches nothing, yields an empty result.
func (e *Engine) WeightedSearch(ctx context.Context, rawQuery string, limit int) ([]WeightedResult, error) {
	if limit <= 0 {
		limit = DefaultWeightedLimit
	}
	processed := e.processor.Process(rawQuery)
	if len(processed.Terms) == 0 {
		return nil, nil
	}

	terms := make([]string, len(processed.Terms))
	termBoost := 1.0
	for i, t := range processed.Terms {
		terms[i] = t.Text
		termBoost *= t.Weight
	}

	entries, err := e.store.MatchingAll(ctx, terms)
	if err != nil {
		return nil, fmt.Errorf("weighted search for %q: %w", rawQuery, err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	type scored struct {
		entry index.Entry
		score float64
	}
	hits := make([]scored, 0, len(entries))
	for _, entry := range entries {
		hits = append(hits, scored{
			entry: entry,
			score: entry.RelevanceScore * entry.BoostFactor * termBoost,
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		if !hits[i].entry.IndexedAt.Equal(hits[j].entry.IndexedAt) {
			return hits[i].entry.IndexedAt.After(hits[j].entry.IndexedAt)
		}
		return hits[i].entry.ContentID < hits[j].entry.ContentID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	results := make([]WeightedResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, WeightedResult{
			ContentID: h.entry.ContentID,
			Title:     h.entry.Title,
			URL:       h.entry.URL,
			Score:     h.score,
		})
	}
	e.logger.Debug("weighted search executed",
		"query", rawQuery,
		"terms", len(terms),
		"results", len(results),
	)
	return results, nil
}
