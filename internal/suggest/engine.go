// Package suggest serves autocomplete from a precomputed frequency
// snapshot of title words and taxonomy labels. The snapshot is replaced
// wholesale on each rebuild; readers always see either the old snapshot
// in full or the new one in full.
package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/coralcms/sitesearch/internal/content"
	"github.com/coralcms/sitesearch/pkg/config"
	"github.com/coralcms/sitesearch/pkg/metrics"
)

// SourceType records where a suggestion term came from.
type SourceType string

const (
	SourceContent  SourceType = "content"
	SourceTaxonomy SourceType = "taxonomy"
)

// Term is one candidate suggestion with its corpus frequency.
type Term struct {
	Term      string     `json:"term"`
	Frequency int        `json:"frequency"`
	Source    SourceType `json:"source"`
}

// Match is a scored suggestion returned to the caller.
type Match struct {
	Term      string `json:"term"`
	Score     int    `json:"score"`
	Frequency int    `json:"frequency"`
}

// Match score tiers. Exact prefixes dominate, substrings follow, and
// fuzzy matches only rescue near-misses within tight edit-distance and
// length-similarity bounds.
const (
	prefixScore    = 100
	substringScore = 80
	fuzzyBaseScore = 60
	fuzzyPenalty   = 15
	maxEditDist    = 2
	maxLenDiff     = 3
)

// SnapshotStore persists the suggestion snapshot so restarts reload the
// last build. Replace swaps the stored set wholesale in one transaction.
type SnapshotStore interface {
	Replace(ctx context.Context, terms []Term) error
	Load(ctx context.Context) ([]Term, error)
}

// Debouncer gates eager rebuilds triggered by rapid successive saves.
// TryAcquire reports whether the caller may rebuild now.
type Debouncer interface {
	TryAcquire(ctx context.Context) bool
}

type snapshot struct {
	terms   []Term
	builtAt time.Time
}

// Engine owns the suggestion term snapshot and serves ranked matches
// against it.
type Engine struct {
	repo     content.Repository
	store    SnapshotStore
	debounce Debouncer
	cfg      config.SuggestConfig
	metrics  *metrics.Metrics
	logger   *slog.Logger
	current  atomic.Pointer[snapshot]
}

func NewEngine(repo content.Repository, store SnapshotStore, debounce Debouncer, cfg config.SuggestConfig, m *metrics.Metrics) *Engine {
	e := &Engine{
		repo:     repo,
		store:    store,
		debounce: debounce,
		cfg:      cfg,
		metrics:  m,
		logger:   slog.Default().With("component", "suggest-engine"),
	}
	e.current.Store(&snapshot{})
	return e
}

// LoadSnapshot restores the last persisted snapshot, if any. Called once
// at startup before the first rebuild.
func (e *Engine) LoadSnapshot(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	terms, err := e.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading suggestion snapshot: %w", err)
	}
	if len(terms) == 0 {
		return nil
	}
	e.swap(terms)
	e.logger.Info("suggestion snapshot restored", "terms", len(terms))
	return nil
}

// BuildFromContent rebuilds the snapshot from published titles and
// taxonomy labels: the most frequent title words longer than the
// configured minimum (capped at the title-term limit), merged with every
// taxonomy label weighted by usage count, sorted by frequency and
// truncated to the configured maximum. The new snapshot replaces the old
// one atomically. Returns the number of terms retained.
func (e *Engine) BuildFromContent(ctx context.Context) (int, error) {
	titles, err := e.repo.ListTitles(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing titles for suggestion build: %w", err)
	}

	freq := make(map[string]int)
	for _, title := range titles {
		for _, word := range strings.Fields(strings.ToLower(title)) {
			word = stripNonAlnum(word)
			if len(word) <= e.cfg.MinTermLength {
				continue
			}
			freq[word]++
		}
	}
	terms := topTerms(freq, e.cfg.TitleTermLimit, SourceContent)

	merged := make(map[string]*Term, len(terms))
	for i := range terms {
		merged[terms[i].Term] = &terms[i]
	}
	for _, taxonomy := range []string{content.TaxonomyCategory, content.TaxonomyTag} {
		labels, err := e.repo.ListTaxonomyTerms(ctx, taxonomy)
		if err != nil {
			// Taxonomy failures degrade the snapshot but do not abort
			// the build; the title terms are still worth keeping.
			e.logger.Error("taxonomy scan failed during suggestion build",
				"taxonomy", taxonomy,
				"error", err,
			)
			continue
		}
		for _, label := range labels {
			term := stripNonAlnum(strings.ToLower(label.Label))
			if term == "" {
				continue
			}
			if existing, ok := merged[term]; ok {
				existing.Frequency += label.UsageCount
				continue
			}
			t := Term{Term: term, Frequency: label.UsageCount, Source: SourceTaxonomy}
			merged[term] = &t
		}
	}

	final := make([]Term, 0, len(merged))
	for _, t := range merged {
		final = append(final, *t)
	}
	sortByFrequency(final)
	if len(final) > e.cfg.MaxTerms {
		final = final[:e.cfg.MaxTerms]
	}

	e.swap(final)
	if e.store != nil {
		if err := e.store.Replace(ctx, final); err != nil {
			e.logger.Error("persisting suggestion snapshot failed", "error", err)
		}
	}
	e.logger.Info("suggestion snapshot rebuilt",
		"titles", len(titles),
		"terms", len(final),
	)
	return len(final), nil
}

// GetSuggestions returns the top matches for a query. Queries shorter
// than the configured minimum are rejected with an empty result. Scoring
// is three-tier: exact prefix, substring, then fuzzy within the
// length-similarity and edit-distance bounds.
func (e *Engine) GetSuggestions(query string, limit int) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if len(query) < e.cfg.MinQueryLength {
		e.countSuggest("rejected")
		return nil
	}
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}

	snap := e.current.Load()
	matches := make([]Match, 0, limit)
	for _, t := range snap.terms {
		score, ok := scoreMatch(query, t.Term)
		if !ok {
			continue
		}
		matches = append(matches, Match{Term: t.Term, Score: score, Frequency: t.Frequency})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].Frequency != matches[j].Frequency {
			return matches[i].Frequency > matches[j].Frequency
		}
		return matches[i].Term < matches[j].Term
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	if len(matches) == 0 {
		e.countSuggest("empty")
	} else {
		e.countSuggest("hit")
	}
	return matches
}

// RebuildOnSave triggers an eager rebuild after a content save, unless a
// rebuild ran within the debounce window. The debounce lock is a
// best-effort hint; a duplicate rebuild is wasteful, not unsafe.
func (e *Engine) RebuildOnSave(ctx context.Context) {
	if e.debounce != nil && !e.debounce.TryAcquire(ctx) {
		e.countRebuild("debounced")
		e.logger.Debug("suggestion rebuild suppressed by debounce window")
		return
	}
	e.countRebuild("save")
	if _, err := e.BuildFromContent(ctx); err != nil {
		e.logger.Error("save-triggered suggestion rebuild failed", "error", err)
	}
}

// SnapshotInfo returns the size and build time of the active snapshot.
func (e *Engine) SnapshotInfo() (int, time.Time) {
	snap := e.current.Load()
	return len(snap.terms), snap.builtAt
}

func (e *Engine) swap(terms []Term) {
	e.current.Store(&snapshot{terms: terms, builtAt: time.Now().UTC()})
	if e.metrics != nil {
		e.metrics.SuggestSnapshotSize.Set(float64(len(terms)))
	}
}

func (e *Engine) countSuggest(outcome string) {
	if e.metrics != nil {
		e.metrics.SuggestRequestsTotal.WithLabelValues(outcome).Inc()
	}
}

func (e *Engine) countRebuild(trigger string) {
	if e.metrics != nil {
		e.metrics.SuggestRebuildsTotal.WithLabelValues(trigger).Inc()
	}
}

// scoreMatch scores a single candidate against the query. The fuzzy tier
// compares the query against the candidate's prefix of equal length, and
// only when the overall lengths are within maxLenDiff, so edit distance
// is never computed against wildly different-length candidates.
func scoreMatch(query, candidate string) (int, bool) {
	if strings.HasPrefix(candidate, query) {
		return prefixScore, true
	}
	if strings.Contains(candidate, query) {
		return substringScore, true
	}
	diff := len(candidate) - len(query)
	if diff < 0 {
		diff = -diff
	}
	if diff > maxLenDiff {
		return 0, false
	}
	prefix := candidate
	if len(candidate) > len(query) {
		prefix = candidate[:len(query)]
	}
	if d := editDistance(query, prefix); d <= maxEditDist {
		return fuzzyBaseScore - fuzzyPenalty*d, true
	}
	return 0, false
}

func stripNonAlnum(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func topTerms(freq map[string]int, limit int, source SourceType) []Term {
	terms := make([]Term, 0, len(freq))
	for word, count := range freq {
		terms = append(terms, Term{Term: word, Frequency: count, Source: source})
	}
	sortByFrequency(terms)
	if limit > 0 && len(terms) > limit {
		terms = terms[:limit]
	}
	return terms
}

func sortByFrequency(terms []Term) {
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Frequency != terms[j].Frequency {
			return terms[i].Frequency > terms[j].Frequency
		}
		return terms[i].Term < terms[j].Term
	})
}
