// Package search is the serving facade over the core: it ties the ranked
// and pattern-based retrieval paths, suggestions, and analytics capture
// together behind one API and its HTTP shim.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coralcms/sitesearch/internal/analytics"
	"github.com/coralcms/sitesearch/internal/indexer"
	"github.com/coralcms/sitesearch/internal/indexer/index"
	"github.com/coralcms/sitesearch/internal/query"
	"github.com/coralcms/sitesearch/internal/suggest"
	"github.com/coralcms/sitesearch/pkg/metrics"
)

// Service exposes the caller surface of the search core.
type Service struct {
	indexer   *indexer.Indexer
	queries   *query.Engine
	suggester *suggest.Engine
	recorder  *analytics.Recorder
	cache     *ResultCache
	metrics   *metrics.Metrics
	logger    *slog.Logger

	rebuildMu       sync.Mutex
	rebuildRunning  bool
	rebuildProgress indexer.Progress
	lastReport      *indexer.Report
}

func NewService(
	ix *indexer.Indexer,
	queries *query.Engine,
	suggester *suggest.Engine,
	recorder *analytics.Recorder,
	cache *ResultCache,
	m *metrics.Metrics,
) *Service {
	return &Service{
		indexer:   ix,
		queries:   queries,
		suggester: suggester,
		recorder:  recorder,
		cache:     cache,
		metrics:   m,
		logger:    slog.Default().With("component", "search-service"),
	}
}

// Search runs a ranked lookup and records the query in analytics. The
// analytics write is best-effort and never affects the response.
func (s *Service) Search(ctx context.Context, term string, filters indexer.Filters, page, pageSize int, meta analytics.RequestMeta) ([]index.ScoredEntry, int, error) {
	start := time.Now()

	var (
		results []index.ScoredEntry
		total   int
		err     error
	)
	if s.cache != nil {
		key := cacheKey(term, filters.ContentTypes, page, pageSize)
		var cached *CachedPage
		cached, _, err = s.cache.GetOrCompute(ctx, key, func() (*CachedPage, error) {
			r, t, serr := s.indexer.Search(ctx, term, filters, page, pageSize)
			if serr != nil {
				return nil, serr
			}
			return &CachedPage{Results: r, Total: t}, nil
		})
		if err == nil {
			results, total = cached.Results, cached.Total
		}
	} else {
		results, total, err = s.indexer.Search(ctx, term, filters, page, pageSize)
	}

	s.observeSearch(start, total, err)
	if err != nil {
		return nil, 0, err
	}
	if s.recorder != nil {
		s.recorder.TrackSearch(term, total, meta)
	}
	return results, total, nil
}

// WeightedSearch runs the pattern-based retrieval path and records the
// query in analytics.
func (s *Service) WeightedSearch(ctx context.Context, rawQuery string, limit int, meta analytics.RequestMeta) ([]query.WeightedResult, error) {
	start := time.Now()
	results, err := s.queries.WeightedSearch(ctx, rawQuery, limit)
	s.observeSearch(start, len(results), err)
	if err != nil {
		return nil, err
	}
	if s.recorder != nil {
		s.recorder.TrackSearch(rawQuery, len(results), meta)
	}
	return results, nil
}

// Suggest returns autocomplete matches for a prefix.
func (s *Service) Suggest(query string, limit int) []suggest.Match {
	return s.suggester.GetSuggestions(query, limit)
}

// TrackSearch records an externally executed search.
func (s *Service) TrackSearch(query string, resultCount int, meta analytics.RequestMeta) {
	if s.recorder != nil {
		s.recorder.TrackSearch(query, resultCount, meta)
	}
}

// Dashboard aggregates the analytics window.
func (s *Service) Dashboard(ctx context.Context, days int) (*analytics.DashboardData, error) {
	return s.recorder.DashboardData(ctx, days)
}

// IndexOne re-indexes one content item and drops stale cached pages.
func (s *Service) IndexOne(ctx context.Context, contentID string) error {
	if err := s.indexer.IndexOne(ctx, contentID); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

// RemoveOne removes one content item from the index and drops stale
// cached pages.
func (s *Service) RemoveOne(ctx context.Context, contentID string) error {
	if err := s.indexer.RemoveOne(ctx, contentID); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

// SetBoostFactor records an external ranking override.
func (s *Service) SetBoostFactor(ctx context.Context, contentID string, factor float64) error {
	if err := s.indexer.SetBoostFactor(ctx, contentID, factor); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

// invalidateCache is best-effort; a failed flush means stale results
// until the TTL expires, not an error for the caller.
func (s *Service) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("cache invalidation failed", "error", err)
	}
}

// StartRebuild launches a full index rebuild in the background, tracking
// progress for Status. It reports false when a rebuild is already
// running.
func (s *Service) StartRebuild(ctx context.Context, contentTypes []string) bool {
	s.rebuildMu.Lock()
	if s.rebuildRunning {
		s.rebuildMu.Unlock()
		return false
	}
	s.rebuildRunning = true
	s.rebuildProgress = indexer.Progress{}
	s.rebuildMu.Unlock()

	// Detach from the caller so the rebuild survives the request that
	// started it.
	buildCtx := context.WithoutCancel(ctx)

	progress := make(chan indexer.Progress, 64)
	go func() {
		for p := range progress {
			s.rebuildMu.Lock()
			s.rebuildProgress = p
			s.rebuildMu.Unlock()
		}
	}()
	go func() {
		report, err := s.indexer.BuildAll(buildCtx, contentTypes, progress)
		close(progress)
		s.rebuildMu.Lock()
		s.rebuildRunning = false
		s.lastReport = &report
		s.rebuildMu.Unlock()
		if err != nil {
			s.logger.Error("background rebuild failed", "error", err)
		}
		s.invalidateCache(buildCtx)
	}()
	return true
}

// RebuildSuggestions rebuilds the suggestion snapshot immediately.
func (s *Service) RebuildSuggestions(ctx context.Context) (int, error) {
	if s.metrics != nil {
		s.metrics.SuggestRebuildsTotal.WithLabelValues("manual").Inc()
	}
	return s.suggester.BuildFromContent(ctx)
}

// Status returns a human-readable summary of the index, any running
// rebuild, and the suggestion snapshot.
func (s *Service) Status(ctx context.Context) (string, error) {
	indexStatus, err := s.indexer.Status(ctx)
	if err != nil {
		return "", err
	}

	s.rebuildMu.Lock()
	running := s.rebuildRunning
	progress := s.rebuildProgress
	report := s.lastReport
	s.rebuildMu.Unlock()

	summary := indexStatus
	if running {
		summary += fmt.Sprintf("; rebuild in progress (%d/%d, %d failed)",
			progress.Processed, progress.Total, progress.Failed)
	} else if report != nil {
		summary += fmt.Sprintf("; last rebuild indexed %d of %d in %s",
			report.Indexed, report.Processed, report.Duration.Round(time.Millisecond))
	}

	terms, builtAt := s.suggester.SnapshotInfo()
	if terms > 0 {
		summary += fmt.Sprintf("; %d suggestion terms (built %s)",
			terms, builtAt.Format(time.RFC3339))
	} else {
		summary += "; suggestion snapshot empty"
	}
	return summary, nil
}

func (s *Service) observeSearch(start time.Time, total int, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "hit"
	switch {
	case err != nil:
		outcome = "error"
	case total == 0:
		outcome = "zero_result"
	}
	s.metrics.SearchesTotal.WithLabelValues(outcome).Inc()
	s.metrics.SearchLatency.WithLabelValues("search").Observe(time.Since(start).Seconds())
	if err == nil {
		s.metrics.SearchResultsCount.Observe(float64(total))
	}
}
