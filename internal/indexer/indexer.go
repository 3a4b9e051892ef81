// Package indexer keeps the search index consistent with the content
// repository and answers ranked queries against it.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/coralcms/sitesearch/internal/content"
	"github.com/coralcms/sitesearch/internal/indexer/index"
	"github.com/coralcms/sitesearch/pkg/config"
	apperrors "github.com/coralcms/sitesearch/pkg/errors"
	"github.com/coralcms/sitesearch/pkg/metrics"
)

// Filters restricts ranked search to the given content types. An empty
// list means all types.
type Filters struct {
	ContentTypes []string
}

// Progress is a single progress report emitted during a full rebuild.
type Progress struct {
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
	Failed    int    `json:"failed"`
	ContentID string `json:"content_id"`
}

// Report summarises a completed full rebuild.
type Report struct {
	Processed int           `json:"processed"`
	Indexed   int           `json:"indexed"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// Indexer owns the index entry lifecycle: one entry per live content id,
// replaced wholesale on every save, removed on delete.
type Indexer struct {
	repo    content.Repository
	store   index.Store
	cfg     config.IndexerConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func New(repo content.Repository, store index.Store, cfg config.IndexerConfig, m *metrics.Metrics) *Indexer {
	return &Indexer{
		repo:    repo,
		store:   store,
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "indexer"),
		now:     time.Now,
	}
}

// IndexOne fetches a content item and upserts its index entry. Content
// that is missing or not publicly visible is skipped without error.
// Re-indexing unchanged content produces an identical entry modulo
// IndexedAt.
func (ix *Indexer) IndexOne(ctx context.Context, contentID string) error {
	item, err := ix.repo.Get(ctx, contentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrContentNotFound) {
			ix.logger.Debug("content absent, skipping index", "content_id", contentID)
			return nil
		}
		return fmt.Errorf("fetching content %s: %w", contentID, err)
	}
	if !item.Published() {
		ix.logger.Debug("content not published, skipping index",
			"content_id", contentID,
			"status", item.Status,
		)
		return nil
	}

	now := ix.now()
	entry := index.Entry{
		ContentID:      item.ID,
		ContentType:    item.Type,
		Title:          item.Title,
		Body:           item.Body,
		Excerpt:        item.Excerpt,
		URL:            item.URL,
		Categories:     item.Categories,
		Tags:           item.Tags,
		RelevanceScore: relevanceScore(item, now),
		BoostFactor:    1.0,
		IndexedAt:      now,
	}
	if err := ix.store.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("indexing content %s: %w", contentID, err)
	}
	if ix.metrics != nil {
		ix.metrics.DocsIndexedTotal.Inc()
	}
	ix.logger.Debug("content indexed",
		"content_id", contentID,
		"relevance", entry.RelevanceScore,
	)
	return nil
}

// RemoveOne deletes the index entry for a content id. Absent entries are
// a no-op.
func (ix *Indexer) RemoveOne(ctx context.Context, contentID string) error {
	if err := ix.store.Delete(ctx, contentID); err != nil {
		return fmt.Errorf("removing content %s from index: %w", contentID, err)
	}
	if ix.metrics != nil {
		ix.metrics.DocsRemovedTotal.Inc()
	}
	ix.logger.Debug("content removed from index", "content_id", contentID)
	return nil
}

// SetBoostFactor records an external ranking override for a content id.
func (ix *Indexer) SetBoostFactor(ctx context.Context, contentID string, factor float64) error {
	if factor < 0 {
		return fmt.Errorf("%w: boost factor must be >= 0", apperrors.ErrInvalidInput)
	}
	return ix.store.SetBoostFactor(ctx, contentID, factor)
}

// BuildAll re-indexes every published item of the given types. Per-item
// failures are logged and skipped; the batch never aborts on one bad
// item. Progress reports are sent to the progress channel (if non-nil)
// with non-blocking sends so a slow consumer cannot stall the build. The
// context cancels the run cooperatively between items.
func (ix *Indexer) BuildAll(ctx context.Context, contentTypes []string, progress chan<- Progress) (Report, error) {
	if len(contentTypes) == 0 {
		contentTypes = ix.cfg.ContentTypes
	}
	start := ix.now()

	ids, err := ix.repo.ListIDs(ctx, contentTypes)
	if err != nil {
		return Report{}, fmt.Errorf("listing content for rebuild: %w", err)
	}
	ix.logger.Info("full index build starting",
		"types", contentTypes,
		"total", len(ids),
	)

	report := Report{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			report.Duration = ix.now().Sub(start)
			ix.logger.Warn("full index build cancelled",
				"processed", report.Processed,
				"total", len(ids),
			)
			return report, err
		}

		if err := ix.IndexOne(ctx, id); err != nil {
			report.Failed++
			if ix.metrics != nil {
				ix.metrics.IndexBuildFailures.Inc()
			}
			ix.logger.Error("item failed during full build, skipping",
				"content_id", id,
				"error", err,
			)
		} else {
			report.Indexed++
		}
		report.Processed++

		if progress != nil {
			select {
			case progress <- Progress{
				Processed: report.Processed,
				Total:     len(ids),
				Failed:    report.Failed,
				ContentID: id,
			}:
			default:
			}
		}
	}
	report.Skipped = report.Processed - report.Indexed - report.Failed
	report.Duration = ix.now().Sub(start)

	status := "ok"
	if report.Failed > 0 {
		status = "partial"
	}
	if ix.metrics != nil {
		ix.metrics.IndexBuildsTotal.WithLabelValues(status).Inc()
	}
	ix.logger.Info("full index build complete",
		"processed", report.Processed,
		"indexed", report.Indexed,
		"failed", report.Failed,
		"duration", report.Duration,
	)
	return report, nil
}

// Search performs a ranked lookup. An empty or whitespace-only term
// returns an empty result set without error. Page numbering starts at 1;
// pageSize is clamped to the configured ceiling.
func (ix *Indexer) Search(ctx context.Context, term string, filters Filters, page, pageSize int) ([]index.ScoredEntry, int, error) {
	if strings.TrimSpace(term) == "" {
		return nil, 0, nil
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = ix.cfg.MaxPageSize
	}
	if ix.cfg.MaxPageSize > 0 && pageSize > ix.cfg.MaxPageSize {
		pageSize = ix.cfg.MaxPageSize
	}
	offset := (page - 1) * pageSize

	results, total, err := ix.store.Search(ctx, term, filters.ContentTypes, offset, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("searching for %q: %w", term, err)
	}
	return results, total, nil
}

// Status returns a short human-readable summary of the index.
func (ix *Indexer) Status(ctx context.Context) (string, error) {
	count, err := ix.store.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("reading index status: %w", err)
	}
	return fmt.Sprintf("%d entries indexed", count), nil
}
