package indexer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coralcms/sitesearch/internal/content"
	"github.com/coralcms/sitesearch/internal/indexer/index"
	"github.com/coralcms/sitesearch/pkg/config"
	apperrors "github.com/coralcms/sitesearch/pkg/errors"
)

// stubRepo is an in-memory content.Repository for indexer tests.
type stubRepo struct {
	items   map[string]*content.Content
	ids     []string
	failIDs map[string]bool
}

func (r *stubRepo) Get(ctx context.Context, id string) (*content.Content, error) {
	if r.failIDs[id] {
		return nil, apperrors.ErrStorageUnavailable
	}
	item, ok := r.items[id]
	if !ok {
		return nil, apperrors.ErrContentNotFound
	}
	return item, nil
}

func (r *stubRepo) ListIDs(ctx context.Context, types []string) ([]string, error) {
	return r.ids, nil
}

func (r *stubRepo) ListTitles(ctx context.Context) ([]string, error) {
	var titles []string
	for _, item := range r.items {
		titles = append(titles, item.Title)
	}
	return titles, nil
}

func (r *stubRepo) ListTaxonomyTerms(ctx context.Context, taxonomy string) ([]content.TaxonomyTerm, error) {
	return nil, nil
}

func publishedArticle(id, title string, bodyLen int, publishedAt time.Time) *content.Content {
	return &content.Content{
		ID:          id,
		Type:        "article",
		Title:       title,
		Body:        strings.Repeat("x", bodyLen),
		URL:         "/" + id,
		Status:      content.StatusPublished,
		PublishedAt: publishedAt,
	}
}

func newTestIndexer(repo *stubRepo, store index.Store) *Indexer {
	return New(repo, store, config.IndexerConfig{
		ContentTypes: []string{"article", "page"},
		MaxPageSize:  10,
	}, nil)
}

func TestIndexOneSkipsAbsentAndUnpublished(t *testing.T) {
	old := time.Now().AddDate(-1, 0, 0)
	repo := &stubRepo{items: map[string]*content.Content{
		"draft": {ID: "draft", Type: "article", Title: "WIP", Status: content.StatusDraft, PublishedAt: old},
	}}
	store := index.NewMemoryStore()
	ix := newTestIndexer(repo, store)

	require.NoError(t, ix.IndexOne(context.Background(), "missing"))
	require.NoError(t, ix.IndexOne(context.Background(), "draft"))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestIndexOneIsIdempotentModuloIndexedAt(t *testing.T) {
	old := time.Now().AddDate(-1, 0, 0)
	repo := &stubRepo{items: map[string]*content.Content{
		"c1": publishedArticle("c1", "Gardening Basics", 100, old),
	}}
	store := index.NewMemoryStore()
	ix := newTestIndexer(repo, store)

	require.NoError(t, ix.IndexOne(context.Background(), "c1"))
	first, err := store.Get(context.Background(), "c1")
	require.NoError(t, err)
	require.NotNil(t, first)

	require.NoError(t, ix.IndexOne(context.Background(), "c1"))
	second, err := store.Get(context.Background(), "c1")
	require.NoError(t, err)
	require.NotNil(t, second)

	first.IndexedAt = second.IndexedAt
	assert.Equal(t, first, second)
}

func TestReindexPreservesBoostFactor(t *testing.T) {
	old := time.Now().AddDate(-1, 0, 0)
	repo := &stubRepo{items: map[string]*content.Content{
		"c1": publishedArticle("c1", "Gardening Basics", 100, old),
	}}
	store := index.NewMemoryStore()
	ix := newTestIndexer(repo, store)

	require.NoError(t, ix.IndexOne(context.Background(), "c1"))
	require.NoError(t, ix.SetBoostFactor(context.Background(), "c1", 3.0))
	require.NoError(t, ix.IndexOne(context.Background(), "c1"))

	entry, err := store.Get(context.Background(), "c1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 3.0, entry.BoostFactor)
}

func TestSetBoostFactorRejectsNegative(t *testing.T) {
	ix := newTestIndexer(&stubRepo{}, index.NewMemoryStore())

	err := ix.SetBoostFactor(context.Background(), "c1", -1)

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestRemoveOneIsIdempotent(t *testing.T) {
	old := time.Now().AddDate(-1, 0, 0)
	repo := &stubRepo{items: map[string]*content.Content{
		"c1": publishedArticle("c1", "Gardening Basics", 100, old),
	}}
	store := index.NewMemoryStore()
	ix := newTestIndexer(repo, store)

	require.NoError(t, ix.IndexOne(context.Background(), "c1"))
	require.NoError(t, ix.RemoveOne(context.Background(), "c1"))
	require.NoError(t, ix.RemoveOne(context.Background(), "c1"))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestBuildAllIsolatesItemFailures(t *testing.T) {
	old := time.Now().AddDate(-1, 0, 0)
	repo := &stubRepo{
		items: map[string]*content.Content{
			"c1": publishedArticle("c1", "First", 100, old),
			"c3": publishedArticle("c3", "Third", 100, old),
		},
		ids:     []string{"c1", "c2", "c3"},
		failIDs: map[string]bool{"c2": true},
	}
	store := index.NewMemoryStore()
	ix := newTestIndexer(repo, store)

	report, err := ix.BuildAll(context.Background(), nil, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 2, report.Indexed)
	assert.Equal(t, 1, report.Failed)

	count, _ := store.Count(context.Background())
	assert.Equal(t, 2, count)
}

func TestBuildAllStopsOnCancel(t *testing.T) {
	old := time.Now().AddDate(-1, 0, 0)
	repo := &stubRepo{
		items: map[string]*content.Content{
			"c1": publishedArticle("c1", "First", 100, old),
		},
		ids: []string{"c1", "c2", "c3"},
	}
	ix := newTestIndexer(repo, index.NewMemoryStore())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := ix.BuildAll(ctx, nil, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, report.Processed)
}

func TestBuildAllReportsProgress(t *testing.T) {
	old := time.Now().AddDate(-1, 0, 0)
	repo := &stubRepo{
		items: map[string]*content.Content{
			"c1": publishedArticle("c1", "First", 100, old),
			"c2": publishedArticle("c2", "Second", 100, old),
		},
		ids: []string{"c1", "c2"},
	}
	ix := newTestIndexer(repo, index.NewMemoryStore())

	progress := make(chan Progress, 16)
	report, err := ix.BuildAll(context.Background(), nil, progress)
	close(progress)

	require.NoError(t, err)
	assert.Equal(t, 2, report.Indexed)

	var last Progress
	for p := range progress {
		last = p
	}
	assert.Equal(t, 2, last.Processed)
	assert.Equal(t, 2, last.Total)
}

func TestSearchEmptyTermReturnsNothing(t *testing.T) {
	ix := newTestIndexer(&stubRepo{}, index.NewMemoryStore())

	results, total, err := ix.Search(context.Background(), "   ", Filters{}, 1, 10)

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, total)
}

func TestSearchRanksLongerBodiesHigher(t *testing.T) {
	old := time.Now().AddDate(-1, 0, 0)
	repo := &stubRepo{items: map[string]*content.Content{
		"long":   publishedArticle("long", "Gardening Guide", 3000, old),
		"medium": publishedArticle("medium", "Gardening Notes", 1000, old),
		"short":  publishedArticle("short", "Gardening Tips", 100, old),
	}}
	store := index.NewMemoryStore()
	ix := newTestIndexer(repo, store)
	for _, id := range []string{"short", "long", "medium"} {
		require.NoError(t, ix.IndexOne(context.Background(), id))
	}

	results, total, err := ix.Search(context.Background(), "gardening", Filters{}, 1, 10)

	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, results, 3)
	assert.Equal(t, "long", results[0].ContentID)
	assert.Equal(t, "medium", results[1].ContentID)
	assert.Equal(t, "short", results[2].ContentID)
}

func TestSearchPaginationClampsPageSize(t *testing.T) {
	old := time.Now().AddDate(-1, 0, 0)
	repo := &stubRepo{items: map[string]*content.Content{}}
	store := index.NewMemoryStore()
	ix := newTestIndexer(repo, store)
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		repo.items[id] = publishedArticle(id, "Gardening "+id, 100, old)
		require.NoError(t, ix.IndexOne(context.Background(), id))
	}

	// Requested page size 100 is clamped to the configured ceiling of 10.
	page1, total, err := ix.Search(context.Background(), "gardening", Filters{}, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Len(t, page1, 10)

	page2, _, err := ix.Search(context.Background(), "gardening", Filters{}, 2, 100)
	require.NoError(t, err)
	assert.Len(t, page2, 2)
}

func TestSearchFiltersByContentType(t *testing.T) {
	old := time.Now().AddDate(-1, 0, 0)
	article := publishedArticle("a1", "Gardening Article", 100, old)
	page := publishedArticle("p1", "Gardening Page", 100, old)
	page.Type = "page"
	repo := &stubRepo{items: map[string]*content.Content{"a1": article, "p1": page}}
	store := index.NewMemoryStore()
	ix := newTestIndexer(repo, store)
	require.NoError(t, ix.IndexOne(context.Background(), "a1"))
	require.NoError(t, ix.IndexOne(context.Background(), "p1"))

	results, total, err := ix.Search(context.Background(), "gardening", Filters{ContentTypes: []string{"page"}}, 1, 10)

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, results, 1)
	assert.Equal(t, "p1", results[0].ContentID)
}
