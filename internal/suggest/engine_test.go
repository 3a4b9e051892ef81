package suggest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coralcms/sitesearch/internal/content"
	"github.com/coralcms/sitesearch/pkg/config"
)

// stubRepo is an in-memory content.Repository for suggestion tests.
type stubRepo struct {
	titles      []string
	taxonomy    map[string][]content.TaxonomyTerm
	taxonomyErr error
}

func (r *stubRepo) Get(ctx context.Context, id string) (*content.Content, error) {
	return nil, errors.New("not implemented")
}

func (r *stubRepo) ListIDs(ctx context.Context, types []string) ([]string, error) {
	return nil, nil
}

func (r *stubRepo) ListTitles(ctx context.Context) ([]string, error) {
	return r.titles, nil
}

func (r *stubRepo) ListTaxonomyTerms(ctx context.Context, taxonomy string) ([]content.TaxonomyTerm, error) {
	if r.taxonomyErr != nil {
		return nil, r.taxonomyErr
	}
	return r.taxonomy[taxonomy], nil
}

func testSuggestConfig() config.SuggestConfig {
	return config.SuggestConfig{
		MaxTerms:       1000,
		TitleTermLimit: 500,
		MinTermLength:  3,
		MinQueryLength: 2,
		DefaultLimit:   5,
	}
}

func newEngineWithTerms(terms []Term) *Engine {
	e := NewEngine(&stubRepo{}, nil, nil, testSuggestConfig(), nil)
	e.swap(terms)
	return e
}

func TestGetSuggestionsScoreTiers(t *testing.T) {
	e := newEngineWithTerms([]Term{
		{Term: "bicycle", Frequency: 10},
		{Term: "motorcycle", Frequency: 5},
	})

	prefix := e.GetSuggestions("bicy", 0)
	require.Len(t, prefix, 1)
	assert.Equal(t, "bicycle", prefix[0].Term)
	assert.Equal(t, 100, prefix[0].Score)

	substring := e.GetSuggestions("cycle", 0)
	require.Len(t, substring, 2)
	assert.Equal(t, 80, substring[0].Score)
	// Equal scores break on frequency.
	assert.Equal(t, "bicycle", substring[0].Term)
	assert.Equal(t, "motorcycle", substring[1].Term)

	fuzzy := e.GetSuggestions("bicycel", 0)
	require.Len(t, fuzzy, 1)
	assert.Equal(t, "bicycle", fuzzy[0].Term)
	assert.Equal(t, 45, fuzzy[0].Score)
}

func TestGetSuggestionsRejectsShortQueries(t *testing.T) {
	e := newEngineWithTerms([]Term{{Term: "gardening", Frequency: 1}})

	assert.Nil(t, e.GetSuggestions("g", 0))
	assert.Nil(t, e.GetSuggestions("  ", 0))
}

func TestGetSuggestionsFrequencyTieBreak(t *testing.T) {
	e := newEngineWithTerms([]Term{
		{Term: "garden", Frequency: 12},
		{Term: "gardening", Frequency: 50},
	})

	matches := e.GetSuggestions("garde", 0)

	require.Len(t, matches, 2)
	assert.Equal(t, "gardening", matches[0].Term)
	assert.Equal(t, "garden", matches[1].Term)
}

func TestGetSuggestionsHonorsLimit(t *testing.T) {
	e := newEngineWithTerms([]Term{
		{Term: "gardening", Frequency: 5},
		{Term: "gardens", Frequency: 4},
		{Term: "gardenia", Frequency: 3},
	})

	matches := e.GetSuggestions("garden", 2)

	assert.Len(t, matches, 2)
}

func TestGetSuggestionsSkipsDistantTerms(t *testing.T) {
	e := newEngineWithTerms([]Term{
		{Term: "encyclopedia", Frequency: 5},
	})

	// No prefix, no substring, length difference beyond the fuzzy bound.
	assert.Empty(t, e.GetSuggestions("cat", 0))
}

func TestBuildFromContentMergesTaxonomy(t *testing.T) {
	repo := &stubRepo{
		titles: []string{"Organic Gardening", "Organic Recipes"},
		taxonomy: map[string][]content.TaxonomyTerm{
			content.TaxonomyCategory: {{Label: "Gardening", UsageCount: 7}},
			content.TaxonomyTag:      {{Label: "Compost", UsageCount: 2}},
		},
	}
	e := NewEngine(repo, nil, nil, testSuggestConfig(), nil)

	count, err := e.BuildFromContent(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, count)

	snap := e.current.Load()
	byTerm := make(map[string]Term, len(snap.terms))
	for _, term := range snap.terms {
		byTerm[term.Term] = term
	}
	// Title frequency 1 merged with taxonomy usage 7.
	assert.Equal(t, 8, byTerm["gardening"].Frequency)
	assert.Equal(t, SourceContent, byTerm["gardening"].Source)
	assert.Equal(t, 2, byTerm["organic"].Frequency)
	assert.Equal(t, 2, byTerm["compost"].Frequency)
	assert.Equal(t, SourceTaxonomy, byTerm["compost"].Source)
}

func TestBuildFromContentTruncatesToMaxTerms(t *testing.T) {
	cfg := testSuggestConfig()
	cfg.MaxTerms = 2
	repo := &stubRepo{
		titles: []string{
			"Gardening Gardening Gardening",
			"Compost Compost",
			"Seedlings",
		},
	}
	e := NewEngine(repo, nil, nil, cfg, nil)

	count, err := e.BuildFromContent(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, count)

	matches := e.GetSuggestions("seed", 0)
	assert.Empty(t, matches)
}

func TestBuildFromContentSurvivesTaxonomyFailure(t *testing.T) {
	repo := &stubRepo{
		titles:      []string{"Organic Gardening"},
		taxonomyErr: errors.New("table missing"),
	}
	e := NewEngine(repo, nil, nil, testSuggestConfig(), nil)

	count, err := e.BuildFromContent(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestBuildFromContentDropsShortWords(t *testing.T) {
	repo := &stubRepo{titles: []string{"How to Fix Gardening Tools"}}
	e := NewEngine(repo, nil, nil, testSuggestConfig(), nil)

	_, err := e.BuildFromContent(context.Background())
	require.NoError(t, err)

	// Words of three or fewer letters never enter the snapshot.
	assert.Empty(t, e.GetSuggestions("fix", 0))
	assert.NotEmpty(t, e.GetSuggestions("tool", 0))
}

func TestRebuildOnSaveDebounced(t *testing.T) {
	repo := &stubRepo{titles: []string{"Organic Gardening"}}
	e := NewEngine(repo, nil, NewLocalDebouncer(time.Minute), testSuggestConfig(), nil)

	e.RebuildOnSave(context.Background())
	terms, builtAt := e.SnapshotInfo()
	assert.Equal(t, 2, terms)

	// The second save inside the window must not rebuild.
	e.RebuildOnSave(context.Background())
	_, builtAgain := e.SnapshotInfo()
	assert.Equal(t, builtAt, builtAgain)
}

func TestLocalDebouncerWindow(t *testing.T) {
	d := NewLocalDebouncer(50 * time.Millisecond)

	assert.True(t, d.TryAcquire(context.Background()))
	assert.False(t, d.TryAcquire(context.Background()))

	time.Sleep(60 * time.Millisecond)
	assert.True(t, d.TryAcquire(context.Background()))
}
