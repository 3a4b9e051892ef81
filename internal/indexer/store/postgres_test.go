package store

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coralcms/sitesearch/internal/indexer/index"
	"github.com/coralcms/sitesearch/pkg/config"
	"github.com/coralcms/sitesearch/pkg/postgres"
)

// skipIfNoPostgres skips the test when PostgreSQL is unavailable and
// otherwise returns a migrated client.
func skipIfNoPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	db, err := postgres.New(config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            envOrDefaultInt("TEST_POSTGRES_PORT", 5432),
		Database:        envOrDefault("TEST_POSTGRES_DB", "sitesearch_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "sitesearch"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	})
	if err != nil {
		t.Skipf("skipping integration test: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	_, err = db.DB.ExecContext(context.Background(), `DELETE FROM search_index`)
	require.NoError(t, err)
	return db
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func testEntry(id, title, body string) index.Entry {
	return index.Entry{
		ContentID:      id,
		ContentType:    "article",
		Title:          title,
		Body:           body,
		URL:            "/" + id,
		RelevanceScore: 1.0,
		BoostFactor:    1.0,
		IndexedAt:      time.Now().UTC(),
	}
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	db := skipIfNoPostgres(t)
	s := NewPostgresStore(db)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, testEntry("c1", "Organic Gardening", "soil and compost")))

	entry, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Organic Gardening", entry.Title)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, s.Delete(ctx, "c1"))
	entry, err = s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestPostgresStoreUpsertPreservesBoost(t *testing.T) {
	db := skipIfNoPostgres(t)
	s := NewPostgresStore(db)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, testEntry("c1", "Organic Gardening", "soil")))
	require.NoError(t, s.SetBoostFactor(ctx, "c1", 4.0))
	require.NoError(t, s.Upsert(ctx, testEntry("c1", "Organic Gardening Updated", "soil")))

	entry, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Organic Gardening Updated", entry.Title)
	assert.Equal(t, 4.0, entry.BoostFactor)
}

func TestPostgresStoreRankedSearch(t *testing.T) {
	db := skipIfNoPostgres(t)
	s := NewPostgresStore(db)
	ctx := context.Background()

	boosted := testEntry("boosted", "Gardening Weekly", "short note on gardening")
	boosted.BoostFactor = 5.0
	require.NoError(t, s.Upsert(ctx, boosted))
	require.NoError(t, s.Upsert(ctx, testEntry("plain", "Gardening Monthly", "short note on gardening")))
	require.NoError(t, s.Upsert(ctx, testEntry("other", "Cycling News", "nothing relevant")))

	results, total, err := s.Search(ctx, "gardening", nil, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, results, 2)
	assert.Equal(t, "boosted", results[0].ContentID)

	results, total, err = s.Search(ctx, "gardening", []string{"page"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, results)
}

func TestPostgresStoreMatchingAll(t *testing.T) {
	db := skipIfNoPostgres(t)
	s := NewPostgresStore(db)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, testEntry("both", "Organic Gardening", "uses compost heavily")))
	require.NoError(t, s.Upsert(ctx, testEntry("one", "Organic Recipes", "no dirt involved")))

	entries, err := s.MatchingAll(ctx, []string{"organic", "compost"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "both", entries[0].ContentID)
}
