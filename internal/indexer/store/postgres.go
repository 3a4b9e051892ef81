// Package store provides the PostgreSQL-backed index entry store. Ranked
// search runs in SQL over a generated tsvector column; the pattern-based
// retrieval path builds its predicates through the typed clause builder.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/coralcms/sitesearch/internal/indexer/index"
	"github.com/coralcms/sitesearch/internal/query"
	apperrors "github.com/coralcms/sitesearch/pkg/errors"
	"github.com/coralcms/sitesearch/pkg/postgres"
)

type PostgresStore struct {
	db *postgres.Client
}

func NewPostgresStore(db *postgres.Client) *PostgresStore {
	return &PostgresStore{db: db}
}

// Upsert inserts or replaces an index entry. On conflict every field is
// replaced except boost_factor, which is an external override and
// survives re-indexing.
func (s *PostgresStore) Upsert(ctx context.Context, entry index.Entry) error {
	if entry.BoostFactor <= 0 {
		entry.BoostFactor = 1.0
	}
	_, err := s.db.DB.ExecContext(ctx, `
		INSERT INTO search_index (
			content_id, content_type, title, body, excerpt, url,
			categories, tags, relevance_score, boost_factor, indexed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (content_id) DO UPDATE SET
			content_type    = EXCLUDED.content_type,
			title           = EXCLUDED.title,
			body            = EXCLUDED.body,
			excerpt         = EXCLUDED.excerpt,
			url             = EXCLUDED.url,
			categories      = EXCLUDED.categories,
			tags            = EXCLUDED.tags,
			relevance_score = EXCLUDED.relevance_score,
			indexed_at      = EXCLUDED.indexed_at`,
		entry.ContentID, entry.ContentType, entry.Title, entry.Body,
		entry.Excerpt, entry.URL, pq.Array(entry.Categories),
		pq.Array(entry.Tags), entry.RelevanceScore, entry.BoostFactor,
		entry.IndexedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: upserting index entry %s: %v", apperrors.ErrStorageUnavailable, entry.ContentID, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, contentID string) error {
	_, err := s.db.DB.ExecContext(ctx,
		`DELETE FROM search_index WHERE content_id = $1`, contentID,
	)
	if err != nil {
		return fmt.Errorf("%w: deleting index entry %s: %v", apperrors.ErrStorageUnavailable, contentID, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, contentID string) (*index.Entry, error) {
	var e index.Entry
	err := s.db.DB.QueryRowContext(ctx, `
		SELECT content_id, content_type, title, body, excerpt, url,
		       categories, tags, relevance_score, boost_factor, indexed_at
		FROM search_index
		WHERE content_id = $1`,
		contentID,
	).Scan(
		&e.ContentID, &e.ContentType, &e.Title, &e.Body, &e.Excerpt, &e.URL,
		pq.Array(&e.Categories), pq.Array(&e.Tags),
		&e.RelevanceScore, &e.BoostFactor, &e.IndexedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: fetching index entry %s: %v", apperrors.ErrStorageUnavailable, contentID, err)
	}
	return &e, nil
}

func (s *PostgresStore) SetBoostFactor(ctx context.Context, contentID string, factor float64) error {
	_, err := s.db.DB.ExecContext(ctx,
		`UPDATE search_index SET boost_factor = $2 WHERE content_id = $1`,
		contentID, factor,
	)
	if err != nil {
		return fmt.Errorf("%w: setting boost factor for %s: %v", apperrors.ErrStorageUnavailable, contentID, err)
	}
	return nil
}

// Search runs the ranked full-text lookup in SQL. The final score is
// ts_rank * relevance_score * boost_factor; ties break on indexed_at
// descending. The total match count rides along on a window function so
// pagination needs a single round trip.
func (s *PostgresStore) Search(ctx context.Context, term string, contentTypes []string, offset, limit int) ([]index.ScoredEntry, int, error) {
	if contentTypes == nil {
		contentTypes = []string{}
	}
	rows, err := s.db.DB.QueryContext(ctx, `
		SELECT content_id, title, url,
		       ts_rank(tsv, q) * relevance_score * boost_factor AS score,
		       indexed_at,
		       COUNT(*) OVER () AS total
		FROM search_index, plainto_tsquery('simple', $1) q
		WHERE tsv @@ q
		  AND (cardinality($2::text[]) = 0 OR content_type = ANY($2::text[]))
		ORDER BY score DESC, indexed_at DESC, content_id
		LIMIT $3 OFFSET $4`,
		term, pq.Array(contentTypes), limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: searching for %q: %v", apperrors.ErrStorageUnavailable, term, err)
	}
	defer rows.Close()

	var (
		results []index.ScoredEntry
		total   int
	)
	for rows.Next() {
		var r index.ScoredEntry
		if err := rows.Scan(&r.ContentID, &r.Title, &r.URL, &r.Score, &r.IndexedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scanning search result: %w", err)
		}
		results = append(results, r)
	}
	return results, total, rows.Err()
}

// MatchingAll returns entries whose title or body contains every term,
// using ILIKE predicates accumulated through the clause builder.
func (s *PostgresStore) MatchingAll(ctx context.Context, terms []string) ([]index.Entry, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	b := query.NewBuilder()
	for _, term := range terms {
		pattern := "%" + term + "%"
		b.Where("(title ILIKE ? OR body ILIKE ?)", pattern, pattern)
	}
	where, args := b.Clause()

	rows, err := s.db.DB.QueryContext(ctx, `
		SELECT content_id, content_type, title, body, excerpt, url,
		       categories, tags, relevance_score, boost_factor, indexed_at
		FROM search_index
		WHERE `+where,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: pattern search: %v", apperrors.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var entries []index.Entry
	for rows.Next() {
		var e index.Entry
		if err := rows.Scan(
			&e.ContentID, &e.ContentType, &e.Title, &e.Body, &e.Excerpt, &e.URL,
			pq.Array(&e.Categories), pq.Array(&e.Tags),
			&e.RelevanceScore, &e.BoostFactor, &e.IndexedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning index entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM search_index`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting index entries: %v", apperrors.ErrStorageUnavailable, err)
	}
	return count, nil
}
