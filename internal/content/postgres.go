package content

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	apperrors "github.com/coralcms/sitesearch/pkg/errors"
	"github.com/coralcms/sitesearch/pkg/postgres"
)

// PostgresRepository reads content from the CMS tables. The schema is
// owned by the CMS; this repository only ever selects from it.
type PostgresRepository struct {
	db *postgres.Client
}

func NewPostgresRepository(db *postgres.Client) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Content, error) {
	var c Content
	err := r.db.DB.QueryRowContext(ctx, `
		SELECT id, content_type, title, body, excerpt, url, status,
		       published_at, categories, tags, comment_count
		FROM cms_content
		WHERE id = $1`,
		id,
	).Scan(
		&c.ID, &c.Type, &c.Title, &c.Body, &c.Excerpt, &c.URL, &c.Status,
		&c.PublishedAt, pq.Array(&c.Categories), pq.Array(&c.Tags), &c.CommentCount,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: fetching content %s: %v", apperrors.ErrStorageUnavailable, id, err)
	}
	return &c, nil
}

func (r *PostgresRepository) ListIDs(ctx context.Context, types []string) ([]string, error) {
	rows, err := r.db.DB.QueryContext(ctx, `
		SELECT id FROM cms_content
		WHERE status = $1 AND content_type = ANY($2)
		ORDER BY published_at DESC`,
		StatusPublished, pq.Array(types),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: listing content ids: %v", apperrors.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning content id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresRepository) ListTitles(ctx context.Context) ([]string, error) {
	rows, err := r.db.DB.QueryContext(ctx, `
		SELECT title FROM cms_content WHERE status = $1`,
		StatusPublished,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: listing titles: %v", apperrors.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scanning title: %w", err)
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

func (r *PostgresRepository) ListTaxonomyTerms(ctx context.Context, taxonomy string) ([]TaxonomyTerm, error) {
	rows, err := r.db.DB.QueryContext(ctx, `
		SELECT label, usage_count FROM cms_taxonomy_terms
		WHERE taxonomy = $1 AND usage_count > 0`,
		taxonomy,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: listing taxonomy terms: %v", apperrors.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var terms []TaxonomyTerm
	for rows.Next() {
		var t TaxonomyTerm
		if err := rows.Scan(&t.Label, &t.UsageCount); err != nil {
			return nil, fmt.Errorf("scanning taxonomy term: %w", err)
		}
		terms = append(terms, t)
	}
	return terms, rows.Err()
}
