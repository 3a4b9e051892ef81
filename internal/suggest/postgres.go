package suggest

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "github.com/coralcms/sitesearch/pkg/errors"
	"github.com/coralcms/sitesearch/pkg/postgres"
)

// PostgresSnapshotStore persists the suggestion snapshot in the
// suggestion_terms table. Replace deletes and reinserts inside one
// transaction so concurrent readers of the table never see a partial set.
type PostgresSnapshotStore struct {
	db *postgres.Client
}

func NewPostgresSnapshotStore(db *postgres.Client) *PostgresSnapshotStore {
	return &PostgresSnapshotStore{db: db}
}

func (s *PostgresSnapshotStore) Replace(ctx context.Context, terms []Term) error {
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM suggestion_terms`); err != nil {
			return fmt.Errorf("clearing suggestion terms: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO suggestion_terms (term, frequency, source_type, rank)
			VALUES ($1, $2, $3, $4)`)
		if err != nil {
			return fmt.Errorf("preparing suggestion insert: %w", err)
		}
		defer stmt.Close()
		for rank, t := range terms {
			if _, err := stmt.ExecContext(ctx, t.Term, t.Frequency, string(t.Source), rank); err != nil {
				return fmt.Errorf("inserting suggestion term %q: %w", t.Term, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: replacing suggestion snapshot: %v", apperrors.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *PostgresSnapshotStore) Load(ctx context.Context) ([]Term, error) {
	rows, err := s.db.DB.QueryContext(ctx, `
		SELECT term, frequency, source_type
		FROM suggestion_terms
		ORDER BY rank`)
	if err != nil {
		return nil, fmt.Errorf("%w: loading suggestion snapshot: %v", apperrors.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var terms []Term
	for rows.Next() {
		var t Term
		var source string
		if err := rows.Scan(&t.Term, &t.Frequency, &source); err != nil {
			return nil, fmt.Errorf("scanning suggestion term: %w", err)
		}
		t.Source = SourceType(source)
		terms = append(terms, t)
	}
	return terms, rows.Err()
}
