package analytics

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	apperrors "github.com/coralcms/sitesearch/pkg/errors"
	"github.com/coralcms/sitesearch/pkg/postgres"
)

// EventStore persists analytics events. Writes are append-only.
type EventStore interface {
	Insert(ctx context.Context, event Event) error
	ListSince(ctx context.Context, since time.Time) ([]Event, error)
}

// PostgresEventStore stores events in the search_events table.
type PostgresEventStore struct {
	db *postgres.Client
}

func NewPostgresEventStore(db *postgres.Client) *PostgresEventStore {
	return &PostgresEventStore{db: db}
}

func (s *PostgresEventStore) Insert(ctx context.Context, event Event) error {
	_, err := s.db.DB.ExecContext(ctx, `
		INSERT INTO search_events (id, query, result_count, client_ip, user_agent, referrer, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.Query, event.ResultCount, event.ClientIP,
		event.UserAgent, event.Referrer, event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("%w: inserting search event: %v", apperrors.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *PostgresEventStore) ListSince(ctx context.Context, since time.Time) ([]Event, error) {
	rows, err := s.db.DB.QueryContext(ctx, `
		SELECT id, query, result_count, client_ip, user_agent, referrer, occurred_at
		FROM search_events
		WHERE occurred_at >= $1
		ORDER BY occurred_at`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: listing search events: %v", apperrors.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Query, &e.ResultCount, &e.ClientIP, &e.UserAgent, &e.Referrer, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scanning search event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// MemoryEventStore is the in-process EventStore used in tests and
// storage-less deployments.
type MemoryEventStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{}
}

func (s *MemoryEventStore) Insert(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryEventStore) ListSince(ctx context.Context, since time.Time) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if !e.OccurredAt.Before(since) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}
