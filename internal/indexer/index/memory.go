package index

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store backed by a map of entries. It backs
// unit tests and single-node deployments that run without PostgreSQL.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (m *MemoryStore) Upsert(ctx context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.entries[entry.ContentID]; ok {
		entry.BoostFactor = existing.BoostFactor
	} else if entry.BoostFactor <= 0 {
		entry.BoostFactor = 1.0
	}
	m.entries[entry.ContentID] = entry
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, contentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, contentID)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, contentID string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[contentID]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (m *MemoryStore) SetBoostFactor(ctx context.Context, contentID string, factor float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[contentID]
	if !ok {
		return nil
	}
	entry.BoostFactor = factor
	m.entries[contentID] = entry
	return nil
}

func (m *MemoryStore) Search(ctx context.Context, term string, contentTypes []string, offset, limit int) ([]ScoredEntry, int, error) {
	words := strings.Fields(strings.ToLower(term))
	if len(words) == 0 {
		return nil, 0, nil
	}

	m.mu.RLock()
	matched := make([]ScoredEntry, 0)
	for _, entry := range m.entries {
		if !typeAllowed(entry.ContentType, contentTypes) {
			continue
		}
		textMatch := matchTier(entry, words)
		if textMatch == 0 {
			continue
		}
		matched = append(matched, ScoredEntry{
			ContentID: entry.ContentID,
			Title:     entry.Title,
			URL:       entry.URL,
			Score:     textMatch * entry.RelevanceScore * entry.BoostFactor,
			IndexedAt: entry.IndexedAt,
		})
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Score != matched[j].Score {
			return matched[i].Score > matched[j].Score
		}
		if !matched[i].IndexedAt.Equal(matched[j].IndexedAt) {
			return matched[i].IndexedAt.After(matched[j].IndexedAt)
		}
		return matched[i].ContentID < matched[j].ContentID
	})

	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (m *MemoryStore) MatchingAll(ctx context.Context, terms []string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []Entry
	for _, entry := range m.entries {
		text := strings.ToLower(entry.Title + " " + entry.Body)
		all := true
		for _, term := range terms {
			if !strings.Contains(text, strings.ToLower(term)) {
				all = false
				break
			}
		}
		if all && len(terms) > 0 {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

// matchTier returns the text-match weight for an entry: 2.0 when every
// query word appears in the title, 1.5 when title+excerpt cover them,
// 1.0 when the body is needed, 0 when any word is missing entirely.
func matchTier(entry Entry, words []string) float64 {
	title := strings.ToLower(entry.Title)
	titleExcerpt := title + " " + strings.ToLower(entry.Excerpt)
	full := titleExcerpt + " " + strings.ToLower(entry.Body)

	tier := 2.0
	for _, w := range words {
		switch {
		case strings.Contains(title, w):
		case strings.Contains(titleExcerpt, w):
			if tier > 1.5 {
				tier = 1.5
			}
		case strings.Contains(full, w):
			tier = 1.0
		default:
			return 0
		}
	}
	return tier
}

func typeAllowed(contentType string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, t := range allowed {
		if t == contentType {
			return true
		}
	}
	return false
}
