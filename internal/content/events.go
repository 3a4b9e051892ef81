package content

import "time"

// ChangedEvent is published by the CMS when a content item is created or
// saved. The payload carries only the id; the search core re-reads the
// item through the Repository so the index always reflects the
// authoritative record.
type ChangedEvent struct {
	ContentID   string    `json:"content_id"`
	ContentType string    `json:"content_type"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// DeletedEvent is published by the CMS when a content item is removed or
// unpublished.
type DeletedEvent struct {
	ContentID  string    `json:"content_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
