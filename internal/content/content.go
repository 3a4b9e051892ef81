// Package content defines the contract with the site's content repository.
// The search core never owns content; it reads published items and
// taxonomy terms through the Repository interface and reacts to change
// events delivered over Kafka.
package content

import (
	"context"
	"time"
)

// Status values as stored by the CMS.
const (
	StatusPublished = "published"
	StatusDraft     = "draft"
	StatusPrivate   = "private"
)

// Content is a single content item as the CMS exposes it.
type Content struct {
	ID           string
	Type         string
	Title        string
	Body         string
	Excerpt      string
	URL          string
	Status       string
	PublishedAt  time.Time
	Categories   []string
	Tags         []string
	CommentCount int
}

// Published reports whether the item is publicly visible.
func (c *Content) Published() bool {
	return c.Status == StatusPublished
}

// TaxonomyTerm is a category or tag label with its usage count.
type TaxonomyTerm struct {
	Label      string
	UsageCount int
}

// Taxonomy kinds accepted by ListTaxonomyTerms.
const (
	TaxonomyCategory = "category"
	TaxonomyTag      = "tag"
)

// Repository is the read-only view of the content store.
//
// Get returns errors.ErrContentNotFound for unknown ids.
type Repository interface {
	Get(ctx context.Context, id string) (*Content, error)
	ListIDs(ctx context.Context, types []string) ([]string, error)
	ListTitles(ctx context.Context) ([]string, error)
	ListTaxonomyTerms(ctx context.Context, taxonomy string) ([]TaxonomyTerm, error)
}
