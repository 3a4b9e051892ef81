package indexer

import (
	"time"

	"github.com/coralcms/sitesearch/internal/content"
)

// Relevance heuristic constants. The three signals are independent and
// additive on a base of 1.0 so that any one of them missing never zeroes
// an entry out.
const (
	baseScore = 1.0

	longBodyChars   = 2000
	mediumBodyChars = 500
	longBodyBonus   = 0.4
	mediumBodyBonus = 0.2

	freshAge     = 30 * 24 * time.Hour
	recentAge    = 90 * 24 * time.Hour
	freshBonus   = 0.5
	recentBonus  = 0.25

	busyComments   = 20
	activeComments = 5
	busyBonus      = 0.4
	activeBonus    = 0.2
)

// relevanceScore computes the static quality heuristic for a content item
// from body length, publish recency, and comment engagement. It is a pure
// function of the item and the reference time, so re-indexing unchanged
// content at the same instant yields the same score.
func relevanceScore(c *content.Content, now time.Time) float64 {
	score := baseScore

	switch n := len(c.Body); {
	case n > longBodyChars:
		score += longBodyBonus
	case n > mediumBodyChars:
		score += mediumBodyBonus
	}

	switch age := now.Sub(c.PublishedAt); {
	case age <= freshAge:
		score += freshBonus
	case age <= recentAge:
		score += recentBonus
	}

	switch {
	case c.CommentCount > busyComments:
		score += busyBonus
	case c.CommentCount > activeComments:
		score += activeBonus
	}

	return score
}
