package indexer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/coralcms/sitesearch/internal/content"
)

func TestRelevanceScoreSignals(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		item content.Content
		want float64
	}{
		{
			"base score only",
			content.Content{Body: strings.Repeat("x", 100), PublishedAt: now.AddDate(-1, 0, 0)},
			1.0,
		},
		{
			"long body",
			content.Content{Body: strings.Repeat("x", 2001), PublishedAt: now.AddDate(-1, 0, 0)},
			1.4,
		},
		{
			"medium body",
			content.Content{Body: strings.Repeat("x", 501), PublishedAt: now.AddDate(-1, 0, 0)},
			1.2,
		},
		{
			"fresh publish",
			content.Content{Body: "x", PublishedAt: now.AddDate(0, 0, -10)},
			1.5,
		},
		{
			"recent publish",
			content.Content{Body: "x", PublishedAt: now.AddDate(0, 0, -60)},
			1.25,
		},
		{
			"busy comments",
			content.Content{Body: "x", PublishedAt: now.AddDate(-1, 0, 0), CommentCount: 21},
			1.4,
		},
		{
			"active comments",
			content.Content{Body: "x", PublishedAt: now.AddDate(-1, 0, 0), CommentCount: 6},
			1.2,
		},
		{
			"all signals stack",
			content.Content{Body: strings.Repeat("x", 2001), PublishedAt: now.AddDate(0, 0, -10), CommentCount: 21},
			2.3,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, relevanceScore(&tc.item, now), 1e-9)
		})
	}
}

func TestRelevanceScoreIsDeterministic(t *testing.T) {
	now := time.Now()
	item := content.Content{Body: strings.Repeat("x", 1000), PublishedAt: now.AddDate(0, 0, -5), CommentCount: 10}

	assert.Equal(t, relevanceScore(&item, now), relevanceScore(&item, now))
}
