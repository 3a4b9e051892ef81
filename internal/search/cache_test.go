package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheKeyNormalizesQuery(t *testing.T) {
	a := cacheKey("  Organic   Gardening ", []string{"article", "page"}, 1, 20)
	b := cacheKey("organic gardening", []string{"page", "article"}, 1, 20)

	// Case, whitespace, and type order never fragment the cache.
	assert.Equal(t, a, b)
}

func TestCacheKeyVariesWithParameters(t *testing.T) {
	base := cacheKey("gardening", nil, 1, 20)

	assert.NotEqual(t, base, cacheKey("compost", nil, 1, 20))
	assert.NotEqual(t, base, cacheKey("gardening", []string{"article"}, 1, 20))
	assert.NotEqual(t, base, cacheKey("gardening", nil, 2, 20))
	assert.NotEqual(t, base, cacheKey("gardening", nil, 1, 10))
}
