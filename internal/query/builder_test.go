package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilderRenumbersPlaceholders(t *testing.T) {
	b := NewBuilder()
	b.Where("(title ILIKE ? OR body ILIKE ?)", "%garden%", "%garden%")
	b.Where("(title ILIKE ? OR body ILIKE ?)", "%soil%", "%soil%")

	where, args := b.Clause()

	assert.Equal(t,
		"(title ILIKE $1 OR body ILIKE $2) AND (title ILIKE $3 OR body ILIKE $4)",
		where,
	)
	assert.Equal(t, []any{"%garden%", "%garden%", "%soil%", "%soil%"}, args)
}

func TestBuilderEmptyClause(t *testing.T) {
	b := NewBuilder()

	assert.True(t, b.Empty())
	where, args := b.Clause()
	assert.Equal(t, "TRUE", where)
	assert.Nil(t, args)
}

func TestBuilderSingleFragment(t *testing.T) {
	b := NewBuilder()
	b.Where("content_type = ?", "article")

	assert.False(t, b.Empty())
	where, args := b.Clause()
	assert.Equal(t, "content_type = $1", where)
	assert.Equal(t, []any{"article"}, args)
}
