package query

import (
	"strconv"
	"strings"
)

// Builder accumulates typed predicate clauses and their arguments
// together, so variable-length term lists never get concatenated into
// SQL text. Fragments use ? placeholders which are renumbered to $n when
// the clause is rendered.
type Builder struct {
	fragments []string
	args      []any
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Where appends a predicate fragment and its arguments. The fragment must
// contain exactly one ? per argument.
func (b *Builder) Where(fragment string, args ...any) *Builder {
	b.fragments = append(b.fragments, fragment)
	b.args = append(b.args, args...)
	return b
}

// Empty reports whether no predicates were added.
func (b *Builder) Empty() bool {
	return len(b.fragments) == 0
}

// Clause renders the accumulated predicates joined with AND, with
// placeholders renumbered starting at $1, and returns the argument list
// in matching order.
func (b *Builder) Clause() (string, []any) {
	if len(b.fragments) == 0 {
		return "TRUE", nil
	}
	var sb strings.Builder
	n := 0
	for i, fragment := range b.fragments {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		for _, r := range fragment {
			if r == '?' {
				n++
				sb.WriteString("$" + strconv.Itoa(n))
				continue
			}
			sb.WriteRune(r)
		}
	}
	return sb.String(), b.args
}
