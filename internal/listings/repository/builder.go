package repository

import "fmt"

// sqlBuilder collects positional bound values for a statement under
// construction. Every user-controlled value goes through bind; clause text
// only ever contains placeholders, never values.
type sqlBuilder struct {
	args   []interface{}
	argIdx int
}

func newSQLBuilder() *sqlBuilder {
	return &sqlBuilder{argIdx: 1}
}

// bind appends a value and returns its positional placeholder.
func (b *sqlBuilder) bind(value interface{}) string {
	b.args = append(b.args, value)
	placeholder := fmt.Sprintf("$%d", b.argIdx)
	b.argIdx++
	return placeholder
}
