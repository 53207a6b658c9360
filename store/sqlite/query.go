package sqlite

import "strings"

// query accumulates typed, parameterized conditions and renders a SELECT.
// Filters always combine with AND; values travel as placeholders, never
// concatenated into the SQL text.
type query struct {
	base  string
	conds []string
	args  []any
	order string
	limit int
}

func newQuery(base string) *query {
	return &query{base: base}
}

func (q *query) Where(cond string, args ...any) *query {
	q.conds = append(q.conds, cond)
	q.args = append(q.args, args...)
	return q
}

func (q *query) OrderBy(expr string) *query {
	q.order = expr
	return q
}

func (q *query) Limit(n int) *query {
	q.limit = n
	return q
}

// SQL renders the statement and its parameter list.
func (q *query) SQL() (string, []any) {
	var b strings.Builder
	b.WriteString(q.base)
	args := append([]any(nil), q.args...)

	if len(q.conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(q.conds, " AND "))
	}
	if q.order != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(q.order)
	}
	if q.limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, q.limit)
	}
	return b.String(), args
}
