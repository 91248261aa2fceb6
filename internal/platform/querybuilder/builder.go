// Package querybuilder renders the small set of Postgres statements the
// repositories need, numbering placeholders in the order arguments appear.
package querybuilder

import (
	"errors"
	"strconv"
	"strings"
)

// statement accumulates SQL text and positional arguments.
type statement struct {
	sql  strings.Builder
	args []any
}

func (s *statement) write(parts ...string) {
	for _, p := range parts {
		s.sql.WriteString(p)
	}
}

func (s *statement) bind(value any) {
	s.args = append(s.args, value)
	s.sql.WriteString("$")
	s.sql.WriteString(strconv.Itoa(len(s.args)))
}

func (s *statement) where(conds []Condition) {
	for i, c := range conds {
		if i == 0 {
			s.write(" WHERE ")
		} else {
			s.write(" AND ")
		}
		c.render(s)
	}
}

func (s *statement) suffix(sql string) {
	if sql != "" {
		s.write(" ", sql)
	}
}

func (s *statement) done() (string, []any, error) {
	return s.sql.String(), s.args, nil
}

type SelectBuilder struct {
	distinct bool
	columns  []string
	table    string
	joins    []string
	where    []Condition
	orderBy  []string
	limit    int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: columns}
}

func SelectDistinct(columns ...string) *SelectBuilder {
	return &SelectBuilder{distinct: true, columns: columns}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = strings.TrimSpace(table)
	return b
}

// Join adds an inner join; on is raw SQL without placeholders.
func (b *SelectBuilder) Join(table, on string) *SelectBuilder {
	b.joins = append(b.joins, "JOIN "+table+" ON "+on)
	return b
}

func (b *SelectBuilder) Where(conds ...Condition) *SelectBuilder {
	b.where = append(b.where, conds...)
	return b
}

func (b *SelectBuilder) OrderBy(terms ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, terms...)
	return b
}

// Limit of zero or less means unbounded.
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = n
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, errors.New("select columns are required")
	}
	if b.table == "" {
		return "", nil, errors.New("select table is required")
	}

	var st statement
	st.write("SELECT ")
	if b.distinct {
		st.write("DISTINCT ")
	}
	st.write(strings.Join(b.columns, ", "), " FROM ", b.table)
	for _, j := range b.joins {
		st.write(" ", j)
	}
	st.where(b.where)
	if len(b.orderBy) > 0 {
		st.write(" ORDER BY ", strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		st.write(" LIMIT ", strconv.Itoa(b.limit))
	}
	return st.done()
}

type assignment struct {
	column string
	expr   Condition
}

type UpdateBuilder struct {
	table  string
	sets   []assignment
	where  []Condition
	suffix string
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: strings.TrimSpace(table)}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	return b.SetExpr(column, "?", value)
}

// SetExpr assigns a raw expression; each '?' binds the next arg.
func (b *UpdateBuilder) SetExpr(column, expr string, args ...any) *UpdateBuilder {
	b.sets = append(b.sets, assignment{column: column, expr: Expr(expr, args...)})
	return b
}

func (b *UpdateBuilder) Where(conds ...Condition) *UpdateBuilder {
	b.where = append(b.where, conds...)
	return b
}

// Suffix appends trailing SQL such as RETURNING.
func (b *UpdateBuilder) Suffix(sql string) *UpdateBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	if b.table == "" {
		return "", nil, errors.New("update table is required")
	}
	if len(b.sets) == 0 {
		return "", nil, errors.New("update sets are required")
	}
	if len(b.where) == 0 {
		return "", nil, errors.New("update without where is not allowed")
	}

	var st statement
	st.write("UPDATE ", b.table, " SET ")
	for i, s := range b.sets {
		if i > 0 {
			st.write(", ")
		}
		st.write(s.column, " = ")
		s.expr.render(&st)
	}
	st.where(b.where)
	st.suffix(b.suffix)
	return st.done()
}
