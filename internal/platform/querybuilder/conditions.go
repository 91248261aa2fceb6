package querybuilder

import "strings"

type Condition interface {
	render(st *statement)
}

type condFunc func(st *statement)

func (f condFunc) render(st *statement) { f(st) }

func Eq(column string, value any) Condition {
	return condFunc(func(st *statement) {
		st.write(column, " = ")
		st.bind(value)
	})
}

// InStrings renders an IN list; an empty list matches nothing.
func InStrings(column string, values []string) Condition {
	return condFunc(func(st *statement) {
		if len(values) == 0 {
			st.write("FALSE")
			return
		}
		st.write(column, " IN (")
		for i, v := range values {
			if i > 0 {
				st.write(", ")
			}
			st.bind(v)
		}
		st.write(")")
	})
}

// Expr embeds raw SQL; each '?' binds the next arg. Extra '?' are literal.
func Expr(sql string, args ...any) Condition {
	return condFunc(func(st *statement) {
		next := 0
		for {
			i := strings.IndexByte(sql, '?')
			if i < 0 || next >= len(args) {
				st.write(sql)
				return
			}
			st.write(sql[:i])
			st.bind(args[next])
			next++
			sql = sql[i+1:]
		}
	})
}
