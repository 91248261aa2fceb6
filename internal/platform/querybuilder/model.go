package querybuilder

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// InsertModel renders a single-row INSERT from a struct's `db` tags.
// Pointer fields tagged `,omitnil` are left out when nil so the column
// default applies. suffix carries ON CONFLICT or RETURNING clauses.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return "", nil, errors.New("insert table is required")
	}

	v := reflect.Indirect(reflect.ValueOf(model))
	if !v.IsValid() || v.Kind() != reflect.Struct {
		return "", nil, fmt.Errorf("insert model must be a non-nil struct, got %T", model)
	}

	var (
		st      statement
		columns []string
		values  []any
	)
	for _, f := range reflect.VisibleFields(v.Type()) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("db"), ",")
		if name == "" || name == "-" {
			continue
		}
		fv := v.FieldByIndex(f.Index)
		if opts == "omitnil" && fv.Kind() == reflect.Pointer && fv.IsNil() {
			continue
		}
		columns = append(columns, name)
		values = append(values, fv.Interface())
	}
	if len(columns) == 0 {
		return "", nil, fmt.Errorf("insert model %T has no db columns", model)
	}

	st.write("INSERT INTO ", table, " (", strings.Join(columns, ", "), ") VALUES (")
	for i, val := range values {
		if i > 0 {
			st.write(", ")
		}
		st.bind(val)
	}
	st.write(")")
	st.suffix(strings.TrimSpace(suffix))
	return st.done()
}
