package snowflake

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Table is a read-only query result set. Values keep the types the driver
// returned, except []byte which is converted to string on scan.
type Table struct {
	Name      string
	Columns   []string
	Rows      [][]interface{}
	FetchedAt time.Time
}

// NewTable builds a table from columns and rows. It is mostly useful in tests.
func NewTable(name string, columns []string, rows ...[]interface{}) *Table {
	return &Table{
		Name:      name,
		Columns:   columns,
		Rows:      rows,
		FetchedAt: time.Now(),
	}
}

// Len returns the number of rows. A nil table has no rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no rows
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// Index returns the position of a column, matched case-insensitively, or -1
func (t *Table) Index(column string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if strings.EqualFold(c, column) {
			return i
		}
	}
	return -1
}

// Row returns the i-th row
func (t *Table) Row(i int) Row {
	return Row{table: t, values: t.Rows[i]}
}

// Each calls fn for every row in order
func (t *Table) Each(fn func(Row)) {
	for i := 0; i < t.Len(); i++ {
		fn(t.Row(i))
	}
}

// Project returns a table with only the named columns, in that order. Missing
// columns are kept and filled with nil.
func (t *Table) Project(columns ...string) *Table {
	out := &Table{Columns: columns}
	if t == nil {
		return out
	}
	out.Name = t.Name
	out.FetchedAt = t.FetchedAt

	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = t.Index(c)
	}
	for _, row := range t.Rows {
		projected := make([]interface{}, len(columns))
		for i, j := range idx {
			if j >= 0 && j < len(row) {
				projected[i] = row[j]
			}
		}
		out.Rows = append(out.Rows, projected)
	}
	return out
}

// Row is a view over one row of a Table
type Row struct {
	table  *Table
	values []interface{}
}

// Value returns the raw value of a column. ok is false when the column is
// missing or NULL.
func (r Row) Value(column string) (interface{}, bool) {
	i := r.table.Index(column)
	if i < 0 || i >= len(r.values) || r.values[i] == nil {
		return nil, false
	}
	return r.values[i], true
}

// String returns a column formatted as text
func (r Row) String(column string) (string, bool) {
	v, ok := r.Value(column)
	if !ok {
		return "", false
	}
	return FormatValue(v), true
}

// Float returns a numeric column. Snowflake NUMBER values arrive as strings
// from gosnowflake and are parsed.
func (r Row) Float(column string) (float64, bool) {
	v, ok := r.Value(column)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// Int returns a numeric column truncated to an integer
func (r Row) Int(column string) (int64, bool) {
	v, ok := r.Value(column)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

// Time returns a date or timestamp column
func (r Row) Time(column string) (time.Time, bool) {
	v, ok := r.Value(column)
	if !ok {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// FormatValue renders a driver value for display
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05")
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}
