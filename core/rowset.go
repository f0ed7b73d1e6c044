package core

import (
	"fmt"
	"sort"
)

// RowSet is a fetched result: ordered column names plus one map per record.
type RowSet struct {
	Columns []string
	Rows    []map[string]any
}

// NewRowSet creates a RowSet. When columns is empty the column order is
// derived from the rows' keys, sorted by name.
func NewRowSet(columns []string, rows []map[string]any) *RowSet {
	if len(columns) == 0 {
		columns = collectColumns(rows)
	}
	return &RowSet{Columns: columns, Rows: rows}
}

func collectColumns(rows []map[string]any) []string {
	seen := map[string]struct{}{}
	var cols []string
	for _, row := range rows {
		for k := range row {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

// Len returns the number of rows.
func (r *RowSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Filter keeps the rows whose columns equal the given parameter values.
// Parameters that do not name a column are ignored.
func (r *RowSet) Filter(params map[string]string) {
	if len(params) == 0 {
		return
	}
	var filtered []map[string]any
	for _, row := range r.Rows {
		match := true
		for k, want := range params {
			if got, ok := row[k]; ok && fmt.Sprintf("%v", got) != want {
				match = false
				break
			}
		}
		if match {
			filtered = append(filtered, row)
		}
	}
	r.Rows = filtered
}

// Limit truncates the set to at most n rows. n <= 0 means no limit.
func (r *RowSet) Limit(n int) {
	if n > 0 && len(r.Rows) > n {
		r.Rows = r.Rows[:n]
	}
}

// Copy returns a deep copy so filtering the copy leaves the original intact.
func (r *RowSet) Copy() *RowSet {
	rows := make([]map[string]any, len(r.Rows))
	for i, row := range r.Rows {
		c := make(map[string]any, len(row))
		for k, v := range row {
			c[k] = v
		}
		rows[i] = c
	}
	cols := append([]string(nil), r.Columns...)
	return &RowSet{Columns: cols, Rows: rows}
}

// Values returns the row's values in column order.
func (r *RowSet) Values(i int) []any {
	vals := make([]any, len(r.Columns))
	for j, col := range r.Columns {
		vals[j] = r.Rows[i][col]
	}
	return vals
}

// FirstScalar returns the first column of the first row, or nil when empty.
func (r *RowSet) FirstScalar() any {
	if r.Len() == 0 || len(r.Columns) == 0 {
		return nil
	}
	return r.Rows[0][r.Columns[0]]
}
