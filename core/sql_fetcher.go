package core

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"xlreport/config"
)

// SQLDataFetcher implements DataFetcher using a generic SQL database (MySQL, PostgreSQL).
// A source reads from its table, or runs its SQL text when set.
type SQLDataFetcher struct {
	DB         *sql.DB
	DriverName string // "mysql" or "postgres"
}

// NewSQLDataFetcher creates a new fetcher.
func NewSQLDataFetcher(db *sql.DB, driverName string) *SQLDataFetcher {
	return &SQLDataFetcher{
		DB:         db,
		DriverName: driverName,
	}
}

// buildQuery renders the statement for a source. Table sources get equality
// filters for the parameters the source declares; SQL sources are wrapped so
// the row cap applies.
func (f *SQLDataFetcher) buildQuery(source config.SourceConfig, opts FetchOptions) (string, []any, error) {
	var query string
	var args []any

	switch {
	case source.SQL != "":
		query = fmt.Sprintf("SELECT * FROM (%s) AS src", strings.TrimRight(strings.TrimSpace(source.SQL), ";"))
	case source.Table != "":
		query = fmt.Sprintf("SELECT * FROM %s", source.Table)
		params := source.FilterParams(opts.Params)
		if len(params) > 0 {
			keys := make([]string, 0, len(params))
			for k := range params {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			conditions := make([]string, 0, len(keys))
			for i, k := range keys {
				if f.DriverName == "postgres" {
					conditions = append(conditions, fmt.Sprintf("%s = $%d", k, i+1))
				} else {
					conditions = append(conditions, fmt.Sprintf("%s = ?", k))
				}
				args = append(args, params[k])
			}
			query += " WHERE " + strings.Join(conditions, " AND ")
		}
	default:
		return "", nil, fmt.Errorf("source %s has neither table nor sql", source.ID)
	}

	if n := opts.Limit(); n > 0 {
		query += fmt.Sprintf(" LIMIT %d", n)
	}
	return query, args, nil
}

// Fetch runs the source query and collects rows in column order.
func (f *SQLDataFetcher) Fetch(ctx context.Context, source config.SourceConfig, opts FetchOptions) (*RowSet, error) {
	query, args, err := f.buildQuery(source, opts)
	if err != nil {
		return nil, err
	}

	rows, err := f.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		entry := make(map[string]any, len(columns))
		for i, col := range columns {
			// MySQL returns text columns as []byte.
			if b, ok := values[i].([]byte); ok {
				entry[col] = string(b)
			} else {
				entry[col] = values[i]
			}
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return NewRowSet(columns, result), nil
}
