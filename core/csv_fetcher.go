package core

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"xlreport/config"
)

// CsvDataFetcher implements DataFetcher using CSV files.
// A source maps to <RootDir>/<table>.csv, falling back to its id.
type CsvDataFetcher struct {
	RootDir string
}

func NewCsvDataFetcher(rootDir string) *CsvDataFetcher {
	return &CsvDataFetcher{RootDir: rootDir}
}

func (f *CsvDataFetcher) Fetch(ctx context.Context, source config.SourceConfig, opts FetchOptions) (*RowSet, error) {
	if source.Table == "" && source.ID == "" {
		return nil, fmt.Errorf("csv source has no table")
	}
	name := source.Table
	if name == "" {
		name = source.ID
	}
	filePath := filepath.Join(f.RootDir, name+".csv")

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file %s: %w", filePath, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv content: %w", err)
	}
	if len(records) < 1 {
		return NewRowSet(nil, nil), nil
	}

	header := records[0]
	rows := make([]map[string]any, 0, len(records)-1)
	for _, rec := range records[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := make(map[string]any, len(header))
		for j, col := range rec {
			if j < len(header) {
				item[header[j]] = col
			}
		}
		rows = append(rows, item)
	}

	rs := NewRowSet(header, rows)
	rs.Filter(opts.Params)
	rs.Limit(opts.Limit())
	return rs, nil
}
