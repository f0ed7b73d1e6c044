package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"xlreport/cellref"
)

// LegacySourceType names where a legacy placeholder gets its rows from.
type LegacySourceType string

const (
	LegacySourceVisualization LegacySourceType = "visualization"
	LegacySourceSavedQuery    LegacySourceType = "saved_query"
	LegacySourceInlineQuery   LegacySourceType = "inline_query"
)

// SourceConfig: a queryable entity rows are fetched from
type SourceConfig struct {
	ID      string   `json:"id"                yaml:"id"`
	Name    string   `json:"name,omitempty"    yaml:"name,omitempty"`
	Table   string   `json:"table,omitempty"   yaml:"table,omitempty"`   // table, CSV file stem or DynamoDB table
	SQL     string   `json:"sql,omitempty"     yaml:"sql,omitempty"`     // overrides Table for SQL fetchers
	Filters []string `json:"filters,omitempty" yaml:"filters,omitempty"` // params applied as equality filters
}

// FilterParams keeps the params named in Filters. Other report parameters
// belong to other sources and are dropped.
func (s SourceConfig) FilterParams(params map[string]string) map[string]string {
	out := make(map[string]string)
	for _, name := range s.Filters {
		if v, ok := params[name]; ok {
			out[name] = v
		}
	}
	return out
}

// ColumnOffset is a column offset relative to a mapping's anchor. It decodes
// from an integer ("2") or a column letter where A is offset 0 ("C" is 2).
// An unset offset falls back to the column's position in the mapping.
type ColumnOffset struct {
	Value int
	Set   bool
}

// Offset returns a set ColumnOffset.
func Offset(n int) ColumnOffset {
	return ColumnOffset{Value: n, Set: true}
}

func (o *ColumnOffset) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*o = ColumnOffset{}
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return fmt.Errorf("negative column offset %d", n)
		}
		*o = Offset(n)
		return nil
	}
	idx, err := cellref.ColumnLetterToIndex(s)
	if err != nil {
		return fmt.Errorf("target column %q: %w", s, err)
	}
	*o = Offset(idx - 1)
	return nil
}

func (o *ColumnOffset) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = ColumnOffset{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return o.parse(s)
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("target column must be an offset or a column letter: %w", err)
	}
	return o.parse(strconv.Itoa(n))
}

func (o ColumnOffset) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(o.Value)), nil
}

func (o *ColumnOffset) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: target column must be a scalar", value.Line)
	}
	return o.parse(value.Value)
}

func (o ColumnOffset) MarshalYAML() (any, error) {
	if !o.Set {
		return nil, nil
	}
	return o.Value, nil
}

// ColumnMapping binds one source column to a column of the output block.
type ColumnMapping struct {
	SourceColumn string       `json:"source_column"          yaml:"sourceColumn"`
	TargetColumn ColumnOffset `json:"target_column"          yaml:"targetColumn,omitempty"`
	HeaderLabel  string       `json:"header_label,omitempty" yaml:"headerLabel,omitempty"`
	Format       string       `json:"format,omitempty"       yaml:"format,omitempty"` // number format, carried for editors
}

// Offset resolves the column offset, defaulting to the declared position.
func (c ColumnMapping) Offset(position int) int {
	if c.TargetColumn.Set {
		return c.TargetColumn.Value
	}
	return position
}

// Header returns the label written in the header row.
func (c ColumnMapping) Header() string {
	if c.HeaderLabel != "" {
		return c.HeaderLabel
	}
	return c.SourceColumn
}

// DataSourceMapping binds a source's rows to a block anchored at StartCell.
type DataSourceMapping struct {
	ID            string          `json:"id"             yaml:"id"`
	SourceID      string          `json:"source_id"      yaml:"sourceId"`
	SheetName     string          `json:"sheet_name"     yaml:"sheetName"`
	StartCell     string          `json:"start_cell"     yaml:"startCell"`
	Columns       []ColumnMapping `json:"columns"        yaml:"columns"`
	IncludeHeader bool            `json:"include_header" yaml:"includeHeader"`
	AutoExpand    bool            `json:"auto_expand"    yaml:"autoExpand"`
}

// MaxOffset returns the largest column offset the mapping writes to.
func (m *DataSourceMapping) MaxOffset() int {
	maxOff := 0
	for i, c := range m.Columns {
		if off := c.Offset(i); off > maxOff {
			maxOff = off
		}
	}
	return maxOff
}

type plainMapping DataSourceMapping

func mappingDefaults() plainMapping {
	return plainMapping{IncludeHeader: true, AutoExpand: true}
}

// UnmarshalJSON applies the include_header/auto_expand defaults (both true).
func (m *DataSourceMapping) UnmarshalJSON(data []byte) error {
	p := mappingDefaults()
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = DataSourceMapping(p)
	return nil
}

func (m *DataSourceMapping) UnmarshalYAML(value *yaml.Node) error {
	p := mappingDefaults()
	if err := value.Decode(&p); err != nil {
		return err
	}
	*m = DataSourceMapping(p)
	return nil
}

// LegacyBinding is the data source of a legacy {{type:name}} placeholder.
type LegacyBinding struct {
	Type       LegacySourceType `json:"type"                  yaml:"type"`
	SourceID   string           `json:"source_id,omitempty"   yaml:"sourceId,omitempty"`
	Query      string           `json:"query,omitempty"       yaml:"query,omitempty"`
	DatabaseID string           `json:"database_id,omitempty" yaml:"databaseId,omitempty"`
}

// ReportConfig: a report built on an uploaded template
type ReportConfig struct {
	ID         string            `json:"id"                   yaml:"id"`
	Name       string            `json:"name"                 yaml:"name"`
	Template   string            `json:"template"             yaml:"template"` // template id in the store
	Parameters map[string]string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	RowLimit   int               `json:"rowLimit,omitempty"   yaml:"rowLimit,omitempty"`
	Unlimited  bool              `json:"unlimited,omitempty"  yaml:"unlimited,omitempty"`

	Mappings []DataSourceMapping `json:"mappings,omitempty" yaml:"mappings,omitempty"`
	// Placeholders keys are placeholder ids or token names.
	Placeholders map[string]LegacyBinding `json:"placeholders,omitempty" yaml:"placeholders,omitempty"`
	// Overlay holds manual edits: sheet name -> cell ref -> value.
	Overlay map[string]map[string]any `json:"overlay,omitempty" yaml:"overlay,omitempty"`
}
