package core

import (
	"fmt"

	"xlreport/cellref"
	"xlreport/config"
)

// ChartMarker is written in place of a legacy chart placeholder.
const ChartMarker = "[Chart data]"

// CellWrite is one resolved value destined for the output workbook.
type CellWrite struct {
	Sheet  string
	Ref    string
	Value  any
	Header bool
}

// Binding turns fetched rows into cell writes against a template.
type Binding interface {
	// DataKey names the row set the binding consumes.
	DataKey() string
	Resolve(wb *Workbook, rows *RowSet) ([]CellWrite, error)
}

// MappingBinding places a source's rows as a block anchored at a start cell.
type MappingBinding struct {
	Mapping config.DataSourceMapping
}

func (b *MappingBinding) DataKey() string {
	return b.Mapping.SourceID
}

func (b *MappingBinding) Resolve(wb *Workbook, rows *RowSet) ([]CellWrite, error) {
	m := b.Mapping
	sheet := wb.Sheet(m.SheetName)
	if sheet == nil {
		return nil, fmt.Errorf("sheet %q: %w", m.SheetName, ErrNotFound)
	}
	col0, row0, err := cellref.ParseCellRef(m.StartCell)
	if err != nil {
		return nil, err
	}
	if rows.Len() == 0 {
		return nil, nil
	}

	limited := !m.AutoExpand
	footprint := sheet.LastRow()
	var writes []CellWrite
	put := func(row, offset int, value any, header bool) error {
		if limited && row > footprint {
			return nil
		}
		ref, err := cellref.CellRef(col0+offset, row)
		if err != nil {
			return err
		}
		writes = append(writes, CellWrite{Sheet: m.SheetName, Ref: ref, Value: value, Header: header})
		return nil
	}

	row := row0
	if m.IncludeHeader {
		for i, c := range m.Columns {
			if err := put(row, c.Offset(i), c.Header(), true); err != nil {
				return nil, err
			}
		}
		row++
	}
	for _, rec := range rows.Rows {
		for i, c := range m.Columns {
			v, ok := rec[c.SourceColumn]
			if !ok || v == nil {
				v = ""
			}
			if err := put(row, c.Offset(i), v, false); err != nil {
				return nil, err
			}
		}
		row++
	}
	return writes, nil
}

// PlaceholderBinding fills a legacy {{type:name}} token from its source.
type PlaceholderBinding struct {
	Placeholder Placeholder
	Source      config.LegacyBinding
}

// DataKey is the configured source id. Inline queries are keyed by the
// placeholder they belong to.
func (b *PlaceholderBinding) DataKey() string {
	if b.Source.Type == config.LegacySourceInlineQuery || b.Source.SourceID == "" {
		return b.Placeholder.ID
	}
	return b.Source.SourceID
}

func (b *PlaceholderBinding) Resolve(wb *Workbook, rows *RowSet) ([]CellWrite, error) {
	ph := b.Placeholder
	if wb.Sheet(ph.SheetName) == nil {
		return nil, fmt.Errorf("sheet %q: %w", ph.SheetName, ErrNotFound)
	}
	col0, row0, err := cellref.ParseCellRef(ph.CellRef)
	if err != nil {
		return nil, err
	}

	switch ph.Type {
	case PlaceholderValue:
		v := rows.FirstScalar()
		if v == nil {
			v = ""
		}
		return []CellWrite{{Sheet: ph.SheetName, Ref: ph.CellRef, Value: v}}, nil
	case PlaceholderChart:
		return []CellWrite{{Sheet: ph.SheetName, Ref: ph.CellRef, Value: ChartMarker}}, nil
	case PlaceholderTable:
		writes := []CellWrite{{Sheet: ph.SheetName, Ref: ph.CellRef, Value: ""}}
		for i := 0; i < rows.Len(); i++ {
			for j, v := range rows.Values(i) {
				ref, err := cellref.CellRef(col0+j, row0+i)
				if err != nil {
					return nil, err
				}
				if v == nil {
					v = ""
				}
				writes = append(writes, CellWrite{Sheet: ph.SheetName, Ref: ref, Value: v})
			}
		}
		return writes, nil
	}
	return nil, fmt.Errorf("placeholder type %q: %w", ph.Type, ErrValidation)
}

// MappingBindings wraps every mapping of a report.
func MappingBindings(mappings []config.DataSourceMapping) []Binding {
	out := make([]Binding, 0, len(mappings))
	for _, m := range mappings {
		out = append(out, &MappingBinding{Mapping: m})
	}
	return out
}
