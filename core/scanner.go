package core

import (
	"regexp"
	"sort"

	"github.com/google/uuid"

	"xlreport/cellref"
	"xlreport/config"
)

// PlaceholderType is the kind of a legacy {{type:name}} token.
type PlaceholderType string

const (
	PlaceholderTable PlaceholderType = "table"
	PlaceholderValue PlaceholderType = "value"
	PlaceholderChart PlaceholderType = "chart"
)

var placeholderPattern = regexp.MustCompile(`\{\{(table|value|chart):(\w+)\}\}`)

// Placeholder is one token occurrence found in a template cell.
type Placeholder struct {
	ID        string          `json:"id"`
	Token     string          `json:"placeholder"`
	Type      PlaceholderType `json:"type"`
	Name      string          `json:"name"`
	SheetName string          `json:"sheet_name"`
	CellRef   string          `json:"cell_reference"`
}

// ScanPlaceholders finds every legacy token in the workbook's string cells.
// Sheets keep workbook order, cells are visited row by row, and matches
// within a cell are reported left to right. Each scan assigns fresh ids.
func ScanPlaceholders(wb *Workbook) []Placeholder {
	found := []Placeholder{}
	if wb == nil {
		return found
	}
	for _, sheet := range wb.Sheets {
		for _, ref := range sortedRefs(sheet.Cells) {
			s, ok := sheet.Cells[ref].Value.(string)
			if !ok {
				continue
			}
			for _, m := range placeholderPattern.FindAllStringSubmatch(s, -1) {
				found = append(found, Placeholder{
					ID:        uuid.NewString(),
					Token:     m[0],
					Type:      PlaceholderType(m[1]),
					Name:      m[2],
					SheetName: sheet.Name,
					CellRef:   ref,
				})
			}
		}
	}
	return found
}

// PairPlaceholders attaches legacy bindings to placeholders. A binding key
// matches a placeholder id first, then its token name. Keys that match
// nothing are dropped.
func PairPlaceholders(placeholders []Placeholder, bindings map[string]config.LegacyBinding) []Binding {
	var out []Binding
	for _, ph := range placeholders {
		lb, ok := bindings[ph.ID]
		if !ok {
			lb, ok = bindings[ph.Name]
		}
		if !ok {
			continue
		}
		out = append(out, &PlaceholderBinding{Placeholder: ph, Source: lb})
	}
	return out
}

type cellKey struct {
	row, col int
	ref      string
}

// sortedRefs orders cell references row-major.
func sortedRefs(cells map[string]CellRecord) []string {
	keys := make([]cellKey, 0, len(cells))
	for ref := range cells {
		col, row, err := cellref.ParseCellRef(ref)
		if err != nil {
			continue
		}
		keys = append(keys, cellKey{row: row, col: col, ref: ref})
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].row != keys[j].row {
			return keys[i].row < keys[j].row
		}
		return keys[i].col < keys[j].col
	})
	refs := make([]string, len(keys))
	for i, k := range keys {
		refs[i] = k.ref
	}
	return refs
}
