package core

import (
	"encoding/json"

	"xlreport/cellref"
)

// Workbook is the sparse structural model of a parsed template.
type Workbook struct {
	Sheets []Sheet `json:"sheets"`
}

// Sheet returns the sheet with the given name, or nil.
func (w *Workbook) Sheet(name string) *Sheet {
	if w == nil {
		return nil
	}
	for i := range w.Sheets {
		if w.Sheets[i].Name == name {
			return &w.Sheets[i]
		}
	}
	return nil
}

// Sheet holds only the cells, merges and sizes that differ from defaults.
type Sheet struct {
	Name         string                `json:"name"`
	Cells        map[string]CellRecord `json:"cells"`
	Merges       []string              `json:"merges"`
	ColumnWidths map[int]float64       `json:"columnWidths"`
	RowHeights   map[int]float64       `json:"rowHeights"`
}

func newSheet(name string) Sheet {
	return Sheet{
		Name:         name,
		Cells:        map[string]CellRecord{},
		Merges:       []string{},
		ColumnWidths: map[int]float64{},
		RowHeights:   map[int]float64{},
	}
}

// LastRow is the sheet footprint: the lowest row holding a cell record or a merge.
func (s *Sheet) LastRow() int {
	last := 0
	for ref := range s.Cells {
		if _, row, err := cellref.ParseCellRef(ref); err == nil && row > last {
			last = row
		}
	}
	for _, m := range s.Merges {
		if r, err := cellref.ParseRange(m); err == nil && r.EndRow > last {
			last = r.EndRow
		}
	}
	return last
}

// CellRecord is a non-default cell.
type CellRecord struct {
	Value   any          `json:"value,omitempty"`
	Formula string       `json:"formula,omitempty"`
	Style   *StyleRecord `json:"style,omitempty"`
}

// isDefault reports whether the record carries nothing worth keeping. Merge
// membership is decided by the caller.
func (c CellRecord) isDefault() bool {
	return c.Value == nil && c.Formula == "" && c.Style == nil
}

// StyleRecord carries only explicitly set style attributes.
type StyleRecord struct {
	Font         *FontStyle      `json:"font,omitempty"`
	Fill         *FillStyle      `json:"fill,omitempty"`
	Border       *BorderStyle    `json:"border,omitempty"`
	Alignment    *AlignmentStyle `json:"alignment,omitempty"`
	NumberFormat string          `json:"numberFormat,omitempty"`
}

func (s *StyleRecord) empty() bool {
	return s.Font == nil && s.Fill == nil && s.Border == nil && s.Alignment == nil && s.NumberFormat == ""
}

type FontStyle struct {
	Name   string  `json:"name,omitempty"`
	Size   float64 `json:"size,omitempty"`
	Bold   bool    `json:"bold,omitempty"`
	Italic bool    `json:"italic,omitempty"`
	Color  string  `json:"color,omitempty"`
}

type FillStyle struct {
	Color string `json:"color"`
}

type BorderSide struct {
	Style string `json:"style"`
	Color string `json:"color,omitempty"`
}

type BorderStyle struct {
	Top    *BorderSide `json:"top,omitempty"`
	Bottom *BorderSide `json:"bottom,omitempty"`
	Left   *BorderSide `json:"left,omitempty"`
	Right  *BorderSide `json:"right,omitempty"`
}

type AlignmentStyle struct {
	Horizontal string `json:"horizontal,omitempty"`
	Vertical   string `json:"vertical,omitempty"`
	Wrap       bool   `json:"wrapText,omitempty"`
}

// UnmarshalJSON restores integer-valued numbers as int64 so a stored model
// compares equal to a freshly parsed one.
func (c *CellRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		Value   json.RawMessage `json:"value"`
		Formula string          `json:"formula"`
		Style   *StyleRecord    `json:"style"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = CellRecord{Formula: raw.Formula, Style: raw.Style}
	if len(raw.Value) == 0 || string(raw.Value) == "null" {
		return nil
	}
	if c0 := raw.Value[0]; c0 == '-' || (c0 >= '0' && c0 <= '9') {
		n := json.Number(raw.Value)
		if i, err := n.Int64(); err == nil {
			c.Value = i
			return nil
		}
		f, err := n.Float64()
		if err != nil {
			return err
		}
		c.Value = f
		return nil
	}
	return json.Unmarshal(raw.Value, &c.Value)
}
