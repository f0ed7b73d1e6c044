package core

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/xuri/excelize/v2"

	"xlreport/cellref"
)

// maxScanCells bounds how many cells a declared sheet dimension may make the
// parser visit. Larger dimensions fall back to the populated extent.
const maxScanCells = 1 << 20

// ParseBytes parses an in-memory workbook.
func ParseBytes(data []byte) (*Workbook, error) {
	return ParseTemplate(bytes.NewReader(data))
}

// ParseTemplate reads a workbook into its sparse structural model.
func ParseTemplate(r io.Reader) (wb *Workbook, err error) {
	f, err := openExcelFile(r)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	defer func(f ExcelFile) {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = &ParseError{Err: fmt.Errorf("failed to close workbook: %w", closeErr)}
		}
	}(f)

	wb, err = parseWorkbook(f)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return wb, nil
}

type parser struct {
	f       ExcelFile
	def     *excelize.Style
	styles  map[int]*StyleRecord
	scanned int
}

func parseWorkbook(f ExcelFile) (*Workbook, error) {
	p := &parser{f: f, styles: map[int]*StyleRecord{}}
	if def, err := f.GetStyle(0); err == nil {
		p.def = def
	}

	wb := &Workbook{Sheets: []Sheet{}}
	for _, name := range f.GetSheetList() {
		sheet, err := p.parseSheet(name)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", name, err)
		}
		wb.Sheets = append(wb.Sheets, sheet)
	}
	slog.Debug("Template parsed", "sheets", len(wb.Sheets), "cells", p.scanned)
	return wb, nil
}

func (p *parser) parseSheet(name string) (Sheet, error) {
	sheet := newSheet(name)

	merges, err := p.f.GetMergeCells(name)
	if err != nil {
		return sheet, fmt.Errorf("failed to read merges: %w", err)
	}
	merged := map[string]bool{}
	var extent cellref.Range
	for _, mc := range merges {
		ref := mc.GetStartAxis() + ":" + mc.GetEndAxis()
		r, err := cellref.ParseRange(ref)
		if err != nil {
			continue
		}
		sheet.Merges = append(sheet.Merges, ref)
		extent = unionRange(extent, r)
		for row := r.StartRow; row <= r.EndRow; row++ {
			for col := r.StartCol; col <= r.EndCol; col++ {
				merged[mustRef(col, row)] = true
			}
		}
	}

	rows, err := p.f.GetRows(name)
	if err != nil {
		return sheet, fmt.Errorf("failed to read rows: %w", err)
	}
	for i, row := range rows {
		if len(row) > 0 {
			extent = unionRange(extent, cellref.Range{StartCol: 1, StartRow: 1, EndCol: len(row), EndRow: i + 1})
		}
	}

	if dim, err := p.f.GetSheetDimension(name); err == nil && dim != "" {
		if r, err := cellref.ParseRange(dim); err == nil {
			if area := (r.EndCol - r.StartCol + 1) * (r.EndRow - r.StartRow + 1); area <= maxScanCells {
				extent = unionRange(extent, r)
			} else {
				slog.Warn("Ignoring oversized sheet dimension", "sheet", name, "dimension", dim)
			}
		}
	}

	if extent.EndRow == 0 {
		return sheet, nil
	}

	for row := extent.StartRow; row <= extent.EndRow; row++ {
		for col := extent.StartCol; col <= extent.EndCol; col++ {
			ref := mustRef(col, row)
			rec, err := p.parseCell(name, ref)
			if err != nil {
				return sheet, fmt.Errorf("cell %s: %w", ref, err)
			}
			if !rec.isDefault() || merged[ref] {
				sheet.Cells[ref] = rec
			}
		}
	}

	if err := p.parseSizes(&sheet, extent); err != nil {
		return sheet, err
	}
	return sheet, nil
}

func (p *parser) parseCell(sheet, ref string) (CellRecord, error) {
	p.scanned++
	var rec CellRecord

	raw, err := p.f.GetCellValue(sheet, ref, excelize.Options{RawCellValue: true})
	if err != nil {
		return rec, err
	}
	if raw != "" {
		typ, err := p.f.GetCellType(sheet, ref)
		if err != nil {
			return rec, err
		}
		rec.Value = typedValue(typ, raw)
	}

	formula, err := p.f.GetCellFormula(sheet, ref)
	if err != nil {
		return rec, err
	}
	if formula != "" {
		rec.Formula = "=" + formula
	}

	idx, err := p.f.GetCellStyle(sheet, ref)
	if err != nil {
		return rec, err
	}
	if idx != 0 {
		rec.Style = p.style(idx)
	}
	return rec, nil
}

func (p *parser) style(idx int) *StyleRecord {
	if rec, ok := p.styles[idx]; ok {
		return rec
	}
	st, err := p.f.GetStyle(idx)
	if err != nil {
		slog.Warn("Unreadable cell style", "style", idx, "error", err)
		p.styles[idx] = nil
		return nil
	}
	rec := styleRecord(p.def, st)
	p.styles[idx] = rec
	return rec
}

// parseSizes records column widths in pixels and row heights in points,
// keyed by 0-based index, when they differ from the sheet defaults.
func (p *parser) parseSizes(sheet *Sheet, extent cellref.Range) error {
	last, _ := cellref.IndexToColumnLetter(cellref.MaxColumn)
	defWidth, err := p.f.GetColWidth(sheet.Name, last)
	if err != nil {
		return fmt.Errorf("failed to read default column width: %w", err)
	}
	for col := 1; col <= extent.EndCol; col++ {
		letter, _ := cellref.IndexToColumnLetter(col)
		w, err := p.f.GetColWidth(sheet.Name, letter)
		if err != nil {
			return fmt.Errorf("failed to read width of column %s: %w", letter, err)
		}
		if w != defWidth {
			sheet.ColumnWidths[col-1] = w * 7
		}
	}

	defHeight, err := p.f.GetRowHeight(sheet.Name, excelize.TotalRows)
	if err != nil {
		return fmt.Errorf("failed to read default row height: %w", err)
	}
	for row := 1; row <= extent.EndRow; row++ {
		h, err := p.f.GetRowHeight(sheet.Name, row)
		if err != nil {
			return fmt.Errorf("failed to read height of row %d: %w", row, err)
		}
		if h != defHeight {
			sheet.RowHeights[row-1] = h
		}
	}
	return nil
}

// typedValue maps a raw cell string to the model's value types.
func typedValue(typ excelize.CellType, raw string) any {
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeError, excelize.CellTypeFormula:
		return raw
	case excelize.CellTypeBool:
		switch raw {
		case "1", "TRUE", "true":
			return true
		case "0", "FALSE", "false":
			return false
		}
		return raw
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func unionRange(a, b cellref.Range) cellref.Range {
	if a.EndRow == 0 {
		return b
	}
	return cellref.Range{
		StartCol: min(a.StartCol, b.StartCol),
		StartRow: min(a.StartRow, b.StartRow),
		EndCol:   max(a.EndCol, b.EndCol),
		EndRow:   max(a.EndRow, b.EndRow),
	}
}

// mustRef formats coordinates already known to be in range.
func mustRef(col, row int) string {
	ref, _ := cellref.CellRef(col, row)
	return ref
}
