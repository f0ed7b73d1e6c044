package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseTemplate_ValuesAndFormulas(t *testing.T) {
	tmpl := newTemplate(t, func(f *excelize.File) {
		must(t, f.SetCellValue("Sheet1", "A1", "hello"))
		must(t, f.SetCellValue("Sheet1", "B1", 42))
		must(t, f.SetCellValue("Sheet1", "C1", 3.5))
		must(t, f.SetCellValue("Sheet1", "D1", true))
		must(t, f.SetCellValue("Sheet1", "E1", "42"))
		must(t, f.SetCellFormula("Sheet1", "F1", "SUM(B1:C1)"))
	})

	wb, err := ParseBytes(tmpl)
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)
	cells := wb.Sheets[0].Cells

	assert.Equal(t, "hello", cells["A1"].Value)
	assert.Equal(t, int64(42), cells["B1"].Value)
	assert.Equal(t, 3.5, cells["C1"].Value)
	assert.Equal(t, true, cells["D1"].Value)
	assert.Equal(t, "42", cells["E1"].Value)
	assert.Equal(t, "=SUM(B1:C1)", cells["F1"].Formula)
}

func TestParseTemplate_SparseCells(t *testing.T) {
	tmpl := newTemplate(t, func(f *excelize.File) {
		must(t, f.SetCellValue("Sheet1", "A1", "x"))
		must(t, f.SetCellValue("Sheet1", "C3", "y"))
	})

	wb, err := ParseBytes(tmpl)
	require.NoError(t, err)
	cells := wb.Sheets[0].Cells

	assert.Len(t, cells, 2)
	assert.Contains(t, cells, "A1")
	assert.Contains(t, cells, "C3")
	assert.NotContains(t, cells, "B2")
}

func TestParseTemplate_SheetOrder(t *testing.T) {
	tmpl := newTemplate(t, func(f *excelize.File) {
		_, err := f.NewSheet("Data")
		must(t, err)
		_, err = f.NewSheet("Summary")
		must(t, err)
	})

	wb, err := ParseBytes(tmpl)
	require.NoError(t, err)
	var names []string
	for _, s := range wb.Sheets {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Sheet1", "Data", "Summary"}, names)
	assert.Empty(t, wb.Sheet("Data").Cells)
	assert.Nil(t, wb.Sheet("Missing"))
}

func TestParseTemplate_MergesKeepEmptyCells(t *testing.T) {
	tmpl := newTemplate(t, func(f *excelize.File) {
		must(t, f.SetCellValue("Sheet1", "A1", "Title"))
		must(t, f.MergeCell("Sheet1", "A1", "C1"))
	})

	wb, err := ParseBytes(tmpl)
	require.NoError(t, err)
	sheet := wb.Sheets[0]

	assert.Equal(t, []string{"A1:C1"}, sheet.Merges)
	assert.Equal(t, "Title", sheet.Cells["A1"].Value)
	assert.Contains(t, sheet.Cells, "B1")
	assert.Contains(t, sheet.Cells, "C1")
	assert.Equal(t, 1, sheet.LastRow())
}

func TestParseTemplate_Styles(t *testing.T) {
	tmpl := newTemplate(t, func(f *excelize.File) {
		bold := mustStyle(t, f, &excelize.Style{Font: &excelize.Font{Bold: true}})
		yellow := mustStyle(t, f, &excelize.Style{Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFFF00"}}})
		black := mustStyle(t, f, &excelize.Style{Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"000000"}}})
		border := mustStyle(t, f, &excelize.Style{Border: []excelize.Border{
			{Type: "left", Color: "0000FF", Style: 1},
			{Type: "bottom", Color: "FF0000", Style: 5},
		}})
		align := mustStyle(t, f, &excelize.Style{Alignment: &excelize.Alignment{Horizontal: "center", WrapText: true}})
		money := mustStyle(t, f, &excelize.Style{NumFmt: 4})
		custom := "0.000"
		customFmt := mustStyle(t, f, &excelize.Style{CustomNumFmt: &custom})
		general := mustStyle(t, f, &excelize.Style{NumFmt: 0})

		for ref, id := range map[string]int{
			"A1": bold, "B1": yellow, "C1": black, "D1": border,
			"E1": align, "F1": money, "G1": customFmt, "H1": general,
		} {
			must(t, f.SetCellValue("Sheet1", ref, 1))
			must(t, f.SetCellStyle("Sheet1", ref, ref, id))
		}
		must(t, f.SetCellStyle("Sheet1", "A2", "A2", yellow))
		must(t, f.SetCellValue("Sheet1", "B2", "anchor"))
	})

	wb, err := ParseBytes(tmpl)
	require.NoError(t, err)
	cells := wb.Sheets[0].Cells

	require.NotNil(t, cells["A1"].Style)
	require.NotNil(t, cells["A1"].Style.Font)
	assert.True(t, cells["A1"].Style.Font.Bold)
	assert.Empty(t, cells["A1"].Style.Font.Name)

	require.NotNil(t, cells["B1"].Style)
	assert.Equal(t, &FillStyle{Color: "#FFFF00"}, cells["B1"].Style.Fill)

	assert.Nil(t, cells["C1"].Style, "black fill reads as no fill")

	require.NotNil(t, cells["D1"].Style)
	require.NotNil(t, cells["D1"].Style.Border)
	assert.Equal(t, &BorderSide{Style: "thin", Color: "#0000FF"}, cells["D1"].Style.Border.Left)
	assert.Equal(t, &BorderSide{Style: "thick", Color: "#FF0000"}, cells["D1"].Style.Border.Bottom)
	assert.Nil(t, cells["D1"].Style.Border.Top)

	require.NotNil(t, cells["E1"].Style)
	assert.Equal(t, &AlignmentStyle{Horizontal: "center", Wrap: true}, cells["E1"].Style.Alignment)

	require.NotNil(t, cells["F1"].Style)
	assert.Equal(t, "#,##0.00", cells["F1"].Style.NumberFormat)
	require.NotNil(t, cells["G1"].Style)
	assert.Equal(t, "0.000", cells["G1"].Style.NumberFormat)
	assert.Nil(t, cells["H1"].Style)

	require.Contains(t, cells, "A2", "styled empty cell is kept")
	assert.Nil(t, cells["A2"].Value)
	assert.Equal(t, "#FFFF00", cells["A2"].Style.Fill.Color)
}

func TestParseTemplate_Sizes(t *testing.T) {
	tmpl := newTemplate(t, func(f *excelize.File) {
		must(t, f.SetCellValue("Sheet1", "C3", "x"))
		must(t, f.SetColWidth("Sheet1", "B", "B", 20))
		must(t, f.SetRowHeight("Sheet1", 2, 30))
	})

	wb, err := ParseBytes(tmpl)
	require.NoError(t, err)
	sheet := wb.Sheets[0]

	assert.Equal(t, map[int]float64{1: 140}, sheet.ColumnWidths)
	assert.Equal(t, map[int]float64{1: 30}, sheet.RowHeights)
}

func TestParseTemplate_JSONRoundTrip(t *testing.T) {
	tmpl := newTemplate(t, func(f *excelize.File) {
		bold := mustStyle(t, f, &excelize.Style{Font: &excelize.Font{Bold: true, Color: "FF0000"}})
		must(t, f.SetCellValue("Sheet1", "A1", "Region"))
		must(t, f.SetCellStyle("Sheet1", "A1", "A1", bold))
		must(t, f.SetCellValue("Sheet1", "B2", 12))
		must(t, f.SetCellValue("Sheet1", "C2", -0.25))
		must(t, f.SetCellValue("Sheet1", "D2", false))
		must(t, f.SetCellFormula("Sheet1", "E2", "B2*2"))
		must(t, f.MergeCell("Sheet1", "A4", "B5"))
		must(t, f.SetColWidth("Sheet1", "A", "A", 15))
	})

	wb, err := ParseBytes(tmpl)
	require.NoError(t, err)

	data, err := json.Marshal(wb)
	require.NoError(t, err)
	var decoded Workbook
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, *wb, decoded)
}

func TestParseTemplate_StructureJSONShape(t *testing.T) {
	tmpl := newTemplate(t, func(f *excelize.File) {
		must(t, f.SetCellValue("Sheet1", "A1", "x"))
		must(t, f.SetColWidth("Sheet1", "A", "A", 10))
	})
	wb, err := ParseBytes(tmpl)
	require.NoError(t, err)

	data, err := json.Marshal(wb)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))

	sheet := generic["sheets"].([]any)[0].(map[string]any)
	assert.Equal(t, "Sheet1", sheet["name"])
	assert.Equal(t, map[string]any{"value": "x"}, sheet["cells"].(map[string]any)["A1"])
	assert.Equal(t, map[string]any{"0": 70.0}, sheet["columnWidths"])
	assert.Equal(t, []any{}, sheet["merges"])
	assert.Equal(t, map[string]any{}, sheet["rowHeights"])
}

func TestParseTemplate_Invalid(t *testing.T) {
	_, err := ParseBytes([]byte("definitely not a zip"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
}

func TestTypedValue(t *testing.T) {
	tests := []struct {
		typ  excelize.CellType
		raw  string
		want any
	}{
		{excelize.CellTypeSharedString, "007", "007"},
		{excelize.CellTypeInlineString, "abc", "abc"},
		{excelize.CellTypeUnset, "12", int64(12)},
		{excelize.CellTypeNumber, "1.5E3", 1500.0},
		{excelize.CellTypeBool, "1", true},
		{excelize.CellTypeBool, "0", false},
		{excelize.CellTypeError, "#DIV/0!", "#DIV/0!"},
		{excelize.CellTypeUnset, "n/a", "n/a"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, typedValue(tt.typ, tt.raw), "raw %q", tt.raw)
	}
}

func TestIsGenericFormat(t *testing.T) {
	assert.True(t, isGenericFormat("General"))
	assert.True(t, isGenericFormat("general"))
	assert.False(t, isGenericFormat("0.00"))
	assert.Equal(t, "", numberFormatCode(0, nil))
	assert.Equal(t, "0%", numberFormatCode(9, nil))
	assert.Equal(t, "", numberFormatCode(200, nil))
}
