package core

import (
	"io"

	"github.com/xuri/excelize/v2"
)

// ExcelFile abstracts workbook operations to decouple parser and generator logic from excelize.
type ExcelFile interface {
	Close() error
	GetCellFormula(sheet, cell string) (string, error)
	GetCellStyle(sheet, cell string) (int, error)
	GetCellType(sheet, cell string) (excelize.CellType, error)
	GetCellValue(sheet, cell string, opts ...excelize.Options) (string, error)
	GetColWidth(sheet, col string) (float64, error)
	GetMergeCells(sheet string) ([]excelize.MergeCell, error)
	GetRowHeight(sheet string, row int) (float64, error)
	GetRows(sheet string) ([][]string, error)
	GetSheetDimension(sheet string) (string, error)
	GetSheetList() []string
	GetStyle(idx int) (*excelize.Style, error)
	NewStyle(style *excelize.Style) (int, error)
	SetActiveSheet(index int)
	SetCellStyle(sheet, hcell, vcell string, styleID int) error
	SetCellValue(sheet, cell string, value any) error
	SetSelection(sheetName, cell string) error
	Write(w io.Writer) error
}

type ExcelizeFile struct {
	file *excelize.File
}

func openExcelFile(r io.Reader) (ExcelFile, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	return &ExcelizeFile{file: file}, nil
}

func (e *ExcelizeFile) Close() error {
	return e.file.Close()
}

func (e *ExcelizeFile) GetCellFormula(sheet, cell string) (string, error) {
	return e.file.GetCellFormula(sheet, cell)
}

func (e *ExcelizeFile) GetCellStyle(sheet, cell string) (int, error) {
	return e.file.GetCellStyle(sheet, cell)
}

func (e *ExcelizeFile) GetCellType(sheet, cell string) (excelize.CellType, error) {
	return e.file.GetCellType(sheet, cell)
}

func (e *ExcelizeFile) GetCellValue(sheet, cell string, opts ...excelize.Options) (string, error) {
	return e.file.GetCellValue(sheet, cell, opts...)
}

func (e *ExcelizeFile) GetColWidth(sheet, col string) (float64, error) {
	return e.file.GetColWidth(sheet, col)
}

func (e *ExcelizeFile) GetMergeCells(sheet string) ([]excelize.MergeCell, error) {
	return e.file.GetMergeCells(sheet)
}

func (e *ExcelizeFile) GetRowHeight(sheet string, row int) (float64, error) {
	return e.file.GetRowHeight(sheet, row)
}

func (e *ExcelizeFile) GetRows(sheet string) ([][]string, error) {
	return e.file.GetRows(sheet, excelize.Options{RawCellValue: true})
}

func (e *ExcelizeFile) GetSheetDimension(sheet string) (string, error) {
	return e.file.GetSheetDimension(sheet)
}

func (e *ExcelizeFile) GetSheetList() []string {
	return e.file.GetSheetList()
}

func (e *ExcelizeFile) GetStyle(idx int) (*excelize.Style, error) {
	return e.file.GetStyle(idx)
}

func (e *ExcelizeFile) NewStyle(style *excelize.Style) (int, error) {
	return e.file.NewStyle(style)
}

func (e *ExcelizeFile) SetActiveSheet(index int) {
	e.file.SetActiveSheet(index)
}

func (e *ExcelizeFile) SetCellStyle(sheet, hcell, vcell string, styleID int) error {
	return e.file.SetCellStyle(sheet, hcell, vcell, styleID)
}

func (e *ExcelizeFile) SetCellValue(sheet, cell string, value any) error {
	return e.file.SetCellValue(sheet, cell, value)
}

func (e *ExcelizeFile) Write(w io.Writer) error {
	return e.file.Write(w)
}

func (e *ExcelizeFile) SetSelection(sheetName, cell string) error {
	// Keep frozen or split panes, only move the selection.
	panes, err := e.file.GetPanes(sheetName)
	if err == nil {
		panes.Selection = []excelize.Selection{
			{
				ActiveCell: cell,
				SQRef:      cell,
				Pane:       panes.ActivePane,
			},
		}
		return e.file.SetPanes(sheetName, &panes)
	}

	return e.file.SetPanes(sheetName, &excelize.Panes{
		Selection: []excelize.Selection{
			{
				ActiveCell: cell,
				SQRef:      cell,
			},
		},
	})
}
