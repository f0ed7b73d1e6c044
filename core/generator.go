package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"xlreport/config"
)

// ContentTypeXLSX is the media type of generated workbooks.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Output is a generated report.
type Output struct {
	Filename    string
	ContentType string
	Content     []byte
}

// GenerateRequest asks for one report run.
type GenerateRequest struct {
	Report *config.ReportConfig
	Params map[string]string
}

// Generator fills templates with fetched rows. It holds no per-request
// state, so one Generator serves concurrent calls.
type Generator struct {
	Templates *TemplateService
	Provider  config.Provider
	Fetcher   DataFetcher
	Resolver  *Resolver
	Now       func() time.Time
}

func NewGenerator(templates *TemplateService, provider config.Provider, fetcher DataFetcher) *Generator {
	return &Generator{
		Templates: templates,
		Provider:  provider,
		Fetcher:   fetcher,
		Resolver:  &Resolver{},
		Now:       time.Now,
	}
}

func (g *Generator) now() time.Time {
	if g.Now == nil {
		return time.Now()
	}
	return g.Now()
}

// OutputFilename is "{name}_{YYYYMMDD_HHMMSS}.xlsx".
func OutputFilename(name string, at time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", name, at.Format("20060102_150405"))
}

// Generate loads the report's template, fetches its data and renders it.
// Only a template that cannot be loaded or rendered fails the call.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (*Output, error) {
	report := req.Report
	started := g.now()

	tmpl, err := g.Templates.Template(ctx, report.Template)
	if err != nil {
		return nil, &GenerationError{ReportName: report.Name, Err: err}
	}

	bindings := MappingBindings(report.Mappings)
	if len(report.Placeholders) > 0 {
		placeholders, err := g.placeholders(ctx, report.Template, tmpl)
		if err != nil {
			return nil, &GenerationError{ReportName: report.Name, Err: err}
		}
		bindings = append(bindings, PairPlaceholders(placeholders, report.Placeholders)...)
	}

	gctx := NewGenerationContext(report, g.Provider, g.Fetcher, req.Params)
	data := gctx.LoadData(ctx, bindings)

	content, err := g.Render(tmpl, OverlayWorkbook(report.Overlay), bindings, data)
	if err != nil {
		return nil, &GenerationError{ReportName: report.Name, Err: err}
	}

	slog.Info("Report generated",
		"report", report.Name,
		"template", report.Template,
		"bindings", len(bindings),
		"bytes", len(content),
		"elapsed", g.now().Sub(started),
	)
	return &Output{
		Filename:    OutputFilename(report.Name, started),
		ContentType: ContentTypeXLSX,
		Content:     content,
	}, nil
}

// placeholders prefers the set stored at upload so id-keyed bindings match.
// Templates stored without one are scanned again.
func (g *Generator) placeholders(ctx context.Context, id string, tmpl []byte) ([]Placeholder, error) {
	phs, err := g.Templates.Placeholders(ctx, id)
	if err == nil {
		return phs, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	wb, err := ParseBytes(tmpl)
	if err != nil {
		return nil, err
	}
	return ScanPlaceholders(wb), nil
}

// Render applies overlay values and resolved bindings to a template. The
// template bytes are parsed fresh on every call and never modified.
func (g *Generator) Render(template []byte, overlay *Workbook, bindings []Binding, data map[string]*RowSet) (out []byte, err error) {
	wb, err := ParseBytes(template)
	if err != nil {
		return nil, err
	}

	f, err := openExcelFile(bytes.NewReader(template))
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	defer func(f ExcelFile) {
		if closeErr := f.Close(); closeErr != nil {
			if err == nil {
				err = fmt.Errorf("failed to close template file: %w", closeErr)
			} else {
				err = fmt.Errorf("%w; (cleanup error: %v)", err, closeErr)
			}
		}
	}(f)

	g.applyOverlay(f, wb, overlay)

	headerStyleID := -1
	for _, w := range g.Resolver.Resolve(wb, bindings, data) {
		if err := f.SetCellValue(w.Sheet, w.Ref, valToCell(w.Value)); err != nil {
			slog.Warn("Skipping cell write", "sheet", w.Sheet, "cell", w.Ref, "error", err)
			continue
		}
		if !w.Header {
			continue
		}
		if headerStyleID < 0 {
			if headerStyleID, err = f.NewStyle(headerStyle()); err != nil {
				return nil, fmt.Errorf("failed to create header style: %w", err)
			}
		}
		if err := f.SetCellStyle(w.Sheet, w.Ref, w.Ref, headerStyleID); err != nil {
			slog.Warn("Skipping header style", "sheet", w.Sheet, "cell", w.Ref, "error", err)
		}
	}

	// UX: Reset view to A1 for all sheets and set first sheet active
	if sheets := f.GetSheetList(); len(sheets) > 0 {
		for _, sheet := range sheets {
			_ = f.SetSelection(sheet, "A1")
		}
		f.SetActiveSheet(0)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// applyOverlay writes manual edits. Sheets missing from the template are skipped.
func (g *Generator) applyOverlay(f ExcelFile, wb *Workbook, overlay *Workbook) {
	if overlay == nil {
		return
	}
	for _, sheet := range overlay.Sheets {
		if wb.Sheet(sheet.Name) == nil {
			slog.Warn("Skipping overlay for unknown sheet", "sheet", sheet.Name)
			continue
		}
		for _, ref := range sortedRefs(sheet.Cells) {
			cell := sheet.Cells[ref]
			if err := f.SetCellValue(sheet.Name, ref, valToCell(cell.Value)); err != nil {
				slog.Warn("Skipping overlay cell", "sheet", sheet.Name, "cell", ref, "error", err)
			}
		}
	}
}

// OverlayWorkbook converts a report's sheet -> cell -> value edits into the
// structural model shape. Sheets are ordered by name.
func OverlayWorkbook(edits map[string]map[string]any) *Workbook {
	if len(edits) == 0 {
		return nil
	}
	names := make([]string, 0, len(edits))
	for name := range edits {
		names = append(names, name)
	}
	sort.Strings(names)

	wb := &Workbook{}
	for _, name := range names {
		sheet := newSheet(name)
		for ref, v := range edits[name] {
			sheet.Cells[ref] = CellRecord{Value: v}
		}
		wb.Sheets = append(wb.Sheets, sheet)
	}
	return wb
}

// valToCell normalizes fetched values into types excelize writes natively.
func valToCell(v any) any {
	switch vv := v.(type) {
	case nil:
		return ""
	case string, bool, time.Time,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return vv
	case json.Number:
		if i, err := vv.Int64(); err == nil {
			return i
		}
		if f, err := vv.Float64(); err == nil {
			return f
		}
		return vv.String()
	case []byte:
		return string(vv)
	case fmt.Stringer:
		return vv.String()
	default:
		b, err := json.Marshal(vv)
		if err != nil {
			return fmt.Sprintf("%v", vv)
		}
		return string(b)
	}
}
