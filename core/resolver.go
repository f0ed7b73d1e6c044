package core

import (
	"log/slog"
)

// Resolver turns bindings plus fetched data into cell writes. A binding
// that cannot be resolved is logged and skipped; the rest still apply.
type Resolver struct {
	Logger *slog.Logger
}

func (r *Resolver) logger() *slog.Logger {
	if r == nil || r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// Resolve returns the writes of every binding, in binding order.
func (r *Resolver) Resolve(wb *Workbook, bindings []Binding, data map[string]*RowSet) []CellWrite {
	var writes []CellWrite
	for _, b := range bindings {
		rows, ok := data[b.DataKey()]
		if !ok || rows == nil {
			r.logger().Warn("Skipping binding without data", "binding", bindingName(b), "source", b.DataKey())
			continue
		}
		w, err := b.Resolve(wb, rows)
		if err != nil {
			r.logger().Warn("Skipping binding",
				"binding", bindingName(b),
				"sheet", bindingSheet(b),
				"source", b.DataKey(),
				"error", err,
			)
			continue
		}
		writes = append(writes, w...)
	}
	return writes
}

func bindingName(b Binding) string {
	switch v := b.(type) {
	case *MappingBinding:
		return v.Mapping.ID
	case *PlaceholderBinding:
		return v.Placeholder.Token
	}
	return ""
}

func bindingSheet(b Binding) string {
	switch v := b.(type) {
	case *MappingBinding:
		return v.Mapping.SheetName
	case *PlaceholderBinding:
		return v.Placeholder.SheetName
	}
	return ""
}
