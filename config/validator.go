package config

import (
	"fmt"
	"sort"

	"xlreport/cellref"
)

// Validator validates the configuration objects.
type Validator struct {
	Provider Provider
}

// NewValidator creates a new Validator. The provider is only consulted by
// UnknownSources; a nil provider reports nothing.
func NewValidator(provider Provider) *Validator {
	return &Validator{Provider: provider}
}

// ValidateReport validates the ReportConfig.
func (v *Validator) ValidateReport(r *ReportConfig) error {
	if r.ID == "" {
		return fmt.Errorf("report id is required")
	}
	if r.Name == "" {
		return fmt.Errorf("report name is required")
	}
	if r.Template == "" {
		return fmt.Errorf("report template is required")
	}
	if r.RowLimit < 0 {
		return fmt.Errorf("report row limit must not be negative")
	}

	seen := make(map[string]struct{}, len(r.Mappings))
	for i := range r.Mappings {
		m := &r.Mappings[i]
		if err := v.ValidateMapping(m); err != nil {
			return fmt.Errorf("mapping %d error: %w", i, err)
		}
		if _, dup := seen[m.ID]; dup {
			return fmt.Errorf("mapping %d error: duplicate mapping id '%s'", i, m.ID)
		}
		seen[m.ID] = struct{}{}
	}

	for key, b := range r.Placeholders {
		if err := v.ValidateLegacyBinding(b); err != nil {
			return fmt.Errorf("placeholder '%s' error: %w", key, err)
		}
	}

	for sheet, cells := range r.Overlay {
		for ref := range cells {
			if _, _, err := cellref.ParseCellRef(ref); err != nil {
				return fmt.Errorf("overlay sheet '%s': %w", sheet, err)
			}
		}
	}
	return nil
}

// ValidateMapping validates a DataSourceMapping.
func (v *Validator) ValidateMapping(m *DataSourceMapping) error {
	if m.ID == "" {
		return fmt.Errorf("mapping id is required")
	}
	if m.SourceID == "" {
		return fmt.Errorf("mapping '%s' requires a source", m.ID)
	}
	if m.SheetName == "" {
		return fmt.Errorf("mapping '%s' requires a sheet name", m.ID)
	}
	if len(m.Columns) == 0 {
		return fmt.Errorf("mapping '%s' must have at least one column", m.ID)
	}

	col, _, err := cellref.ParseCellRef(m.StartCell)
	if err != nil {
		return fmt.Errorf("mapping '%s' start cell: %w", m.ID, err)
	}
	if _, err := cellref.IndexToColumnLetter(col + m.MaxOffset()); err != nil {
		return fmt.Errorf("mapping '%s' columns run past the last column: %w", m.ID, err)
	}

	for i, c := range m.Columns {
		if c.SourceColumn == "" {
			return fmt.Errorf("mapping '%s' column %d source column is required", m.ID, i)
		}
	}
	return nil
}

// ValidateLegacyBinding validates the data source of a legacy placeholder.
func (v *Validator) ValidateLegacyBinding(b LegacyBinding) error {
	switch b.Type {
	case LegacySourceVisualization, LegacySourceSavedQuery:
		if b.SourceID == "" {
			return fmt.Errorf("%s binding requires a source", b.Type)
		}
	case LegacySourceInlineQuery:
		if b.Query == "" {
			return fmt.Errorf("inline_query binding requires a query")
		}
	default:
		return fmt.Errorf("invalid binding type '%s'", b.Type)
	}
	return nil
}

// UnknownSources lists the mapping and placeholder source ids the provider
// cannot resolve, sorted. They are not errors: generation logs and skips the
// affected bindings and applies the rest.
func (v *Validator) UnknownSources(r *ReportConfig) []string {
	if v.Provider == nil {
		return nil
	}
	missing := make(map[string]struct{})
	check := func(id string) {
		if id == "" {
			return
		}
		if _, err := v.Provider.GetSourceConfig(id); err != nil {
			missing[id] = struct{}{}
		}
	}
	for _, m := range r.Mappings {
		check(m.SourceID)
	}
	for _, b := range r.Placeholders {
		if b.Type != LegacySourceInlineQuery {
			check(b.SourceID)
		}
	}
	ids := make([]string, 0, len(missing))
	for id := range missing {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ValidateSource validates the SourceConfig.
func (v *Validator) ValidateSource(s *SourceConfig) error {
	if s.ID == "" {
		return fmt.Errorf("source id is required")
	}
	if s.Table == "" && s.SQL == "" {
		return fmt.Errorf("source '%s' requires a table or sql", s.ID)
	}
	return nil
}
