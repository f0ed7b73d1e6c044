package config

import (
	"strings"
	"testing"
)

func validMapping() DataSourceMapping {
	return DataSourceMapping{
		ID:            "m1",
		SourceID:      "sales",
		SheetName:     "Sheet1",
		StartCell:     "B5",
		Columns:       []ColumnMapping{{SourceColumn: "region"}, {SourceColumn: "amount"}},
		IncludeHeader: true,
		AutoExpand:    true,
	}
}

func TestValidator_ValidateReport(t *testing.T) {
	provider := NewMemoryConfigRegistry(map[string]*SourceConfig{
		"sales": {ID: "sales", Table: "sales"},
	})
	validator := NewValidator(provider)

	farRight := validMapping()
	farRight.StartCell = "XFD1"

	badAnchor := validMapping()
	badAnchor.StartCell = "1A"

	noColumns := validMapping()
	noColumns.Columns = nil

	unknownSource := validMapping()
	unknownSource.SourceID = "unknown_source"

	tests := []struct {
		name    string
		report  *ReportConfig
		wantErr bool
		errMsg  string
	}{
		{
			name: "Valid Report",
			report: &ReportConfig{
				ID: "r1", Name: "Report", Template: "tpl",
				Mappings: []DataSourceMapping{validMapping()},
				Placeholders: map[string]LegacyBinding{
					"total": {Type: LegacySourceInlineQuery, Query: "SELECT 1"},
				},
				Overlay: map[string]map[string]any{"Sheet1": {"A1": "note"}},
			},
			wantErr: false,
		},
		{
			name:    "Missing Name",
			report:  &ReportConfig{ID: "r1", Template: "tpl"},
			wantErr: true,
			errMsg:  "report name is required",
		},
		{
			name:    "Missing Template",
			report:  &ReportConfig{ID: "r1", Name: "Report"},
			wantErr: true,
			errMsg:  "report template is required",
		},
		{
			name:    "Bad Anchor",
			report:  &ReportConfig{ID: "r1", Name: "Report", Template: "tpl", Mappings: []DataSourceMapping{badAnchor}},
			wantErr: true,
			errMsg:  "start cell",
		},
		{
			name:    "Columns Past Last Column",
			report:  &ReportConfig{ID: "r1", Name: "Report", Template: "tpl", Mappings: []DataSourceMapping{farRight}},
			wantErr: true,
			errMsg:  "past the last column",
		},
		{
			name:    "No Columns",
			report:  &ReportConfig{ID: "r1", Name: "Report", Template: "tpl", Mappings: []DataSourceMapping{noColumns}},
			wantErr: true,
			errMsg:  "at least one column",
		},
		{
			name:   "Unknown Source Is Not Fatal",
			report: &ReportConfig{ID: "r1", Name: "Report", Template: "tpl", Mappings: []DataSourceMapping{unknownSource}},
		},
		{
			name: "Duplicate Mapping",
			report: &ReportConfig{ID: "r1", Name: "Report", Template: "tpl",
				Mappings: []DataSourceMapping{validMapping(), validMapping()}},
			wantErr: true,
			errMsg:  "duplicate mapping id",
		},
		{
			name: "Bad Legacy Binding",
			report: &ReportConfig{ID: "r1", Name: "Report", Template: "tpl",
				Placeholders: map[string]LegacyBinding{"x": {Type: "spreadsheet"}}},
			wantErr: true,
			errMsg:  "invalid binding type",
		},
		{
			name: "Bad Overlay Ref",
			report: &ReportConfig{ID: "r1", Name: "Report", Template: "tpl",
				Overlay: map[string]map[string]any{"Sheet1": {"1A": "x"}}},
			wantErr: true,
			errMsg:  "overlay sheet",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateReport(tt.report)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateReport() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("ValidateReport() error = %v, want error containing %s", err, tt.errMsg)
			}
		})
	}
}

func TestValidator_ValidateLegacyBinding(t *testing.T) {
	validator := NewValidator(NewMemoryConfigRegistry(map[string]*SourceConfig{
		"totals": {ID: "totals", SQL: "SELECT 1"},
	}))
	tests := []struct {
		name    string
		binding LegacyBinding
		wantErr bool
	}{
		{"Saved Query", LegacyBinding{Type: LegacySourceSavedQuery, SourceID: "totals"}, false},
		{"Visualization Missing Source", LegacyBinding{Type: LegacySourceVisualization}, true},
		{"Unknown Source", LegacyBinding{Type: LegacySourceSavedQuery, SourceID: "nope"}, false},
		{"Inline Query", LegacyBinding{Type: LegacySourceInlineQuery, Query: "SELECT 1"}, false},
		{"Inline Query Missing SQL", LegacyBinding{Type: LegacySourceInlineQuery}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateLegacyBinding(tt.binding)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLegacyBinding() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidator_UnknownSources(t *testing.T) {
	validator := NewValidator(NewMemoryConfigRegistry(map[string]*SourceConfig{
		"sales": {ID: "sales", Table: "sales"},
	}))
	gone := validMapping()
	gone.ID = "m2"
	gone.SourceID = "gone"
	report := &ReportConfig{ID: "r1", Name: "Report", Template: "tpl",
		Mappings: []DataSourceMapping{validMapping(), gone},
		Placeholders: map[string]LegacyBinding{
			"total":  {Type: LegacySourceSavedQuery, SourceID: "archive"},
			"inline": {Type: LegacySourceInlineQuery, Query: "SELECT 1"},
		},
	}

	got := validator.UnknownSources(report)
	if strings.Join(got, ",") != "archive,gone" {
		t.Errorf("UnknownSources() = %v, want [archive gone]", got)
	}
	if got := NewValidator(nil).UnknownSources(report); got != nil {
		t.Errorf("UnknownSources() without provider = %v, want nil", got)
	}
}

func TestValidator_ValidateSource(t *testing.T) {
	validator := NewValidator(nil)
	tests := []struct {
		name    string
		src     *SourceConfig
		wantErr bool
		errMsg  string
	}{
		{name: "Valid Table", src: &SourceConfig{ID: "s1", Table: "sales"}},
		{name: "Valid SQL", src: &SourceConfig{ID: "s1", SQL: "SELECT 1"}},
		{name: "Missing ID", src: &SourceConfig{Table: "sales"}, wantErr: true, errMsg: "source id is required"},
		{name: "Missing Table", src: &SourceConfig{ID: "s1"}, wantErr: true, errMsg: "requires a table or sql"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateSource(tt.src)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSource() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("ValidateSource() error = %v, want error containing %s", err, tt.errMsg)
			}
		})
	}
}
