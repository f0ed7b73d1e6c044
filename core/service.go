package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

var uploadExtensions = map[string]bool{".xlsx": true, ".xls": true}

// TemplateInfo is the outcome of an upload.
type TemplateInfo struct {
	ID           string        `json:"id"`
	Filename     string        `json:"filename"`
	Structure    *Workbook     `json:"structure"`
	Placeholders []Placeholder `json:"placeholders"`
}

// TemplateService uploads templates and serves their derived artifacts.
type TemplateService struct {
	Store TemplateStore
}

func NewTemplateService(store TemplateStore) *TemplateService {
	return &TemplateService{Store: store}
}

// Upload parses and scans a workbook, then stores it with its structure and
// placeholders. A re-upload replaces all three, so bindings keyed by the old
// placeholder ids stop matching.
func (s *TemplateService) Upload(ctx context.Context, id, filename string, content []byte) (*TemplateInfo, error) {
	if err := checkTemplateID(id); err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !uploadExtensions[ext] {
		return nil, validationf("unsupported template file %q: expected .xlsx or .xls", filename)
	}

	wb, err := ParseBytes(content)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.TemplateID = id
			return nil, pe
		}
		return nil, &ParseError{TemplateID: id, Err: err}
	}
	placeholders := ScanPlaceholders(wb)

	structure, err := json.Marshal(wb)
	if err != nil {
		return nil, fmt.Errorf("failed to encode structure: %w", err)
	}
	phJSON, err := json.Marshal(placeholders)
	if err != nil {
		return nil, fmt.Errorf("failed to encode placeholders: %w", err)
	}

	for _, put := range []struct {
		key  string
		data []byte
	}{
		{TemplateKey(id), content},
		{StructureKey(id), structure},
		{PlaceholdersKey(id), phJSON},
	} {
		if err := s.Store.Put(ctx, put.key, put.data); err != nil {
			return nil, err
		}
	}

	slog.Info("Template uploaded", "template", id, "file", filename, "sheets", len(wb.Sheets), "placeholders", len(placeholders))
	return &TemplateInfo{ID: id, Filename: filename, Structure: wb, Placeholders: placeholders}, nil
}

// Structure returns the stored structural model of a template.
func (s *TemplateService) Structure(ctx context.Context, id string) (*Workbook, error) {
	if err := checkTemplateID(id); err != nil {
		return nil, err
	}
	data, err := s.Store.Get(ctx, StructureKey(id))
	if err != nil {
		return nil, err
	}
	var wb Workbook
	if err := json.Unmarshal(data, &wb); err != nil {
		return nil, fmt.Errorf("failed to decode structure of %s: %w", id, err)
	}
	return &wb, nil
}

// Placeholders returns the stored placeholder set of a template.
func (s *TemplateService) Placeholders(ctx context.Context, id string) ([]Placeholder, error) {
	if err := checkTemplateID(id); err != nil {
		return nil, err
	}
	data, err := s.Store.Get(ctx, PlaceholdersKey(id))
	if err != nil {
		return nil, err
	}
	var phs []Placeholder
	if err := json.Unmarshal(data, &phs); err != nil {
		return nil, fmt.Errorf("failed to decode placeholders of %s: %w", id, err)
	}
	return phs, nil
}

// Template returns the stored workbook bytes.
func (s *TemplateService) Template(ctx context.Context, id string) ([]byte, error) {
	if err := checkTemplateID(id); err != nil {
		return nil, err
	}
	return s.Store.Get(ctx, TemplateKey(id))
}
