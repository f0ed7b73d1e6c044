package core

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks caller mistakes: bad upload extension, missing references.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks an unresolved template, report or stored artifact.
	ErrNotFound = errors.New("not found")
	// ErrParse marks a corrupt or unsupported workbook container.
	ErrParse = errors.New("invalid workbook")
	// ErrGeneration marks a generation that could not load its template.
	ErrGeneration = errors.New("generation failed")
)

// ParseError reports a workbook that could not be decoded.
type ParseError struct {
	TemplateID string
	Err        error
}

func (e *ParseError) Error() string {
	if e.TemplateID == "" {
		return fmt.Sprintf("%v: %v", ErrParse, e.Err)
	}
	return fmt.Sprintf("template %q: %v: %v", e.TemplateID, ErrParse, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

// GenerationError reports a report whose template could not be loaded.
type GenerationError struct {
	ReportName string
	Err        error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("report %q: %v: %v", e.ReportName, ErrGeneration, e.Err)
}

func (e *GenerationError) Unwrap() []error {
	return []error{ErrGeneration, e.Err}
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
