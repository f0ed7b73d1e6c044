package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"
)

type TemplateServiceSuite struct {
	suite.Suite
	ctx     context.Context
	service *TemplateService
	tmpl    []byte
}

func (s *TemplateServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.service = NewTemplateService(NewLocalTemplateStore(s.T().TempDir()))
	s.tmpl = newTemplate(s.T(), func(f *excelize.File) {
		must(s.T(), f.SetCellValue("Sheet1", "A1", "Sales report"))
		must(s.T(), f.SetCellValue("Sheet1", "C3", "{{value:total}}"))
		must(s.T(), f.MergeCell("Sheet1", "A1", "C1"))
	})
}

func (s *TemplateServiceSuite) TestUploadStoresArtifacts() {
	info, err := s.service.Upload(s.ctx, "sales", "Sales.XLSX", s.tmpl)
	s.Require().NoError(err)
	s.Require().Len(info.Placeholders, 1)
	s.Equal("total", info.Placeholders[0].Name)
	s.Equal("C3", info.Placeholders[0].CellRef)

	stored, err := s.service.Template(s.ctx, "sales")
	s.Require().NoError(err)
	s.Equal(s.tmpl, stored)

	structure, err := s.service.Structure(s.ctx, "sales")
	s.Require().NoError(err)
	s.Equal(info.Structure, structure)

	phs, err := s.service.Placeholders(s.ctx, "sales")
	s.Require().NoError(err)
	s.Equal(info.Placeholders, phs)
}

func (s *TemplateServiceSuite) TestReuploadReplacesPlaceholders() {
	first, err := s.service.Upload(s.ctx, "sales", "sales.xlsx", s.tmpl)
	s.Require().NoError(err)
	second, err := s.service.Upload(s.ctx, "sales", "sales.xlsx", s.tmpl)
	s.Require().NoError(err)

	phs, err := s.service.Placeholders(s.ctx, "sales")
	s.Require().NoError(err)
	s.Require().Len(phs, 1)
	s.Equal(second.Placeholders[0].ID, phs[0].ID)
	s.NotEqual(first.Placeholders[0].ID, phs[0].ID)
}

func (s *TemplateServiceSuite) TestUploadRejectsExtension() {
	_, err := s.service.Upload(s.ctx, "sales", "sales.csv", s.tmpl)
	s.ErrorIs(err, ErrValidation)

	_, err = s.service.Template(s.ctx, "sales")
	s.ErrorIs(err, ErrNotFound, "rejected upload stores nothing")
}

func (s *TemplateServiceSuite) TestUploadCorruptWorkbook() {
	_, err := s.service.Upload(s.ctx, "broken", "broken.xlsx", []byte("not a workbook"))
	s.Require().Error(err)
	s.ErrorIs(err, ErrParse)

	var pe *ParseError
	s.Require().True(errors.As(err, &pe))
	s.Equal("broken", pe.TemplateID)
}

func (s *TemplateServiceSuite) TestMissingArtifacts() {
	_, err := s.service.Structure(s.ctx, "nope")
	s.ErrorIs(err, ErrNotFound)
	_, err = s.service.Placeholders(s.ctx, "nope")
	s.ErrorIs(err, ErrNotFound)
	_, err = s.service.Structure(s.ctx, "../etc")
	s.ErrorIs(err, ErrValidation)
}

func TestTemplateServiceSuite(t *testing.T) {
	suite.Run(t, new(TemplateServiceSuite))
}

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &GenerationError{ReportName: "Monthly", Err: cause}
	assert.ErrorIs(t, err, ErrGeneration)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "Monthly")

	pe := &ParseError{TemplateID: "t1", Err: cause}
	require.ErrorIs(t, pe, ErrParse)
	assert.Contains(t, pe.Error(), `"t1"`)
}
