package core

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

// newTemplate builds an in-memory workbook and returns its bytes.
func newTemplate(t *testing.T, build func(f *excelize.File)) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if build != nil {
		build(f)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write template: %v", err)
	}
	return buf.Bytes()
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func mustStyle(t *testing.T, f *excelize.File, st *excelize.Style) int {
	t.Helper()
	id, err := f.NewStyle(st)
	if err != nil {
		t.Fatalf("new style: %v", err)
	}
	return id
}
