// Package cellref converts between spreadsheet column letters, indexes and
// A1-style cell references.
package cellref

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrInvalidAddress is returned for any malformed column, cell or range reference.
var ErrInvalidAddress = errors.New("invalid address")

// MaxColumn is the last addressable column (XFD).
const MaxColumn = excelize.MaxColumns

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidAddress}, args...)...)
}

// ColumnLetterToIndex converts "A" to 1, "Z" to 26, "AA" to 27 and so on.
func ColumnLetterToIndex(letters string) (int, error) {
	if letters == "" {
		return 0, invalid("empty column")
	}
	for _, r := range letters {
		if !isLetter(r) {
			return 0, invalid("column %q contains %q", letters, r)
		}
	}
	idx, err := excelize.ColumnNameToNumber(letters)
	if err != nil {
		return 0, invalid("column %q: %v", letters, err)
	}
	return idx, nil
}

// IndexToColumnLetter is the inverse of ColumnLetterToIndex.
func IndexToColumnLetter(idx int) (string, error) {
	name, err := excelize.ColumnNumberToName(idx)
	if err != nil {
		return "", invalid("column index %d: %v", idx, err)
	}
	return name, nil
}

// ParseCellRef splits "AA10" into (27, 10). The reference must be one or more
// letters followed by one or more digits with a row of at least 1.
func ParseCellRef(ref string) (col, row int, err error) {
	split := strings.IndexFunc(ref, func(r rune) bool { return !isLetter(r) })
	if split <= 0 {
		return 0, 0, invalid("cell %q has no column", ref)
	}
	digits := ref[split:]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, 0, invalid("cell %q has a malformed row", ref)
		}
	}
	row, err = strconv.Atoi(digits)
	if err != nil || row < 1 || row > excelize.TotalRows {
		return 0, 0, invalid("cell %q row out of range", ref)
	}
	col, err = ColumnLetterToIndex(ref[:split])
	if err != nil {
		return 0, 0, err
	}
	return col, row, nil
}

// CellRef builds an A1-style reference from 1-based coordinates.
func CellRef(col, row int) (string, error) {
	if row < 1 || row > excelize.TotalRows {
		return "", invalid("row %d out of range", row)
	}
	letters, err := IndexToColumnLetter(col)
	if err != nil {
		return "", err
	}
	return letters + strconv.Itoa(row), nil
}

// Range is an inclusive rectangle of cells.
type Range struct {
	StartCol, StartRow int
	EndCol, EndRow     int
}

// ParseRange parses "A1:C3". A single reference yields a one-cell range.
func ParseRange(ref string) (Range, error) {
	from, to, found := strings.Cut(ref, ":")
	c1, r1, err := ParseCellRef(from)
	if err != nil {
		return Range{}, err
	}
	if !found {
		return Range{c1, r1, c1, r1}, nil
	}
	c2, r2, err := ParseCellRef(to)
	if err != nil {
		return Range{}, err
	}
	if c2 < c1 || r2 < r1 {
		return Range{}, invalid("range %q is inverted", ref)
	}
	return Range{c1, r1, c2, r2}, nil
}

// Contains reports whether (col, row) lies within the range.
func (r Range) Contains(col, row int) bool {
	return col >= r.StartCol && col <= r.EndCol && row >= r.StartRow && row <= r.EndRow
}

// String renders the range as "A1:C3".
func (r Range) String() string {
	from, _ := CellRef(r.StartCol, r.StartRow)
	to, _ := CellRef(r.EndCol, r.EndRow)
	return from + ":" + to
}

func isLetter(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}
