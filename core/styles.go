package core

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

var borderStyleNames = map[int]string{
	1:  "thin",
	2:  "medium",
	3:  "dashed",
	4:  "dotted",
	5:  "thick",
	6:  "double",
	7:  "hair",
	8:  "mediumDashed",
	9:  "dashDot",
	10: "mediumDashDot",
	11: "dashDotDot",
	12: "mediumDashDotDot",
	13: "slantDashDot",
}

// normalizeColor turns excelize RGB/ARGB strings into "#RRGGBB".
func normalizeColor(c string) string {
	c = strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(c), "#"))
	if len(c) == 8 {
		c = c[2:]
	}
	if len(c) != 6 {
		return ""
	}
	return "#" + c
}

// styleRecord converts an excelize style into the attributes that differ from
// the workbook default. It returns nil when nothing differs.
func styleRecord(def, st *excelize.Style) *StyleRecord {
	if st == nil {
		return nil
	}
	rec := &StyleRecord{
		Font:         fontRecord(def, st.Font),
		Fill:         fillRecord(st.Fill),
		Border:       borderRecord(st.Border),
		Alignment:    alignmentRecord(st.Alignment),
		NumberFormat: numberFormatCode(st.NumFmt, st.CustomNumFmt),
	}
	if rec.empty() {
		return nil
	}
	return rec
}

func fontRecord(def *excelize.Style, f *excelize.Font) *FontStyle {
	if f == nil {
		return nil
	}
	base := &excelize.Font{}
	if def != nil && def.Font != nil {
		base = def.Font
	}
	out := FontStyle{}
	if f.Family != "" && f.Family != base.Family {
		out.Name = f.Family
	}
	if f.Size > 0 && f.Size != base.Size {
		out.Size = f.Size
	}
	out.Bold = f.Bold && !base.Bold
	out.Italic = f.Italic && !base.Italic
	if c := normalizeColor(f.Color); c != "" && c != normalizeColor(base.Color) {
		out.Color = c
	}
	if out == (FontStyle{}) {
		return nil
	}
	return &out
}

// fillRecord keeps solid and patterned foreground fills. Pure black is read
// as "no fill" to match workbooks that encode an unset fill that way.
func fillRecord(f excelize.Fill) *FillStyle {
	if f.Type != "pattern" || f.Pattern == 0 || len(f.Color) == 0 {
		return nil
	}
	c := normalizeColor(f.Color[0])
	if c == "" || c == "#000000" {
		return nil
	}
	return &FillStyle{Color: c}
}

func borderRecord(borders []excelize.Border) *BorderStyle {
	out := BorderStyle{}
	for _, b := range borders {
		name, ok := borderStyleNames[b.Style]
		if !ok {
			continue
		}
		side := &BorderSide{Style: name, Color: normalizeColor(b.Color)}
		switch b.Type {
		case "top":
			out.Top = side
		case "bottom":
			out.Bottom = side
		case "left":
			out.Left = side
		case "right":
			out.Right = side
		}
	}
	if out == (BorderStyle{}) {
		return nil
	}
	return &out
}

func alignmentRecord(a *excelize.Alignment) *AlignmentStyle {
	if a == nil {
		return nil
	}
	out := AlignmentStyle{
		Horizontal: a.Horizontal,
		Vertical:   a.Vertical,
		Wrap:       a.WrapText,
	}
	if out == (AlignmentStyle{}) {
		return nil
	}
	return &out
}

// headerStyle is the bold-only style applied to mapping header cells.
func headerStyle() *excelize.Style {
	return &excelize.Style{Font: &excelize.Font{Bold: true}}
}
