package core

import (
	"strings"

	"github.com/xuri/nfp"
)

// builtInNumFmt maps the ECMA-376 built-in numFmtId values to their codes.
// Locale-specific ids (27-36, 50-58) have no portable code and are omitted.
var builtInNumFmt = map[int]string{
	0:  "General",
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	5:  `($#,##0_);($#,##0)`,
	6:  `($#,##0_);[Red]($#,##0)`,
	7:  `($#,##0.00_);($#,##0.00)`,
	8:  `($#,##0.00_);[Red]($#,##0.00)`,
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	12: "# ?/?",
	13: "# ??/??",
	14: "mm-dd-yy",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	18: "h:mm AM/PM",
	19: "h:mm:ss AM/PM",
	20: "hh:mm",
	21: "hh:mm:ss",
	22: "m/d/yy hh:mm",
	37: `(#,##0_);(#,##0)`,
	38: `(#,##0_);[Red](#,##0)`,
	39: `(#,##0.00_);(#,##0.00)`,
	40: `(#,##0.00_);[Red](#,##0.00)`,
	41: `_(* #,##0_);_(* (#,##0);_(* "-"_);_(@_)`,
	42: `_($* #,##0_);_($* (#,##0);_($* "-"_);_(@_)`,
	43: `_(* #,##0.00_);_(* (#,##0.00);_(* "-"??_);_(@_)`,
	44: `_($* #,##0.00_);_($* (#,##0.00);_($* "-"??_);_(@_)`,
	45: "mm:ss",
	46: "[h]:mm:ss",
	47: "mm:ss.0",
	48: "##0.0E+0",
	49: "@",
}

// numberFormatCode resolves a style's number format to its code. An empty
// result means the cell uses the workbook's generic format.
func numberFormatCode(numFmtID int, custom *string) string {
	if custom != nil && *custom != "" {
		if isGenericFormat(*custom) {
			return ""
		}
		return *custom
	}
	code, ok := builtInNumFmt[numFmtID]
	if !ok || isGenericFormat(code) {
		return ""
	}
	return code
}

// isGenericFormat reports whether every section of the code is a bare General token.
func isGenericFormat(code string) bool {
	if strings.EqualFold(strings.TrimSpace(code), "general") {
		return true
	}
	ps := nfp.NumberFormatParser()
	sections := ps.Parse(code)
	if len(sections) == 0 {
		return false
	}
	for _, sec := range sections {
		if len(sec.Items) != 1 || sec.Items[0].TType != nfp.TokenTypeGeneral {
			return false
		}
	}
	return true
}
