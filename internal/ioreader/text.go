package ioreader

import (
	"strconv"
	"strings"

	"github.com/astroinject/astroinject/pkg/table"
)

// textColumn builds a column from raw text cells. The kind is the
// narrowest of int64, float64, bool and text that accepts every
// non-empty cell. Empty cells are masked.
func textColumn(name string, cells []string) *table.Column {
	kind := sniffKind(cells)
	b := newBuilder(name, kind, false, len(cells))
	for _, s := range cells {
		s = strings.TrimSpace(s)
		if s == "" {
			b.appendNull()
			continue
		}
		switch kind {
		case table.Int64:
			v, _ := strconv.ParseInt(s, 10, 64)
			b.appendInt(v)
		case table.Float64:
			v, _ := strconv.ParseFloat(s, 64)
			b.appendFloat(v)
		case table.Bool:
			v, _ := parseBool(s)
			b.appendBool(v)
		default:
			b.appendText(s)
		}
	}
	return b.column()
}

func sniffKind(cells []string) table.Kind {
	isInt, isFloat, isBool := true, true, true
	var seen bool
	for _, s := range cells {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		seen = true
		if isInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				isFloat = false
			}
		}
		if isBool {
			if _, ok := parseBool(s); !ok {
				isBool = false
			}
		}
		if !isInt && !isFloat && !isBool {
			return table.Text
		}
	}
	switch {
	case !seen:
		return table.Text
	case isInt:
		return table.Int64
	case isFloat:
		return table.Float64
	case isBool:
		return table.Bool
	}
	return table.Text
}

// parseBool accepts only word forms. Digits are left to numeric kinds.
func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "t", "yes":
		return true, true
	case "false", "f", "no":
		return false, true
	}
	return false, false
}
