package reltype

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/astroinject/astroinject/pkg/table"
)

// CoerceColumn returns col converted to target. The input column is not
// modified. For integer targets non-finite floats become masked rows
// before narrowing; values outside the target range are an error.
func CoerceColumn(col *table.Column, target RelType) (*table.Column, error) {
	kind := target.Kind()
	if kind == table.Invalid {
		return nil, fmt.Errorf("%w %q: unknown target type %q",
			ErrCast, col.Name, target)
	}
	if col.Array != target.IsArray() {
		return nil, fmt.Errorf("%w %q: %s to %s",
			ErrCast, col.Name, describe(col), target)
	}
	if col.Kind == kind {
		return col, nil
	}

	var res *table.Column
	var err error
	switch {
	case target.IsArray():
		res, err = coerceArray(col, target)
	case target.IsInteger():
		res, err = toInts(col, kind)
	case target.IsFloat():
		res, err = toFloats(col, kind)
	case target == Bool:
		res, err = toBools(col)
	default:
		res, err = toTexts(col)
	}
	if err != nil {
		return nil, fmt.Errorf("%w %q to %s: %w", ErrCast, col.Name, target, err)
	}
	return res, nil
}

// CoerceTable casts every column found in tm. A column that cannot be
// cast is logged and left as it was. Names of such columns are returned.
func CoerceTable(tbl *table.Table, tm TypeMap) []string {
	var failed []string
	for _, col := range tbl.Columns() {
		target, ok := tm[strings.ToLower(col.Name)]
		if !ok || target == "" {
			continue
		}
		res, err := CoerceColumn(col, target)
		if err != nil {
			slog.Error("Cannot cast column",
				"severity", "critical",
				"column", col.Name,
				"from", describe(col),
				"to", string(target),
				"error", err,
			)
			failed = append(failed, col.Name)
			continue
		}
		if res != col && !replaceColumn(tbl, res) {
			failed = append(failed, col.Name)
		}
	}
	return failed
}

// replaceColumn swaps res into tbl and logs the error if the table
// rejects it.
func replaceColumn(tbl *table.Table, res *table.Column) bool {
	if err := tbl.Replace(res); err != nil {
		slog.Error("Cannot replace cast column",
			"severity", "critical",
			"column", res.Name,
			"error", err,
		)
		return false
	}
	return true
}

func describe(col *table.Column) string {
	if col.Array {
		return col.Kind.String() + "[]"
	}
	return col.Kind.String()
}

func intRange(k table.Kind) (int64, int64) {
	switch k {
	case table.Int16:
		return math.MinInt16, math.MaxInt16
	case table.Int32:
		return math.MinInt32, math.MaxInt32
	}
	return math.MinInt64, math.MaxInt64
}

func setMask(mask []bool, n, i int) []bool {
	if mask == nil {
		mask = make([]bool, n)
	}
	mask[i] = true
	return mask
}

func floatToInt(v float64, lo, hi int64) (int64, error) {
	t := math.Trunc(v)
	if t < float64(lo) || t >= float64(hi)+1 {
		return 0, fmt.Errorf("value %g out of range", v)
	}
	return int64(t), nil
}

func checkRange(v, lo, hi int64) error {
	if v < lo || v > hi {
		return fmt.Errorf("value %d out of range", v)
	}
	return nil
}

func toInts(col *table.Column, kind table.Kind) (*table.Column, error) {
	n := col.Len()
	lo, hi := intRange(kind)
	mask := slices.Clone(col.Mask())
	data := make([]int64, n)

	for i := range n {
		if !col.IsValid(i) {
			continue
		}
		switch {
		case col.Kind.IsInteger():
			v := col.Ints()[i]
			if err := checkRange(v, lo, hi); err != nil {
				return nil, err
			}
			data[i] = v
		case col.Kind.IsFloat():
			v := col.Floats()[i]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				mask = setMask(mask, n, i)
				continue
			}
			iv, err := floatToInt(v, lo, hi)
			if err != nil {
				return nil, err
			}
			data[i] = iv
		case col.Kind == table.Bool:
			if col.Bools()[i] {
				data[i] = 1
			}
		default:
			s := strings.TrimSpace(col.Texts()[i])
			if s == "" {
				mask = setMask(mask, n, i)
				continue
			}
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, err
			}
			if err = checkRange(v, lo, hi); err != nil {
				return nil, err
			}
			data[i] = v
		}
	}
	return table.NewInts(col.Name, kind, data, mask), nil
}

func round(v float64, kind table.Kind) float64 {
	if kind == table.Float32 {
		return float64(float32(v))
	}
	return v
}

func toFloats(col *table.Column, kind table.Kind) (*table.Column, error) {
	n := col.Len()
	mask := slices.Clone(col.Mask())
	data := make([]float64, n)

	for i := range n {
		if !col.IsValid(i) {
			continue
		}
		switch {
		case col.Kind.IsInteger():
			data[i] = round(float64(col.Ints()[i]), kind)
		case col.Kind.IsFloat():
			data[i] = round(col.Floats()[i], kind)
		case col.Kind == table.Bool:
			if col.Bools()[i] {
				data[i] = 1
			}
		default:
			s := strings.TrimSpace(col.Texts()[i])
			if s == "" {
				mask = setMask(mask, n, i)
				continue
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, err
			}
			data[i] = round(v, kind)
		}
	}
	return table.NewFloats(col.Name, kind, data, mask), nil
}

func toBools(col *table.Column) (*table.Column, error) {
	n := col.Len()
	mask := slices.Clone(col.Mask())
	data := make([]bool, n)

	for i := range n {
		if !col.IsValid(i) {
			continue
		}
		switch {
		case col.Kind.IsInteger():
			data[i] = col.Ints()[i] != 0
		case col.Kind.IsFloat():
			data[i] = col.Floats()[i] != 0
		default:
			s := strings.TrimSpace(col.Texts()[i])
			if s == "" {
				mask = setMask(mask, n, i)
				continue
			}
			v, err := strconv.ParseBool(s)
			if err != nil {
				return nil, err
			}
			data[i] = v
		}
	}
	return table.NewBools(col.Name, data, mask), nil
}

func toTexts(col *table.Column) (*table.Column, error) {
	n := col.Len()
	data := make([]string, n)
	for i := range n {
		if v := col.Value(i); v != nil {
			data[i] = formatAny(v)
		}
	}
	return table.NewTexts(col.Name, data, slices.Clone(col.Mask())), nil
}

func formatAny(v any) string {
	switch v := v.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case string:
		return v
	}
	return fmt.Sprint(v)
}

// elemMask returns a writable element mask of length n for row i.
func elemMask(col *table.Column, i, n int) []bool {
	res := make([]bool, n)
	copy(res, col.ElemMask(i))
	return res
}

func coerceArray(col *table.Column, target RelType) (*table.Column, error) {
	n := col.Len()
	kind := target.Kind()
	mask := slices.Clone(col.Mask())
	masks := make([][]bool, n)

	switch {
	case target.IsInteger():
		lo, hi := intRange(kind)
		data := make([][]int64, n)
		for i := range n {
			if !col.IsValid(i) {
				continue
			}
			switch {
			case col.Kind.IsInteger():
				row := col.IntArrays()[i]
				m := elemMask(col, i, len(row))
				out := make([]int64, len(row))
				for j, v := range row {
					if m[j] {
						continue
					}
					if err := checkRange(v, lo, hi); err != nil {
						return nil, err
					}
					out[j] = v
				}
				data[i], masks[i] = out, m
			case col.Kind.IsFloat():
				row := col.FloatArrays()[i]
				m := elemMask(col, i, len(row))
				out := make([]int64, len(row))
				for j, v := range row {
					if m[j] {
						continue
					}
					if math.IsNaN(v) || math.IsInf(v, 0) {
						m[j] = true
						continue
					}
					iv, err := floatToInt(v, lo, hi)
					if err != nil {
						return nil, err
					}
					out[j] = iv
				}
				data[i], masks[i] = out, m
			default:
				return nil, fmt.Errorf("%s array elements", col.Kind)
			}
		}
		return table.NewIntArrays(col.Name, kind, data, mask, masks), nil

	case target.IsFloat():
		data := make([][]float64, n)
		for i := range n {
			if !col.IsValid(i) {
				continue
			}
			switch {
			case col.Kind.IsInteger():
				row := col.IntArrays()[i]
				out := make([]float64, len(row))
				for j, v := range row {
					out[j] = round(float64(v), kind)
				}
				data[i], masks[i] = out, elemMask(col, i, len(row))
			case col.Kind.IsFloat():
				row := col.FloatArrays()[i]
				out := make([]float64, len(row))
				for j, v := range row {
					out[j] = round(v, kind)
				}
				data[i], masks[i] = out, elemMask(col, i, len(row))
			default:
				return nil, fmt.Errorf("%s array elements", col.Kind)
			}
		}
		return table.NewFloatArrays(col.Name, kind, data, mask, masks), nil

	case target.Elem() == Bool:
		data := make([][]bool, n)
		for i := range n {
			if !col.IsValid(i) {
				continue
			}
			if !col.Kind.IsInteger() {
				return nil, fmt.Errorf("%s array elements", col.Kind)
			}
			row := col.IntArrays()[i]
			out := make([]bool, len(row))
			for j, v := range row {
				out[j] = v != 0
			}
			data[i], masks[i] = out, elemMask(col, i, len(row))
		}
		return table.NewBoolArrays(col.Name, data, mask, masks), nil

	default:
		data := make([][]string, n)
		for i := range n {
			row, ok := col.Value(i).([]any)
			if !ok {
				continue
			}
			out := make([]string, len(row))
			m := make([]bool, len(row))
			for j, v := range row {
				if v == nil {
					m[j] = true
					continue
				}
				out[j] = formatAny(v)
			}
			data[i], masks[i] = out, m
		}
		return table.NewTextArrays(col.Name, data, mask, masks), nil
	}
}
