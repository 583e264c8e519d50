package reltype

import (
	"fmt"
	"math"

	"github.com/astroinject/astroinject/pkg/table"
)

// maxInteger is the largest value of a PostgreSQL INTEGER.
const maxInteger = math.MaxInt32

// InferScalarType classifies a sample value by its Go representation.
// Integers above the INTEGER range become BIGINT, float32 becomes REAL,
// float64 becomes DOUBLE. Slices map to array variants; integer arrays
// are always BIGINT[].
func InferScalarType(value any) (RelType, error) {
	switch v := value.(type) {
	case int:
		return intType(int64(v)), nil
	case int8:
		return Integer, nil
	case int16:
		return Integer, nil
	case int32:
		return Integer, nil
	case int64:
		return intType(v), nil
	case uint:
		return uintType(uint64(v)), nil
	case uint8:
		return Integer, nil
	case uint16:
		return Integer, nil
	case uint32:
		return uintType(uint64(v)), nil
	case uint64:
		return uintType(v), nil
	case float32:
		return Real, nil
	case float64:
		return Double, nil
	case bool:
		return Bool, nil
	case string:
		return Varchar, nil
	case []int16, []int32, []int64, []int:
		return BigIntArray, nil
	case []float32:
		return RealArray, nil
	case []float64:
		return DoubleArray, nil
	case []bool:
		return BoolArray, nil
	case []string:
		return TextArray, nil
	case []any:
		return inferAnySlice(v)
	}
	return "", fmt.Errorf("%w: %T", ErrUnsupportedType, value)
}

func intType(v int64) RelType {
	if v > maxInteger || v < -maxInteger {
		return BigInt
	}
	return Integer
}

func uintType(v uint64) RelType {
	if v > maxInteger {
		return BigInt
	}
	return Integer
}

// inferAnySlice classifies an array row as returned by table.Column.Value
// using its first non-missing element.
func inferAnySlice(vs []any) (RelType, error) {
	for _, v := range vs {
		if v == nil {
			continue
		}
		elem, err := InferScalarType(v)
		if err != nil || elem.IsArray() {
			return "", fmt.Errorf("%w: array of %T", ErrUnsupportedType, v)
		}
		if elem.IsInteger() {
			return BigIntArray, nil
		}
		return elem.ArrayOf(), nil
	}
	return "", fmt.Errorf("%w: array without elements", ErrUnsupportedType)
}

// InferColumnType returns the relational type of a column. Scalar
// columns are classified by their first row that is neither masked nor
// NaN. Integer columns are widened to BIGINT when any valid value is
// outside the INTEGER range, so a small first value cannot make later
// rows overflow. Array columns and columns without a usable sample are
// classified by their declared kind.
func InferColumnType(col *table.Column) (RelType, error) {
	if col.Array {
		return kindType(col.Kind, true)
	}
	idx, ok := col.FirstValid()
	if !ok {
		return kindType(col.Kind, false)
	}
	res, err := InferScalarType(col.Value(idx))
	if err != nil {
		return "", err
	}
	if res == Integer && col.Kind == table.Int64 && exceedsInteger(col) {
		res = BigInt
	}
	return res, nil
}

func exceedsInteger(col *table.Column) bool {
	for i, v := range col.Ints() {
		if col.IsValid(i) && intType(v) == BigInt {
			return true
		}
	}
	return false
}

func kindType(k table.Kind, array bool) (RelType, error) {
	var res RelType
	switch k {
	case table.Int16, table.Int32:
		res = Integer
	case table.Int64:
		res = BigInt
	case table.Float32:
		res = Real
	case table.Float64:
		res = Double
	case table.Bool:
		res = Bool
	case table.Text:
		res = Varchar
	default:
		return "", fmt.Errorf("%w: column kind %s", ErrUnsupportedType, k)
	}
	if array {
		if res.IsInteger() {
			return BigIntArray, nil
		}
		return res.ArrayOf(), nil
	}
	return res, nil
}

// InferTable returns the fields of a table in positional order.
func InferTable(tbl *table.Table) ([]Field, error) {
	res := make([]Field, 0, tbl.NumCols())
	for _, col := range tbl.Columns() {
		typ, err := InferColumnType(col)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		res = append(res, Field{Name: col.Name, Type: typ})
	}
	return res, nil
}
