// Package reltype maps columnar data to PostgreSQL column types.
//
// It infers a canonical relational type from a sample value, classifies
// type names reported by the database catalog with an ordered decision
// table, and casts columns to the type recorded for them in a TypeMap.
// The package does no I/O; catalog rows are fetched by the caller.
package reltype

import (
	"errors"
	"maps"
	"strings"

	"github.com/astroinject/astroinject/pkg/table"
)

// RelType is a canonical relational column type.
type RelType string

const (
	SmallInt RelType = "SMALLINT"
	Integer  RelType = "INTEGER"
	BigInt   RelType = "BIGINT"
	Real     RelType = "REAL"
	Double   RelType = "DOUBLE"
	Bool     RelType = "BOOL"
	Varchar  RelType = "VARCHAR"

	SmallIntArray RelType = "SMALLINT[]"
	IntegerArray  RelType = "INTEGER[]"
	BigIntArray   RelType = "BIGINT[]"
	RealArray     RelType = "REAL[]"
	DoubleArray   RelType = "DOUBLE[]"
	BoolArray     RelType = "BOOLEAN[]"
	TextArray     RelType = "TEXT[]"
)

var (
	// ErrUnsupportedType is returned for values that have no relational
	// counterpart.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrCast is returned when a column cannot be converted to a target
	// type.
	ErrCast = errors.New("cannot cast column")
)

var arrayOf = map[RelType]RelType{
	SmallInt: SmallIntArray,
	Integer:  IntegerArray,
	BigInt:   BigIntArray,
	Real:     RealArray,
	Double:   DoubleArray,
	Bool:     BoolArray,
	Varchar:  TextArray,
}

var elemOf = map[RelType]RelType{
	SmallIntArray: SmallInt,
	IntegerArray:  Integer,
	BigIntArray:   BigInt,
	RealArray:     Real,
	DoubleArray:   Double,
	BoolArray:     Bool,
	TextArray:     Varchar,
}

var ddl = map[RelType]string{
	SmallInt: "SMALLINT",
	Integer:  "INTEGER",
	BigInt:   "BIGINT",
	Real:     "REAL",
	Double:   "DOUBLE PRECISION",
	Bool:     "BOOLEAN",
	Varchar:  "TEXT",
}

// IsArray is true for array variants.
func (r RelType) IsArray() bool {
	_, ok := elemOf[r]
	return ok
}

// Elem returns the element type of an array variant, or r itself.
func (r RelType) Elem() RelType {
	if e, ok := elemOf[r]; ok {
		return e
	}
	return r
}

// ArrayOf returns the array variant of a scalar type.
func (r RelType) ArrayOf() RelType {
	if a, ok := arrayOf[r]; ok {
		return a
	}
	return r
}

// IsInteger is true when the element type is an integer.
func (r RelType) IsInteger() bool {
	e := r.Elem()
	return e == SmallInt || e == Integer || e == BigInt
}

// IsFloat is true when the element type is REAL or DOUBLE.
func (r RelType) IsFloat() bool {
	e := r.Elem()
	return e == Real || e == Double
}

// DDL returns the PostgreSQL spelling of the type for CREATE TABLE.
func (r RelType) DDL() string {
	if r.IsArray() {
		return ddl[r.Elem()] + "[]"
	}
	if s, ok := ddl[r]; ok {
		return s
	}
	return string(r)
}

// Kind returns the columnar kind that holds values of this type.
func (r RelType) Kind() table.Kind {
	switch r.Elem() {
	case SmallInt:
		return table.Int16
	case Integer:
		return table.Int32
	case BigInt:
		return table.Int64
	case Real:
		return table.Float32
	case Double:
		return table.Float64
	case Bool:
		return table.Bool
	case Varchar:
		return table.Text
	}
	return table.Invalid
}

// Parse converts a user supplied type name ("double", "bigint[]",
// "float4") to a RelType.
func Parse(s string) (RelType, bool) {
	s = strings.TrimSpace(s)
	if base, ok := strings.CutSuffix(s, "[]"); ok {
		r, ok := ClassifyCatalogType(base, "")
		if !ok {
			return "", false
		}
		return r.ArrayOf(), true
	}
	return ClassifyCatalogType(s, "")
}

// Field is a column name with its relational type.
type Field struct {
	Name string
	Type RelType
}

// TypeMap maps lower-cased column names to relational types. A TypeMap is
// built once and only read afterwards; workers get their own Clone.
type TypeMap map[string]RelType

// NewTypeMap creates a TypeMap from fields.
func NewTypeMap(fields []Field) TypeMap {
	res := make(TypeMap, len(fields))
	for _, f := range fields {
		res[strings.ToLower(f.Name)] = f.Type
	}
	return res
}

// Clone returns an independent copy of the map.
func (tm TypeMap) Clone() TypeMap {
	if tm == nil {
		return nil
	}
	return maps.Clone(tm)
}
