package ioreader

import (
	"github.com/astroinject/astroinject/pkg/table"
	"github.com/gnames/gnlib"
)

// colBuilder accumulates the values of one column row by row.
type colBuilder struct {
	name  string
	kind  table.Kind
	array bool
	n     int

	ints   []int64
	floats []float64
	bools  []bool
	texts  []string

	intArr   [][]int64
	floatArr [][]float64
	boolArr  [][]bool
	textArr  [][]string

	mask     []bool
	elemMask [][]bool
}

func newBuilder(name string, kind table.Kind, array bool, capacity int) *colBuilder {
	b := &colBuilder{name: name, kind: kind, array: array}
	b.mask = make([]bool, 0, capacity)
	if array {
		b.elemMask = make([][]bool, 0, capacity)
	}
	return b
}

// appendNull adds a missing value of the builder's kind.
func (b *colBuilder) appendNull() {
	b.n++
	b.mask = append(b.mask, true)
	if b.array {
		b.elemMask = append(b.elemMask, nil)
		switch {
		case b.kind.IsInteger():
			b.intArr = append(b.intArr, nil)
		case b.kind.IsFloat():
			b.floatArr = append(b.floatArr, nil)
		case b.kind == table.Bool:
			b.boolArr = append(b.boolArr, nil)
		default:
			b.textArr = append(b.textArr, nil)
		}
		return
	}
	switch {
	case b.kind.IsInteger():
		b.ints = append(b.ints, 0)
	case b.kind.IsFloat():
		b.floats = append(b.floats, 0)
	case b.kind == table.Bool:
		b.bools = append(b.bools, false)
	default:
		b.texts = append(b.texts, "")
	}
}

func (b *colBuilder) valid() {
	b.n++
	b.mask = append(b.mask, false)
}

func (b *colBuilder) appendInt(v int64) {
	b.valid()
	b.ints = append(b.ints, v)
}

func (b *colBuilder) appendFloat(v float64) {
	b.valid()
	b.floats = append(b.floats, v)
}

func (b *colBuilder) appendBool(v bool) {
	b.valid()
	b.bools = append(b.bools, v)
}

// appendText stores v with invalid UTF-8 bytes repaired, so both COPY
// formats send the same valid text.
func (b *colBuilder) appendText(v string) {
	b.valid()
	b.texts = append(b.texts, gnlib.FixUtf8(v))
}

func (b *colBuilder) appendIntArray(v []int64, em []bool) {
	b.valid()
	b.intArr = append(b.intArr, v)
	b.elemMask = append(b.elemMask, em)
}

func (b *colBuilder) appendFloatArray(v []float64, em []bool) {
	b.valid()
	b.floatArr = append(b.floatArr, v)
	b.elemMask = append(b.elemMask, em)
}

func (b *colBuilder) appendBoolArray(v []bool, em []bool) {
	b.valid()
	b.boolArr = append(b.boolArr, v)
	b.elemMask = append(b.elemMask, em)
}

// appendTextArray takes ownership of v and repairs its elements in place.
func (b *colBuilder) appendTextArray(v []string, em []bool) {
	b.valid()
	for i := range v {
		v[i] = gnlib.FixUtf8(v[i])
	}
	b.textArr = append(b.textArr, v)
	b.elemMask = append(b.elemMask, em)
}

// column returns the finished column. The builder must not be used
// afterwards.
func (b *colBuilder) column() *table.Column {
	if b.array {
		switch {
		case b.kind.IsInteger():
			return table.NewIntArrays(b.name, b.kind, orEmpty(b.intArr, b.n), b.mask, b.elemMask)
		case b.kind.IsFloat():
			return table.NewFloatArrays(b.name, b.kind, orEmpty(b.floatArr, b.n), b.mask, b.elemMask)
		case b.kind == table.Bool:
			return table.NewBoolArrays(b.name, orEmpty(b.boolArr, b.n), b.mask, b.elemMask)
		default:
			return table.NewTextArrays(b.name, orEmpty(b.textArr, b.n), b.mask, b.elemMask)
		}
	}
	switch {
	case b.kind.IsInteger():
		return table.NewInts(b.name, b.kind, orEmpty(b.ints, b.n), b.mask)
	case b.kind.IsFloat():
		return table.NewFloats(b.name, b.kind, orEmpty(b.floats, b.n), b.mask)
	case b.kind == table.Bool:
		return table.NewBools(b.name, orEmpty(b.bools, b.n), b.mask)
	default:
		return table.NewTexts(b.name, orEmpty(b.texts, b.n), b.mask)
	}
}

// orEmpty keeps zero-row columns non-nil.
func orEmpty[T any](s []T, n int) []T {
	if s == nil {
		return make([]T, 0, n)
	}
	return s
}

// build assembles builders into a table.
func build(builders []*colBuilder) (*table.Table, error) {
	cols := make([]*table.Column, len(builders))
	for i, b := range builders {
		cols[i] = b.column()
	}
	return table.New(cols...)
}
