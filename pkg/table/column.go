package table

import (
	"math"
	"slices"
)

// Column is a named, typed vector with an optional mask of missing
// elements. Integers live in an int64 buffer and floats in a float64
// buffer; Kind keeps the width the data was read with.
//
// Array columns keep one slice per row plus a per-row element mask.
// A masked row of an array column is a missing array, which is different
// from an empty one.
type Column struct {
	Name  string
	Kind  Kind
	Array bool

	n int

	ints   []int64
	floats []float64
	bools  []bool
	texts  []string

	intArr   [][]int64
	floatArr [][]float64
	boolArr  [][]bool
	textArr  [][]string
	elemMask [][]bool

	// mask[i] is true when row i is missing. nil means all rows are valid.
	mask []bool
}

// NewInts creates an integer column. Kind must be Int16, Int32 or Int64.
func NewInts(name string, kind Kind, data []int64, mask []bool) *Column {
	if !kind.IsInteger() {
		kind = Int64
	}
	return &Column{
		Name: name, Kind: kind, n: len(data),
		ints: data, mask: normMask(mask, len(data)),
	}
}

// NewFloats creates a floating column. Kind must be Float32 or Float64.
func NewFloats(name string, kind Kind, data []float64, mask []bool) *Column {
	if !kind.IsFloat() {
		kind = Float64
	}
	return &Column{
		Name: name, Kind: kind, n: len(data),
		floats: data, mask: normMask(mask, len(data)),
	}
}

// NewBools creates a boolean column.
func NewBools(name string, data []bool, mask []bool) *Column {
	return &Column{
		Name: name, Kind: Bool, n: len(data),
		bools: data, mask: normMask(mask, len(data)),
	}
}

// NewTexts creates a text column.
func NewTexts(name string, data []string, mask []bool) *Column {
	return &Column{
		Name: name, Kind: Text, n: len(data),
		texts: data, mask: normMask(mask, len(data)),
	}
}

// NewIntArrays creates a column of integer arrays.
func NewIntArrays(
	name string,
	kind Kind,
	data [][]int64,
	mask []bool,
	elemMask [][]bool,
) *Column {
	if !kind.IsInteger() {
		kind = Int64
	}
	return &Column{
		Name: name, Kind: kind, Array: true, n: len(data),
		intArr: data, mask: normMask(mask, len(data)),
		elemMask: normElemMask(elemMask, len(data)),
	}
}

// NewFloatArrays creates a column of float arrays.
func NewFloatArrays(
	name string,
	kind Kind,
	data [][]float64,
	mask []bool,
	elemMask [][]bool,
) *Column {
	if !kind.IsFloat() {
		kind = Float64
	}
	return &Column{
		Name: name, Kind: kind, Array: true, n: len(data),
		floatArr: data, mask: normMask(mask, len(data)),
		elemMask: normElemMask(elemMask, len(data)),
	}
}

// NewBoolArrays creates a column of boolean arrays.
func NewBoolArrays(
	name string,
	data [][]bool,
	mask []bool,
	elemMask [][]bool,
) *Column {
	return &Column{
		Name: name, Kind: Bool, Array: true, n: len(data),
		boolArr: data, mask: normMask(mask, len(data)),
		elemMask: normElemMask(elemMask, len(data)),
	}
}

// NewTextArrays creates a column of text arrays.
func NewTextArrays(
	name string,
	data [][]string,
	mask []bool,
	elemMask [][]bool,
) *Column {
	return &Column{
		Name: name, Kind: Text, Array: true, n: len(data),
		textArr: data, mask: normMask(mask, len(data)),
		elemMask: normElemMask(elemMask, len(data)),
	}
}

// NewNull creates a column of n missing values of the given kind.
func NewNull(name string, kind Kind, array bool, n int) *Column {
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = true
	}
	c := &Column{Name: name, Kind: kind, Array: array, n: n, mask: mask}
	switch {
	case array && kind.IsInteger():
		c.intArr = make([][]int64, n)
	case array && kind.IsFloat():
		c.floatArr = make([][]float64, n)
	case array && kind == Bool:
		c.boolArr = make([][]bool, n)
	case array:
		c.Kind = Text
		c.textArr = make([][]string, n)
	case kind.IsInteger():
		c.ints = make([]int64, n)
	case kind.IsFloat():
		c.floats = make([]float64, n)
	case kind == Bool:
		c.bools = make([]bool, n)
	default:
		c.Kind = Text
		c.texts = make([]string, n)
	}
	return c
}

func normMask(mask []bool, n int) []bool {
	if mask == nil {
		return nil
	}
	if len(mask) != n {
		res := make([]bool, n)
		copy(res, mask)
		mask = res
	}
	if !slices.Contains(mask, true) {
		return nil
	}
	return mask
}

func normElemMask(mask [][]bool, n int) [][]bool {
	if mask == nil {
		return nil
	}
	if len(mask) != n {
		res := make([][]bool, n)
		copy(res, mask)
		return res
	}
	return mask
}

// Len returns the number of rows.
func (c *Column) Len() int {
	return c.n
}

// Mask returns the row mask (true means missing). It is nil when
// every row is valid.
func (c *Column) Mask() []bool {
	return c.mask
}

// HasMissing is true if at least one row is masked.
func (c *Column) HasMissing() bool {
	return c.mask != nil
}

// IsValid reports whether row i holds a value.
func (c *Column) IsValid(i int) bool {
	return c.mask == nil || !c.mask[i]
}

// Ints exposes the integer buffer of a scalar integer column.
func (c *Column) Ints() []int64 { return c.ints }

// Floats exposes the float buffer of a scalar float column.
func (c *Column) Floats() []float64 { return c.floats }

// Bools exposes the buffer of a scalar boolean column.
func (c *Column) Bools() []bool { return c.bools }

// Texts exposes the buffer of a scalar text column.
func (c *Column) Texts() []string { return c.texts }

// IntArrays exposes the rows of an integer array column.
func (c *Column) IntArrays() [][]int64 { return c.intArr }

// FloatArrays exposes the rows of a float array column.
func (c *Column) FloatArrays() [][]float64 { return c.floatArr }

// BoolArrays exposes the rows of a boolean array column.
func (c *Column) BoolArrays() [][]bool { return c.boolArr }

// TextArrays exposes the rows of a text array column.
func (c *Column) TextArrays() [][]string { return c.textArr }

// ElemMask returns the element mask of row i of an array column, or nil
// if every element of the row is valid.
func (c *Column) ElemMask(i int) []bool {
	if c.elemMask == nil {
		return nil
	}
	return c.elemMask[i]
}

// Value returns row i as a Go value: nil when masked, int64 for integers,
// float32 or float64 by Kind, bool, string. Array rows come back as
// []any with nil for missing elements.
func (c *Column) Value(i int) any {
	if !c.IsValid(i) {
		return nil
	}
	if c.Array {
		return c.arrayValue(i)
	}
	switch {
	case c.Kind.IsInteger():
		return c.ints[i]
	case c.Kind == Float32:
		return float32(c.floats[i])
	case c.Kind == Float64:
		return c.floats[i]
	case c.Kind == Bool:
		return c.bools[i]
	default:
		return c.texts[i]
	}
}

func (c *Column) arrayValue(i int) []any {
	em := c.ElemMask(i)
	missing := func(j int) bool {
		return j < len(em) && em[j]
	}

	var res []any
	switch {
	case c.Kind.IsInteger():
		row := c.intArr[i]
		res = make([]any, len(row))
		for j, v := range row {
			if !missing(j) {
				res[j] = v
			}
		}
	case c.Kind.IsFloat():
		row := c.floatArr[i]
		res = make([]any, len(row))
		for j, v := range row {
			if missing(j) {
				continue
			}
			if c.Kind == Float32 {
				res[j] = float32(v)
			} else {
				res[j] = v
			}
		}
	case c.Kind == Bool:
		row := c.boolArr[i]
		res = make([]any, len(row))
		for j, v := range row {
			if !missing(j) {
				res[j] = v
			}
		}
	default:
		row := c.textArr[i]
		res = make([]any, len(row))
		for j, v := range row {
			if !missing(j) {
				res[j] = v
			}
		}
	}
	return res
}

// FirstValid returns the index of the first row that is neither masked
// nor NaN, and false if there is none.
func (c *Column) FirstValid() (int, bool) {
	for i := 0; i < c.n; i++ {
		if !c.IsValid(i) {
			continue
		}
		if !c.Array && c.Kind.IsFloat() && math.IsNaN(c.floats[i]) {
			continue
		}
		return i, true
	}
	return 0, false
}

// Fill returns a copy of a numeric scalar column where masked rows carry
// v and the mask is cleared. Other columns are returned unchanged.
func (c *Column) Fill(v float64) *Column {
	if c.Array || !c.Kind.IsNumeric() || c.mask == nil {
		return c
	}
	if c.Kind.IsInteger() {
		data := slices.Clone(c.ints)
		for i, m := range c.mask {
			if m {
				data[i] = int64(v)
			}
		}
		return NewInts(c.Name, c.Kind, data, nil)
	}
	data := slices.Clone(c.floats)
	for i, m := range c.mask {
		if m {
			data[i] = v
		}
	}
	return NewFloats(c.Name, c.Kind, data, nil)
}

// Release drops references to the column buffers.
func (c *Column) Release() {
	c.ints, c.floats, c.bools, c.texts = nil, nil, nil, nil
	c.intArr, c.floatArr, c.boolArr, c.textArr = nil, nil, nil, nil
	c.elemMask, c.mask = nil, nil
	c.n = 0
}
