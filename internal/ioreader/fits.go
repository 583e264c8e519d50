package ioreader

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/astrogo/fitsio"
	"github.com/astroinject/astroinject/pkg/table"
)

// readFITS reads the first table HDU of a FITS file. Integer cells equal
// to the TNULL value of their column are masked.
func readFITS(path string) (*table.Table, error) {
	r, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	f, err := fitsio.Open(r)
	if err != nil {
		return nil, ParseError(path, 0, err)
	}
	defer f.Close()

	var ft *fitsio.Table
	for _, hdu := range f.HDUs() {
		if t, ok := hdu.(*fitsio.Table); ok {
			ft = t
			break
		}
	}
	if ft == nil {
		return nil, ParseError(path, 0, errors.New("no table HDU"))
	}

	tbl, err := fromFITS(ft)
	if err != nil {
		return nil, ParseError(path, 0, err)
	}
	return tbl, nil
}

func fromFITS(ft *fitsio.Table) (*table.Table, error) {
	n := ft.NumRows()
	cols := ft.Cols()
	builders := make([]*colBuilder, len(cols))
	nulls := make([]*int64, len(cols))
	ptrs := make([]reflect.Value, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		typ := c.Type()
		kind, isArray := fitsKind(typ)
		builders[i] = newBuilder(c.Name, kind, isArray, int(n))
		if c.Null != "" && kind.IsInteger() && !isArray {
			if v, err := strconv.ParseInt(strings.TrimSpace(c.Null), 10, 64); err == nil {
				nulls[i] = &v
			}
		}
		ptrs[i] = reflect.New(typ)
		args[i] = ptrs[i].Interface()
	}

	rows, err := ft.Read(0, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		if err = rows.Scan(args...); err != nil {
			return nil, err
		}
		for i, p := range ptrs {
			appendFITS(builders[i], p.Elem(), nulls[i])
		}
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return build(builders)
}

// fitsKind maps the Go type of a FITS column to a kind. Fixed and
// variable length vectors become array columns.
func fitsKind(t reflect.Type) (table.Kind, bool) {
	switch t.Kind() {
	case reflect.Array, reflect.Slice:
		elem, nested := fitsKind(t.Elem())
		if nested {
			return table.Text, false
		}
		return elem, true
	case reflect.Int8, reflect.Uint8, reflect.Int16:
		return table.Int16, false
	case reflect.Uint16, reflect.Int32:
		return table.Int32, false
	case reflect.Int, reflect.Int64, reflect.Uint32, reflect.Uint64, reflect.Uint:
		return table.Int64, false
	case reflect.Float32:
		return table.Float32, false
	case reflect.Float64:
		return table.Float64, false
	case reflect.Bool:
		return table.Bool, false
	}
	return table.Text, false
}

func appendFITS(b *colBuilder, v reflect.Value, null *int64) {
	if b.array {
		appendFITSArray(b, v)
		return
	}
	switch {
	case b.kind.IsInteger():
		x := fitsInt(v)
		if null != nil && x == *null {
			b.appendNull()
			return
		}
		b.appendInt(x)
	case b.kind.IsFloat():
		b.appendFloat(v.Float())
	case b.kind == table.Bool:
		b.appendBool(v.Bool())
	default:
		b.appendText(fitsText(v))
	}
}

func appendFITSArray(b *colBuilder, v reflect.Value) {
	n := v.Len()
	em := make([]bool, n)
	switch {
	case b.kind.IsInteger():
		res := make([]int64, n)
		for j := range n {
			res[j] = fitsInt(v.Index(j))
		}
		b.appendIntArray(res, em)
	case b.kind.IsFloat():
		res := make([]float64, n)
		for j := range n {
			res[j] = v.Index(j).Float()
		}
		b.appendFloatArray(res, em)
	case b.kind == table.Bool:
		res := make([]bool, n)
		for j := range n {
			res[j] = v.Index(j).Bool()
		}
		b.appendBoolArray(res, em)
	default:
		res := make([]string, n)
		for j := range n {
			res[j] = fitsText(v.Index(j))
		}
		b.appendTextArray(res, em)
	}
}

func fitsInt(v reflect.Value) int64 {
	if v.CanInt() {
		return v.Int()
	}
	if v.CanUint() {
		return int64(v.Uint())
	}
	return 0
}

// fitsText trims the padding of fixed width FITS strings.
func fitsText(v reflect.Value) string {
	if v.Kind() == reflect.String {
		return strings.TrimRight(v.String(), " \x00")
	}
	return fmt.Sprint(v.Interface())
}
