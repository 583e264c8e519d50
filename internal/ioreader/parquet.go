package ioreader

import (
	"context"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/astroinject/astroinject/pkg/table"
)

func readParquet(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, OpenError(path, err)
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f)
	if err != nil {
		return nil, ParseError(path, 0, err)
	}
	defer pf.Close()

	mem := memory.NewGoAllocator()
	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: 64 * 1024}, mem)
	if err != nil {
		return nil, ParseError(path, 0, err)
	}

	at, err := fr.ReadTable(context.Background())
	if err != nil {
		return nil, ParseError(path, 0, err)
	}
	defer at.Release()

	tbl, err := fromArrow(at)
	if err != nil {
		return nil, ParseError(path, 0, err)
	}
	return tbl, nil
}

// fromArrow copies an arrow table into a table. Types without a direct
// counterpart, such as timestamps or decimals, become text.
func fromArrow(at arrow.Table) (*table.Table, error) {
	n := int(at.NumRows())
	builders := make([]*colBuilder, at.NumCols())
	for i := range builders {
		col := at.Column(i)
		kind, isArray := arrowKind(col.DataType())
		b := newBuilder(col.Name(), kind, isArray, n)
		for _, chunk := range col.Data().Chunks() {
			appendArrow(b, chunk)
		}
		builders[i] = b
	}
	return build(builders)
}

func arrowKind(dt arrow.DataType) (table.Kind, bool) {
	switch dt.ID() {
	case arrow.INT8, arrow.UINT8, arrow.INT16:
		return table.Int16, false
	case arrow.UINT16, arrow.INT32:
		return table.Int32, false
	case arrow.UINT32, arrow.INT64, arrow.UINT64:
		return table.Int64, false
	case arrow.FLOAT32:
		return table.Float32, false
	case arrow.FLOAT64:
		return table.Float64, false
	case arrow.BOOL:
		return table.Bool, false
	case arrow.LIST, arrow.LARGE_LIST, arrow.FIXED_SIZE_LIST:
		if lt, ok := dt.(arrow.ListLikeType); ok {
			elem, nested := arrowKind(lt.Elem())
			if !nested {
				return elem, true
			}
		}
	}
	return table.Text, false
}

func appendArrow(b *colBuilder, arr arrow.Array) {
	list, isList := arr.(array.ListLike)
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			b.appendNull()
			continue
		}
		if b.array && isList {
			appendArrowList(b, list, i)
			continue
		}
		switch {
		case b.kind.IsInteger():
			b.appendInt(arrowInt(arr, i))
		case b.kind.IsFloat():
			b.appendFloat(arrowFloat(arr, i))
		case b.kind == table.Bool:
			b.appendBool(arr.(*array.Boolean).Value(i))
		default:
			b.appendText(arrowText(arr, i))
		}
	}
}

func appendArrowList(b *colBuilder, list array.ListLike, i int) {
	start, end := list.ValueOffsets(i)
	vals := list.ListValues()
	n := int(end - start)
	em := make([]bool, n)
	for j := range n {
		em[j] = vals.IsNull(int(start) + j)
	}

	switch {
	case b.kind.IsInteger():
		res := make([]int64, n)
		for j := range n {
			if !em[j] {
				res[j] = arrowInt(vals, int(start)+j)
			}
		}
		b.appendIntArray(res, em)
	case b.kind.IsFloat():
		res := make([]float64, n)
		for j := range n {
			if !em[j] {
				res[j] = arrowFloat(vals, int(start)+j)
			}
		}
		b.appendFloatArray(res, em)
	case b.kind == table.Bool:
		res := make([]bool, n)
		bools := vals.(*array.Boolean)
		for j := range n {
			if !em[j] {
				res[j] = bools.Value(int(start) + j)
			}
		}
		b.appendBoolArray(res, em)
	default:
		res := make([]string, n)
		for j := range n {
			if !em[j] {
				res[j] = arrowText(vals, int(start)+j)
			}
		}
		b.appendTextArray(res, em)
	}
}

func arrowInt(arr arrow.Array, i int) int64 {
	switch a := arr.(type) {
	case *array.Int8:
		return int64(a.Value(i))
	case *array.Int16:
		return int64(a.Value(i))
	case *array.Int32:
		return int64(a.Value(i))
	case *array.Int64:
		return a.Value(i)
	case *array.Uint8:
		return int64(a.Value(i))
	case *array.Uint16:
		return int64(a.Value(i))
	case *array.Uint32:
		return int64(a.Value(i))
	case *array.Uint64:
		return int64(a.Value(i))
	}
	return 0
}

func arrowFloat(arr arrow.Array, i int) float64 {
	switch a := arr.(type) {
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Float64:
		return a.Value(i)
	}
	return 0
}

func arrowText(arr arrow.Array, i int) string {
	switch a := arr.(type) {
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	}
	return arr.ValueStr(i)
}
