package ioreader

import (
	"reflect"
	"testing"

	"github.com/astroinject/astroinject/pkg/table"
	"github.com/stretchr/testify/assert"
)

func TestFitsKind(t *testing.T) {
	tests := []struct {
		msg   string
		val   any
		kind  table.Kind
		array bool
	}{
		{"byte", uint8(1), table.Int16, false},
		{"short", int16(1), table.Int16, false},
		{"int", int32(1), table.Int32, false},
		{"long", int64(1), table.Int64, false},
		{"float", float32(1), table.Float32, false},
		{"double", float64(1), table.Float64, false},
		{"logical", true, table.Bool, false},
		{"string", "abc", table.Text, false},
		{"vector", [3]float64{}, table.Float64, true},
		{"varlen", []int32{}, table.Int32, true},
		{"complex", complex64(1), table.Text, false},
	}

	for _, v := range tests {
		kind, isArray := fitsKind(reflect.TypeOf(v.val))
		assert.Equal(t, v.kind, kind, v.msg)
		assert.Equal(t, v.array, isArray, v.msg)
	}
}

func TestAppendFITS(t *testing.T) {
	assert := assert.New(t)

	null := int64(-99)
	ib := newBuilder("flag", table.Int32, false, 2)
	appendFITS(ib, reflect.ValueOf(int32(7)), &null)
	appendFITS(ib, reflect.ValueOf(int32(-99)), &null)
	col := ib.column()
	assert.Equal(int64(7), col.Value(0))
	assert.Nil(col.Value(1))

	sb := newBuilder("name", table.Text, false, 1)
	appendFITS(sb, reflect.ValueOf("NGC 1275  "), nil)
	assert.Equal("NGC 1275", sb.column().Value(0))

	fb := newBuilder("flux", table.Float32, true, 1)
	appendFITS(fb, reflect.ValueOf([3]float32{1, 2.5, 3}), nil)
	assert.Equal([]any{float32(1), float32(2.5), float32(3)}, fb.column().Value(0))
}
