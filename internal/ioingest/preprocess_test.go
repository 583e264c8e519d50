package ioingest_test

import (
	"testing"

	"github.com/astroinject/astroinject/internal/ioingest"
	"github.com/astroinject/astroinject/pkg/config"
	"github.com/astroinject/astroinject/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New(
		table.NewInts("ID", table.Int64, []int64{1, 2, 3}, nil),
		table.NewFloats("RAJ2000", table.Float64, []float64{10, 0, 12}, []bool{false, true, false}),
		table.NewFloats("DEJ2000", table.Float64, []float64{-1, -2, -3}, nil),
		table.NewInts("Flag", table.Int16, []int64{0, 0, 1}, []bool{true, false, false}),
		table.NewTexts("Comment", []string{"a", "b", "c"}, nil),
	)
	require.NoError(t, err)
	return tbl
}

func TestPreprocess(t *testing.T) {
	assert := assert.New(t)
	tbl := sampleTable(t)
	fill := -99.0
	cfg := config.IngestConfig{
		DropColumns:    []string{"COMMENT", "absent"},
		RenameColumns:  map[string]string{"RAJ2000": "RA", "dej2000": "dec", "nope": "x"},
		AddNullColumns: map[string]string{"Extra": "double precision", "tags": "text[]"},
		FillValue:      &fill,
	}

	require.NoError(t, ioingest.Preprocess(tbl, &cfg))
	assert.Equal([]string{"id", "ra", "dec", "flag", "extra", "tags"}, tbl.Names())

	ra, _ := tbl.Column("ra")
	assert.Equal(-99.0, ra.Value(1))
	assert.False(ra.HasMissing())

	flag, _ := tbl.Column("flag")
	assert.Equal(int64(-99), flag.Value(0))

	// added columns stay NULL
	extra, _ := tbl.Column("extra")
	assert.Equal(table.Float64, extra.Kind)
	assert.Nil(extra.Value(0))

	tags, _ := tbl.Column("tags")
	assert.True(tags.Array)
	assert.Equal(table.Text, tags.Kind)
	assert.Nil(tags.Value(2))
}

func TestPreprocessErrors(t *testing.T) {
	tests := []struct {
		msg string
		cfg config.IngestConfig
	}{
		{"unknown type", config.IngestConfig{
			AddNullColumns: map[string]string{"x": "jsonb"},
		}},
		{"rename collision", config.IngestConfig{
			RenameColumns: map[string]string{"raj2000": "dej2000"},
		}},
	}

	for _, v := range tests {
		err := ioingest.Preprocess(sampleTable(t), &v.cfg)
		assert.Error(t, err, v.msg)
	}
}
