// Package records turns columnar tables into rows and serializes rows in
// the PostgreSQL COPY text and CSV formats.
//
// Missing scalars become an empty field, which the server reads as NULL
// because the COPY statement declares an empty NULL string. Missing elements inside an
// array become the NULL token of the array literal. A missing array is a
// missing scalar and becomes an empty field, never "{}".
package records

import (
	"github.com/astroinject/astroinject/pkg/table"
)

// Source iterates over rows. Values is valid until the next call to Next.
type Source interface {
	Next() bool
	Values() []any
}

// ToRows zips the columns of a table into row tuples. Missing values are
// nil, array rows are []any.
func ToRows(tbl *table.Table) [][]any {
	res := make([][]any, 0, tbl.Len())
	src := FromTable(tbl)
	for src.Next() {
		row := make([]any, len(src.Values()))
		copy(row, src.Values())
		res = append(res, row)
	}
	return res
}

// FromTable streams rows of a table without materializing them.
func FromTable(tbl *table.Table) Source {
	return &tableSource{
		cols: tbl.Columns(),
		rows: tbl.Len(),
		cur:  -1,
		buf:  make([]any, tbl.NumCols()),
	}
}

type tableSource struct {
	cols []*table.Column
	rows int
	cur  int
	buf  []any
}

func (s *tableSource) Next() bool {
	s.cur++
	if s.cur >= s.rows {
		return false
	}
	for i, c := range s.cols {
		s.buf[i] = c.Value(s.cur)
	}
	return true
}

func (s *tableSource) Values() []any {
	return s.buf
}

// FromRows wraps materialized rows.
func FromRows(rows [][]any) Source {
	return &sliceSource{rows: rows, cur: -1}
}

type sliceSource struct {
	rows [][]any
	cur  int
}

func (s *sliceSource) Next() bool {
	s.cur++
	return s.cur < len(s.rows)
}

func (s *sliceSource) Values() []any {
	return s.rows[s.cur]
}
