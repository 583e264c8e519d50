package ioreader

import (
	"encoding/csv"
	"errors"
	"io"

	"github.com/astroinject/astroinject/pkg/table"
)

// readCSV reads a comma separated file with a header row.
func readCSV(path string) (*table.Table, error) {
	r, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	return readDelimited(path, cr)
}

// readDelimited collects cells of a csv.Reader by column and infers
// column kinds from them.
func readDelimited(path string, cr *csv.Reader) (*table.Table, error) {
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ParseError(path, 1, errors.New("missing header row"))
	}
	if err != nil {
		return nil, parseErr(path, err)
	}
	header = append([]string(nil), header...)

	cells := make([][]string, len(header))
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, parseErr(path, err)
		}
		for i := range header {
			cells[i] = append(cells[i], rec[i])
		}
	}

	cols := make([]*table.Column, len(header))
	for i, name := range header {
		cols[i] = textColumn(name, cells[i])
	}
	tbl, err := table.New(cols...)
	if err != nil {
		return nil, ParseError(path, 1, err)
	}
	return tbl, nil
}

func parseErr(path string, err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return ParseError(path, perr.Line, perr.Err)
	}
	return ParseError(path, 0, err)
}
