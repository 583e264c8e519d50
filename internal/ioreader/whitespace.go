package ioreader

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/astroinject/astroinject/pkg/table"
)

// readWhitespace reads a table whose fields are separated by runs of
// spaces or tabs. The first non-comment line is the header.
func readWhitespace(path string) (*table.Table, error) {
	r, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var header []string
	var cells [][]string
	var line int
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line++
		txt := strings.TrimSpace(sc.Text())
		if txt == "" || strings.HasPrefix(txt, "#") {
			continue
		}
		fields := strings.Fields(txt)
		if header == nil {
			header = fields
			cells = make([][]string, len(header))
			continue
		}
		if len(fields) != len(header) {
			err = fmt.Errorf("expected %d fields, got %d", len(header), len(fields))
			return nil, ParseError(path, line, err)
		}
		for i, v := range fields {
			cells[i] = append(cells[i], v)
		}
	}
	if err = sc.Err(); err != nil {
		return nil, ParseError(path, line, err)
	}
	if header == nil {
		return nil, ParseError(path, line, fmt.Errorf("missing header row"))
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
