package ioreader

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/astroinject/astroinject/pkg/table"
	"gopkg.in/yaml.v3"
)

// ecsvHeader is the part of the ECSV YAML header that describes columns.
type ecsvHeader struct {
	Delimiter string       `yaml:"delimiter"`
	Datatype  []ecsvColumn `yaml:"datatype"`
}

type ecsvColumn struct {
	Name     string `yaml:"name"`
	Datatype string `yaml:"datatype"`
	Subtype  string `yaml:"subtype"`
}

// kind returns the element kind of the column and whether its cells hold
// arrays. Array columns have a string datatype and a subtype such as
// float32[55] or int16[null].
func (c ecsvColumn) kind() (table.Kind, bool) {
	if c.Subtype != "" {
		if i := strings.IndexByte(c.Subtype, '['); i > 0 {
			return table.ParseKind(c.Subtype[:i]), true
		}
		if c.Subtype == "json" {
			return table.Text, false
		}
		return table.ParseKind(c.Subtype), false
	}
	return table.ParseKind(c.Datatype), false
}

// readECSV reads an ECSV file such as the gzipped CSV files of the Gaia
// archive. Column types come from the YAML header. Cells equal to "null"
// and empty cells are masked.
func readECSV(path string) (*table.Table, error) {
	r, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	br := bufio.NewReaderSize(r, 1<<20)
	hdr, lines, err := readECSVHeader(br)
	if err != nil {
		return nil, ParseError(path, lines, err)
	}

	cr := csv.NewReader(br)
	if hdr.Delimiter != "" {
		cr.Comma = []rune(hdr.Delimiter)[0]
	}
	cr.ReuseRecord = true

	names, err := cr.Read()
	if err != nil {
		return nil, ParseError(path, lines+1, fmt.Errorf("missing header row: %w", err))
	}
	names = slices.Clone(names)
	if len(names) != len(hdr.Datatype) {
		err = fmt.Errorf("header has %d columns, datatype lists %d",
			len(names), len(hdr.Datatype))
		return nil, ParseError(path, lines+1, err)
	}

	builders := make([]*colBuilder, len(names))
	kinds := make([]table.Kind, len(names))
	for i, c := range hdr.Datatype {
		if c.Name != names[i] {
			err = fmt.Errorf("column %d is %q, datatype lists %q", i, names[i], c.Name)
			return nil, ParseError(path, lines+1, err)
		}
		kind, array := c.kind()
		if kind == table.Invalid {
			err = fmt.Errorf("column %q has unknown datatype %q", c.Name, c.Datatype)
			return nil, ParseError(path, lines, err)
		}
		kinds[i] = kind
		builders[i] = newBuilder(c.Name, kind, array, 0)
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, ParseError(path, lines+perr.Line, perr.Err)
			}
			return nil, ParseError(path, 0, err)
		}
		line, _ := cr.FieldPos(0)
		for i, cell := range rec {
			if err = appendCell(builders[i], kinds[i], cell); err != nil {
				err = fmt.Errorf("column %q: %w", names[i], err)
				return nil, ParseError(path, lines+line, err)
			}
		}
	}

	tbl, err := build(builders)
	if err != nil {
		return nil, ParseError(path, 0, err)
	}
	return tbl, nil
}

// readECSVHeader consumes the commented YAML header and returns it with
// the number of lines read.
func readECSVHeader(br *bufio.Reader) (ecsvHeader, int, error) {
	var res ecsvHeader
	var sb strings.Builder
	var lines int
	for {
		peek, err := br.Peek(1)
		if err != nil || peek[0] != '#' {
			break
		}
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return res, lines, err
		}
		lines++
		line = strings.TrimPrefix(strings.TrimRight(line, "\r\n"), "#")
		line = strings.TrimPrefix(line, " ")
		if strings.HasPrefix(line, "%ECSV") {
			continue
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	if lines == 0 {
		return res, 0, errors.New("missing ECSV header")
	}
	if err := yaml.Unmarshal([]byte(sb.String()), &res); err != nil {
		return res, lines, err
	}
	if len(res.Datatype) == 0 {
		return res, lines, errors.New("ECSV header has no datatype section")
	}
	return res, lines, nil
}

func isNullCell(s string) bool {
	return s == "" || s == "null"
}

func appendCell(b *colBuilder, kind table.Kind, cell string) error {
	cell = strings.TrimSpace(cell)
	if isNullCell(cell) {
		b.appendNull()
		return nil
	}
	if b.array {
		return appendArrayCell(b, kind, cell)
	}
	switch {
	case kind.IsInteger():
		v, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			return err
		}
		b.appendInt(v)
	case kind.IsFloat():
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return err
		}
		b.appendFloat(v)
	case kind == table.Bool:
		v, err := ecsvBool(cell)
		if err != nil {
			return err
		}
		b.appendBool(v)
	default:
		b.appendText(cell)
	}
	return nil
}

func ecsvBool(s string) (bool, error) {
	if v, ok := parseBool(s); ok {
		return v, nil
	}
	return strconv.ParseBool(s)
}

// appendArrayCell parses a bracketed list such as [1.5, null, 2].
func appendArrayCell(b *colBuilder, kind table.Kind, cell string) error {
	if !strings.HasPrefix(cell, "[") || !strings.HasSuffix(cell, "]") {
		return fmt.Errorf("array value %q is not bracketed", cell)
	}
	body := strings.TrimSpace(cell[1 : len(cell)-1])
	var parts []string
	if body != "" {
		parts = strings.Split(body, ",")
	}
	em := make([]bool, len(parts))
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		em[i] = parts[i] == "null"
	}

	switch {
	case kind.IsInteger():
		vals := make([]int64, len(parts))
		for i, p := range parts {
			if em[i] {
				continue
			}
			v, err := strconv.ParseInt(p, 10, 64)
			if err != nil {
				return err
			}
			vals[i] = v
		}
		b.appendIntArray(vals, em)
	case kind.IsFloat():
		vals := make([]float64, len(parts))
		for i, p := range parts {
			if em[i] {
				continue
			}
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return err
			}
			vals[i] = v
		}
		b.appendFloatArray(vals, em)
	case kind == table.Bool:
		vals := make([]bool, len(parts))
		for i, p := range parts {
			if em[i] {
				continue
			}
			v, err := ecsvBool(p)
			if err != nil {
				return err
			}
			vals[i] = v
		}
		b.appendBoolArray(vals, em)
	default:
		vals := make([]string, len(parts))
		for i, p := range parts {
			if em[i] {
				continue
			}
			if s, err := strconv.Unquote(p); err == nil {
				p = s
			}
			vals[i] = p
		}
		b.appendTextArray(vals, em)
	}
	return nil
}
