package records

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Format selects the COPY format.
type Format int

const (
	// Text is the PostgreSQL COPY text format.
	Text Format = iota
	// CSV is the PostgreSQL COPY csv format.
	CSV
)

// ParseFormat converts "text" or "csv" to a Format.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return Text, true
	case "csv":
		return CSV, true
	}
	return Text, false
}

func (f Format) String() string {
	if f == CSV {
		return "csv"
	}
	return "text"
}

// Options control serialization. Zero values are replaced by the
// defaults of the format: tab for text, comma and double quote for CSV.
type Options struct {
	Format    Format
	Delimiter rune
	Quote     rune
	Escape    rune
}

// Normalize fills unset fields with format defaults.
func (o Options) Normalize() Options {
	if o.Delimiter == 0 {
		o.Delimiter = '\t'
		if o.Format == CSV {
			o.Delimiter = ','
		}
	}
	if o.Format == CSV {
		if o.Quote == 0 {
			o.Quote = '"'
		}
		if o.Escape == 0 {
			o.Escape = o.Quote
		}
	}
	return o
}

// CopyClause renders the WITH clause of a COPY statement that reads the
// output of EncodeForBulkLoad with these options.
func (o Options) CopyClause() string {
	o = o.Normalize()
	if o.Format == CSV {
		return fmt.Sprintf(
			"(FORMAT csv, DELIMITER %s, NULL '', QUOTE %s, ESCAPE %s)",
			literal(o.Delimiter), literal(o.Quote), literal(o.Escape),
		)
	}
	return fmt.Sprintf("(FORMAT text, DELIMITER %s, NULL '')",
		literal(o.Delimiter))
}

func literal(r rune) string {
	if r == '\t' {
		return `E'\t'`
	}
	return "'" + strings.ReplaceAll(string(r), "'", "''") + "'"
}

// EncodeForBulkLoad writes rows from src to w, one line per row, and
// returns the number of rows written.
func EncodeForBulkLoad(w io.Writer, src Source, opts Options) (int64, error) {
	opts = opts.Normalize()
	bw := bufio.NewWriterSize(w, 1<<16)
	var count int64
	for src.Next() {
		for i, v := range src.Values() {
			if i > 0 {
				bw.WriteRune(opts.Delimiter)
			}
			if v == nil {
				continue
			}
			s := FormatValue(v)
			if opts.Format == CSV {
				_, isText := v.(string)
				writeCSV(bw, s, isText, opts)
			} else {
				writeText(bw, s, opts.Delimiter)
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return count, err
		}
		count++
	}
	if err := bw.Flush(); err != nil {
		return count, err
	}
	return count, nil
}

func writeText(bw *bufio.Writer, s string, delim rune) {
	for _, r := range s {
		switch r {
		case '\\':
			bw.WriteString(`\\`)
		case '\n':
			bw.WriteString(`\n`)
		case '\r':
			bw.WriteString(`\r`)
		case '\t':
			bw.WriteString(`\t`)
		default:
			if r == delim {
				bw.WriteByte('\\')
			}
			bw.WriteRune(r)
		}
	}
}

func writeCSV(bw *bufio.Writer, s string, isText bool, opts Options) {
	needQuote := (isText && s == "") || s == `\.` ||
		strings.ContainsAny(s, "\r\n") ||
		strings.ContainsRune(s, opts.Delimiter) ||
		strings.ContainsRune(s, opts.Quote) ||
		strings.ContainsRune(s, opts.Escape)
	if !needQuote {
		bw.WriteString(s)
		return
	}
	bw.WriteRune(opts.Quote)
	for _, r := range s {
		if r == opts.Quote || (r == opts.Escape && opts.Escape != opts.Quote) {
			bw.WriteRune(opts.Escape)
		}
		bw.WriteRune(r)
	}
	bw.WriteRune(opts.Quote)
}

// FormatValue renders a non-nil scalar or array value the way PostgreSQL
// reads it.
func FormatValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case float64:
		return formatFloat(v, 64)
	case float32:
		return formatFloat(float64(v), 32)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		return FormatArray(v)
	case []int64:
		return FormatArray(toAny(v))
	case []float64:
		return FormatArray(toAny(v))
	case []float32:
		return FormatArray(toAny(v))
	case []bool:
		return FormatArray(toAny(v))
	case []string:
		return FormatArray(toAny(v))
	}
	return fmt.Sprint(v)
}

func toAny[T any](vs []T) []any {
	res := make([]any, len(vs))
	for i, v := range vs {
		res[i] = v
	}
	return res
}

func formatFloat(v float64, bits int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(v, 'g', -1, bits)
}

// FormatArray renders an array literal such as {1,NULL,3}. Missing
// elements are written as NULL; strings are quoted when needed.
func FormatArray(values []any) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		if v == nil {
			b.WriteString("NULL")
			continue
		}
		s := FormatValue(v)
		if _, ok := v.(string); ok {
			writeArrayString(&b, s)
			continue
		}
		b.WriteString(s)
	}
	b.WriteByte('}')
	return b.String()
}

func writeArrayString(b *strings.Builder, s string) {
	if !needsArrayQuote(s) {
		b.WriteString(s)
		return
	}
	b.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
}

func needsArrayQuote(s string) bool {
	if s == "" || strings.EqualFold(s, "NULL") {
		return true
	}
	return strings.ContainsAny(s, "{}\",\\ \t\n\r\v\f")
}
