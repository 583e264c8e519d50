package ioreader

import (
	"fmt"
	"runtime"

	"github.com/astroinject/astroinject/pkg/errcode"
	"github.com/gnames/gn"
)

// UnsupportedFormatError is returned for formats without a reader, or
// when auto detection cannot guess the format from the file name.
func UnsupportedFormatError(path, format string) error {
	msg := `Unsupported format <em>%s</em> for <em>%s</em>

Supported formats: fits, csv, csv_delimwhites, parquet, gaia, auto`
	vars := []any{format, path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ReaderUnsupportedFormatError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: unsupported format %q for %s",
			fn, format, path),
	}
}

// OpenError is returned when a file cannot be opened.
func OpenError(path string, err error) error {
	msg := "Cannot open <em>%s</em>"
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ReaderOpenError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot open %s: %w", fn, path, err),
	}
}

// ParseError is returned when file content does not fit its format.
// Line is 0 when the position is unknown.
func ParseError(path string, line int, err error) error {
	msg := "Cannot parse <em>%s</em>"
	vars := []any{path}
	if line > 0 {
		msg = "Cannot parse <em>%s</em> at line %d"
		vars = append(vars, line)
	}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ReaderParseError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot parse %s (line %d): %w", fn, path, line, err),
	}
}
