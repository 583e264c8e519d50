package ioingest

import (
	"fmt"
	"runtime"

	"github.com/astroinject/astroinject/pkg/errcode"
	"github.com/gnames/gn"
)

// NoFilesError is returned when the input folder has no matching files.
func NoFilesError(folder, pattern string) error {
	msg := `No files match <em>%s</em> in <em>%s</em>

<em>How to fix:</em>
  1. Check ingest.folder and ingest.pattern in the table config file
  2. Patterns match file names, not paths, e.g. "*.fits"`
	vars := []any{pattern, folder}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.IngestNoFilesError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: no files match %q in %s",
			fn, pattern, folder),
	}
}

// SchemaError is returned when the destination table cannot be prepared
// from the first file.
func SchemaError(table, file string, err error) error {
	msg := "Cannot prepare table <em>%s</em> from <em>%s</em>"
	vars := []any{table, file}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.IngestSchemaError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: cannot prepare %s from %s: %w",
			fn, table, file, err),
	}
}

// AllFilesFailedError is returned when no file could be loaded.
func AllFilesFailedError(failed int) error {
	msg := `All %d files failed to load

Check the log for the errors of individual files.`
	vars := []any{failed}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.IngestAllFilesFailedError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: all %d files failed", fn, failed),
	}
}
