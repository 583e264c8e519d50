package iologger

import (
	"fmt"
	"runtime"

	"github.com/astroinject/astroinject/pkg/errcode"
	"github.com/gnames/gn"
)

// CreateLogFileError is returned when the log file cannot be opened for
// appending.
func CreateLogFileError(path string, err error) error {
	msg := `Cannot open log file <em>%s</em>

<em>How to fix:</em>
  1. Check permissions of the log directory
  2. Or set log.destination to stderr`
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.CreateLogFileError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot open log %s: %w", fn, path, err),
	}
}
