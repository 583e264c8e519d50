package ioconfig

import (
	"fmt"
	"runtime"

	"github.com/astroinject/astroinject/pkg/errcode"
	"github.com/gnames/gn"
)

// ReadError is returned when a config file cannot be read or decoded.
func ReadError(path string, err error) error {
	msg := "Cannot read config file <em>%s</em>"
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ConfigReadError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot read %s: %w", fn, path, err),
	}
}

// MissingFieldError is returned when a command needs a setting that no
// config source provided.
func MissingFieldError(field string) error {
	msg := `Setting <em>%s</em> is required

<em>How to fix:</em>
  1. Add it to the table config file given with -c
  2. Or set it with an ASTROINJECT_ environment variable`
	vars := []any{field}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ConfigMissingFieldError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: missing setting %s", fn, field),
	}
}
