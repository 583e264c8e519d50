package iofs

import (
	"fmt"
	"runtime"

	"github.com/astroinject/astroinject/pkg/errcode"
	"github.com/gnames/gn"
)

// CreateDirError is returned when an application directory cannot be
// made.
func CreateDirError(dir string, err error) error {
	msg := "Cannot create directory <em>%s</em>"
	vars := []any{dir}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.CreateDirError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot create directory %s: %w", fn, dir, err),
	}
}

// WriteTemplateError is returned when the default config.yaml cannot be
// written.
func WriteTemplateError(path string, err error) error {
	msg := "Cannot write default configuration to <em>%s</em>"
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.WriteTemplateError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot write template %s: %w", fn, path, err),
	}
}

func FindFilesError(folder, pattern string, err error) error {
	msg := "Cannot search <em>%s</em> for files matching <em>%s</em>"
	vars := []any{folder, pattern}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.FindFilesError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot find files: %w", fn, err),
	}
}
