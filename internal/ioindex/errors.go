package ioindex

import (
	"fmt"
	"runtime"

	"github.com/astroinject/astroinject/pkg/errcode"
	"github.com/gnames/gn"
)

// ExtensionMissingError is returned when a spatial index needs an
// extension that is not installed.
func ExtensionMissingError(ext string) error {
	msg := `PostgreSQL extension <em>%s</em> is not installed

<em>How to fix:</em>
  CREATE EXTENSION %s;`
	vars := []any{ext, ext}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.IndexExtensionMissingError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: extension %s is not installed", fn, ext),
	}
}

// TableNotFoundError is returned when a single target table does not
// exist.
func TableNotFoundError(table string) error {
	msg := "Table <em>%s</em> does not exist"
	vars := []any{table}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.IndexTableNotFoundError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: table %s does not exist", fn, table),
	}
}

// DiscoverError is returned when tables or extensions cannot be listed.
func DiscoverError(target string, err error) error {
	msg := "Cannot list tables of <em>%s</em>"
	vars := []any{target}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.IndexDiscoverError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot list tables of %s: %w", fn, target, err),
	}
}

// CreateError is returned when an index cannot be created.
func CreateError(table string, err error) error {
	msg := "Cannot create indexes on <em>%s</em>"
	vars := []any{table}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.IndexCreateError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot index %s: %w", fn, table, err),
	}
}
