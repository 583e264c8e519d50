package iocatalog

import (
	"fmt"
	"runtime"

	"github.com/astroinject/astroinject/pkg/errcode"
	"github.com/gnames/gn"
)

// CatalogQueryError is returned when column types cannot be read.
func CatalogQueryError(table string, err error) error {
	msg := "Cannot read column types of <em>%s</em>"
	vars := []any{table}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.CatalogQueryError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: catalog query for %s failed: %w", fn, table, err),
	}
}
