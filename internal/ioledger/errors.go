package ioledger

import (
	"fmt"
	"runtime"

	"github.com/astroinject/astroinject/pkg/errcode"
	"github.com/gnames/gn"
)

// OpenError is returned when the ledger file cannot be opened or
// initialized.
func OpenError(path string, err error) error {
	msg := "Cannot open load ledger <em>%s</em>"
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.LedgerOpenError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot open ledger %s: %w", fn, path, err),
	}
}

// WriteError is returned when the ledger cannot be read or updated.
func WriteError(path string, err error) error {
	msg := "Cannot update load ledger <em>%s</em>"
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.LedgerWriteError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: ledger %s: %w", fn, path, err),
	}
}
