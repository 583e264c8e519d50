package iotap

import (
	"fmt"
	"runtime"

	"github.com/astroinject/astroinject/pkg/errcode"
	"github.com/gnames/gn"
)

// ConnectionError is returned when GORM cannot use the database
// connection.
func ConnectionError(err error) error {
	msg := `Cannot connect to database with GORM

<em>Possible causes:</em>
  - Database is not reachable
  - Wrong credentials in the base config file

<em>How to fix:</em>
  1. Check the database section of the config
  2. Try to connect with psql using the same settings`

	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.TapConnectionError,
		Msg:  msg,
		Err:  fmt.Errorf("from %s: gorm connection: %w", fn, err),
	}
}

// MigrateError is returned when TAP_SCHEMA tables cannot be created.
func MigrateError(err error) error {
	msg := "Cannot create <em>TAP_SCHEMA</em> tables"
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.TapMigrateError,
		Msg:  msg,
		Err:  fmt.Errorf("from %s: cannot migrate TAP_SCHEMA: %w", fn, err),
	}
}

// RegisterError is returned when TAP_SCHEMA rows of a table cannot be
// written.
func RegisterError(table string, err error) error {
	msg := "Cannot register table <em>%s</em> in TAP_SCHEMA"
	vars := []any{table}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.TapRegisterError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot register %s: %w", fn, table, err),
	}
}
