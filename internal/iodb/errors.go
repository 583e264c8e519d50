package iodb

import (
	"fmt"
	"runtime"

	"github.com/astroinject/astroinject/pkg/errcode"
	"github.com/gnames/gn"
)

// ConnectionError is returned when the database cannot be reached.
func ConnectionError(host string, port int, database, user string, err error) error {
	msg := `Cannot connect to PostgreSQL at <em>%s:%d/%s</em> as <em>%s</em>

<em>Possible causes:</em>
  - PostgreSQL is not running
  - Database configuration is incorrect
  - Network connectivity issues

<em>How to fix:</em>
  1. Check if PostgreSQL is running: pg_isready -h %s -p %d
  2. Review the database section of the base config file`
	vars := []any{host, port, database, user, host, port}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.DBConnectionError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: cannot connect to %s:%d/%s: %w",
			fn, host, port, database, err),
	}
}

// NotConnectedError is returned when a loader is used before Connect.
func NotConnectedError() error {
	msg := "Database connection is not open"
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.DBNotConnectedError,
		Msg:  msg,
		Err:  fmt.Errorf("from %s: loader is not connected", fn),
	}
}

// QueryError is returned when a single statement fails.
func QueryError(query string, err error) error {
	msg := "Statement failed: <em>%s</em>"
	vars := []any{shorten(query)}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.DBQueryError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: statement failed: %w", fn, err),
	}
}

// TransactionError is returned when a transaction cannot begin or commit.
func TransactionError(err error) error {
	msg := "Transaction failed"
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.DBTransactionError,
		Msg:  msg,
		Err:  fmt.Errorf("from %s: transaction failed: %w", fn, err),
	}
}

// CreateTableError is returned when CREATE TABLE fails.
func CreateTableError(table string, err error) error {
	msg := "Cannot create table <em>%s</em>"
	vars := []any{table}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.DBCreateTableError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot create table %s: %w", fn, table, err),
	}
}

// CopyError is returned when streaming rows with COPY fails.
func CopyError(table string, err error) error {
	msg := "Cannot copy rows into <em>%s</em>"
	vars := []any{table}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.DBCopyError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: copy into %s failed: %w", fn, table, err),
	}
}

// TableExistsCheckError is returned when the existence check fails.
func TableExistsCheckError(table string, err error) error {
	msg := "Cannot check if table <em>%s</em> exists"
	vars := []any{table}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.DBTableExistsCheckError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: table check failed: %w", fn, err),
	}
}

// VacuumError is returned when VACUUM ANALYZE fails.
func VacuumError(table string, err error) error {
	msg := "Cannot run VACUUM ANALYZE on <em>%s</em>"
	vars := []any{table}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.DBVacuumError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: vacuum failed: %w", fn, err),
	}
}

func shorten(query string) string {
	const limit = 120
	if len(query) <= limit {
		return query
	}
	return query[:limit] + "..."
}
