// Package db defines the contract of the Bulk Loader, the component that
// owns one database connection and moves rows into PostgreSQL.
package db

import (
	"context"

	"github.com/astroinject/astroinject/pkg/config"
	"github.com/astroinject/astroinject/pkg/records"
	"github.com/astroinject/astroinject/pkg/schema"
	"github.com/jackc/pgx/v5"
)

// Result holds the outcome of one statement. Rows is filled only when the
// caller asked to fetch.
type Result struct {
	Rows         [][]any
	RowsAffected int64
}

// Executor runs single statements. Index management needs nothing more
// from a connection, which keeps it easy to fake in tests.
type Executor interface {
	// ExecuteInTransaction runs one statement inside a transaction. It
	// commits on success and rolls back on any error.
	ExecuteInTransaction(
		ctx context.Context, sql string, args []any, fetch bool,
	) (*Result, error)

	// ExecuteOutsideTransaction runs one statement in autocommit mode.
	// Statements that cannot run inside a transaction block (CREATE INDEX
	// CONCURRENTLY, VACUUM) must use it.
	ExecuteOutsideTransaction(
		ctx context.Context, sql string, args []any, fetch bool,
	) (*Result, error)

	// VacuumAnalyze refreshes statistics of a table.
	VacuumAnalyze(ctx context.Context, t schema.TableName) error
}

// Loader is a single-connection bulk loader. A Loader is not safe for
// concurrent use; every worker creates its own.
//
// Every method acquires the connection for the duration of the call and
// releases it on every path.
type Loader interface {
	Executor

	// Connect opens the connection.
	Connect(ctx context.Context, cfg *config.DatabaseConfig) error

	// Close releases the connection.
	Close() error

	// CreateTable creates the destination table if it does not exist.
	CreateTable(ctx context.Context, def schema.TableDef) error

	// BulkInsert streams rows straight into the table with COPY. There is
	// no conflict handling.
	BulkInsert(
		ctx context.Context,
		t schema.TableName,
		columns []string,
		src records.Source,
	) (int64, error)

	// BulkInsertWithConflictSkip streams rows into a staging table and
	// merges them into the target, ignoring rows whose primary key is
	// already present. It returns the number of rows that reached the
	// target.
	BulkInsertWithConflictSkip(
		ctx context.Context,
		t schema.TableName,
		columns []string,
		src records.Source,
		pkColumn string,
	) (int64, error)

	// KeyExists reports whether a row with column = value exists.
	KeyExists(
		ctx context.Context,
		t schema.TableName,
		column string,
		value any,
	) (bool, error)

	// TableExists reports whether the table exists. A name without schema
	// is looked up through search_path.
	TableExists(ctx context.Context, t schema.TableName) (bool, error)

	// ConnConfig returns the parsed connection settings, so other clients
	// (GORM) can connect to the same database.
	ConnConfig() *pgx.ConnConfig
}
