// Package iodb implements the Bulk Loader on top of pgx.
// This is an impure I/O package that implements contracts
// defined in pkg/.
package iodb

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"

	"github.com/astroinject/astroinject/pkg/config"
	"github.com/astroinject/astroinject/pkg/db"
	"github.com/astroinject/astroinject/pkg/records"
	"github.com/astroinject/astroinject/pkg/schema"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// stageTable is the session-local table used by conflict-skipping loads.
// It is dropped on commit, so the name can be reused by every load.
const stageTable = "astroinject_stage"

// pgxLoader implements db.Loader with a pgxpool limited to a single
// connection.
type pgxLoader struct {
	pool *pgxpool.Pool
	cfg  *config.DatabaseConfig
	opts records.Options
}

// NewLoader creates a new loader (without connecting). The options decide
// the COPY format used by bulk inserts.
func NewLoader(opts records.Options) db.Loader {
	return &pgxLoader{opts: opts.Normalize()}
}

// ConnString builds a connection URL from the configuration. A DSN, when
// present, is returned as is.
func ConnString(cfg *config.DatabaseConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Database,
		RawQuery: "sslmode=" + url.QueryEscape(cfg.SSLMode),
	}
	return u.String()
}

// Connect opens a pool with exactly one connection and verifies it.
func (l *pgxLoader) Connect(
	ctx context.Context,
	cfg *config.DatabaseConfig,
) error {
	poolConfig, err := pgxpool.ParseConfig(ConnString(cfg))
	if err != nil {
		return ConnectionError(cfg.Host, cfg.Port, cfg.Database, cfg.User, err)
	}

	cc := poolConfig.ConnConfig
	poolConfig.MaxConns = 1
	poolConfig.MinConns = 0
	poolConfig.MaxConnLifetime = 0
	poolConfig.MaxConnIdleTime = 0

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return ConnectionError(cc.Host, int(cc.Port), cc.Database, cc.User, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return ConnectionError(cc.Host, int(cc.Port), cc.Database, cc.User, err)
	}

	l.pool = pool
	l.cfg = cfg
	return nil
}

// Close releases the connection.
func (l *pgxLoader) Close() error {
	if l.pool != nil {
		l.pool.Close()
		l.pool = nil
	}
	return nil
}

// ConnConfig returns the parsed connection settings.
func (l *pgxLoader) ConnConfig() *pgx.ConnConfig {
	if l.pool == nil {
		return nil
	}
	return l.pool.Config().ConnConfig
}

func (l *pgxLoader) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	if l.pool == nil {
		return nil, NotConnectedError()
	}
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		cc := l.pool.Config().ConnConfig
		return nil, ConnectionError(cc.Host, int(cc.Port), cc.Database, cc.User, err)
	}
	return conn, nil
}

// querier is satisfied by both pgx.Tx and *pgxpool.Conn.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func run(
	ctx context.Context,
	q querier,
	sql string,
	args []any,
	fetch bool,
) (*db.Result, error) {
	if !fetch {
		tag, err := q.Exec(ctx, sql, args...)
		if err != nil {
			return nil, err
		}
		return &db.Result{RowsAffected: tag.RowsAffected()}, nil
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := &db.Result{}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		res.Rows = append(res.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	res.RowsAffected = rows.CommandTag().RowsAffected()
	return res, nil
}

// ExecuteInTransaction runs one statement in its own transaction.
func (l *pgxLoader) ExecuteInTransaction(
	ctx context.Context,
	sql string,
	args []any,
	fetch bool,
) (*db.Result, error) {
	conn, err := l.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, TransactionError(err)
	}
	// no-op after a successful commit
	defer func() { _ = tx.Rollback(ctx) }()

	res, err := run(ctx, tx, sql, args, fetch)
	if err != nil {
		return nil, QueryError(sql, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, TransactionError(err)
	}
	return res, nil
}

// ExecuteOutsideTransaction runs one statement in autocommit mode. pgx
// never leaves a connection in a transaction between calls, so there is
// no mode to reset before the connection goes back to the pool.
func (l *pgxLoader) ExecuteOutsideTransaction(
	ctx context.Context,
	sql string,
	args []any,
	fetch bool,
) (*db.Result, error) {
	conn, err := l.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	res, err := run(ctx, conn, sql, args, fetch)
	if err != nil {
		return nil, QueryError(sql, err)
	}
	return res, nil
}

// CreateTable creates the destination table if it does not exist.
func (l *pgxLoader) CreateTable(ctx context.Context, def schema.TableDef) error {
	_, err := l.ExecuteInTransaction(ctx, schema.CreateTableSQL(def), nil, false)
	if err != nil {
		return CreateTableError(def.Name.String(), err)
	}
	return nil
}

// BulkInsert streams rows into the table with COPY FROM STDIN.
func (l *pgxLoader) BulkInsert(
	ctx context.Context,
	t schema.TableName,
	columns []string,
	src records.Source,
) (int64, error) {
	conn, err := l.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	n, err := l.copyFrom(ctx, conn.Conn().PgConn(), t, columns, src)
	if err != nil {
		return 0, CopyError(t.String(), err)
	}
	return n, nil
}

// BulkInsertWithConflictSkip copies rows into a temporary staging table
// and merges them into the target with ON CONFLICT DO NOTHING, all in one
// transaction. With an empty pkColumn any unique violation is skipped.
func (l *pgxLoader) BulkInsertWithConflictSkip(
	ctx context.Context,
	t schema.TableName,
	columns []string,
	src records.Source,
	pkColumn string,
) (int64, error) {
	conn, err := l.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return 0, TransactionError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stage := schema.TableName{Name: stageTable}
	create := fmt.Sprintf(
		"CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		stage.Sanitize(), t.Sanitize(),
	)
	if _, err = tx.Exec(ctx, create); err != nil {
		return 0, QueryError(create, err)
	}

	if _, err = l.copyFrom(ctx, tx.Conn().PgConn(), stage, columns, src); err != nil {
		return 0, CopyError(t.String(), err)
	}

	conflict := "ON CONFLICT DO NOTHING"
	if pkColumn != "" {
		conflict = fmt.Sprintf("ON CONFLICT (%s) DO NOTHING", schema.Quote(pkColumn))
	}
	cols := schema.QuoteList(columns)
	insert := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s %s",
		t.Sanitize(), cols, cols, stage.Sanitize(), conflict)
	tag, err := tx.Exec(ctx, insert)
	if err != nil {
		return 0, QueryError(insert, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, TransactionError(err)
	}
	return tag.RowsAffected(), nil
}

// copyFrom encodes src in a goroutine and streams it to the server through
// a pipe, so rows are never fully materialized as text.
func (l *pgxLoader) copyFrom(
	ctx context.Context,
	pc *pgconn.PgConn,
	t schema.TableName,
	columns []string,
	src records.Source,
) (int64, error) {
	query := fmt.Sprintf("COPY %s (%s) FROM STDIN WITH %s",
		t.Sanitize(), schema.QuoteList(columns), l.opts.CopyClause())

	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		_, err := records.EncodeForBulkLoad(pw, src, l.opts)
		pw.CloseWithError(err)
		done <- err
	}()

	tag, err := pc.CopyFrom(ctx, pr, query)
	// unblocks the encoder if the server stopped reading early
	pr.Close()
	encErr := <-done
	if err != nil {
		return 0, err
	}
	if encErr != nil {
		return 0, encErr
	}
	return tag.RowsAffected(), nil
}

// VacuumAnalyze refreshes statistics outside of a transaction.
func (l *pgxLoader) VacuumAnalyze(ctx context.Context, t schema.TableName) error {
	_, err := l.ExecuteOutsideTransaction(ctx, schema.VacuumAnalyzeSQL(t), nil, false)
	if err != nil {
		return VacuumError(t.String(), err)
	}
	return nil
}

// KeyExists reports whether a row with column = value exists. A nil value
// never matches.
func (l *pgxLoader) KeyExists(
	ctx context.Context,
	t schema.TableName,
	column string,
	value any,
) (bool, error) {
	if value == nil {
		return false, nil
	}
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)",
		t.Sanitize(), schema.Quote(column))
	res, err := l.ExecuteOutsideTransaction(ctx, query, []any{value}, true)
	if err != nil {
		return false, err
	}
	return firstBool(res), nil
}

// TableExists reports whether the table exists.
func (l *pgxLoader) TableExists(ctx context.Context, t schema.TableName) (bool, error) {
	query := "SELECT to_regclass($1::text) IS NOT NULL"
	res, err := l.ExecuteOutsideTransaction(ctx, query, []any{t.Sanitize()}, true)
	if err != nil {
		return false, TableExistsCheckError(t.String(), err)
	}
	return firstBool(res), nil
}

func firstBool(res *db.Result) bool {
	if res == nil || len(res.Rows) == 0 || len(res.Rows[0]) == 0 {
		return false
	}
	b, _ := res.Rows[0][0].(bool)
	return b
}
