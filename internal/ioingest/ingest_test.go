package ioingest_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/astroinject/astroinject/internal/ioingest"
	"github.com/astroinject/astroinject/pkg/config"
	"github.com/astroinject/astroinject/pkg/db"
	"github.com/astroinject/astroinject/pkg/errcode"
	"github.com/astroinject/astroinject/pkg/records"
	"github.com/astroinject/astroinject/pkg/reltype"
	"github.com/astroinject/astroinject/pkg/schema"
	"github.com/gnames/gn"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDB is the state shared by all loaders of one test.
type fakeDB struct {
	mu       sync.Mutex
	created  []schema.TableDef
	keys     map[int64]bool
	catalog  [][]any
	failAll  bool
	connects int
	closes   int
	skipPKs  []string
	firstRow map[int64][]any
}

func newFakeDB() *fakeDB {
	return &fakeDB{keys: make(map[int64]bool), firstRow: make(map[int64][]any)}
}

func (f *fakeDB) factory() ioingest.LoaderFactory {
	return func() db.Loader { return &fakeLoader{db: f} }
}

type fakeLoader struct {
	db *fakeDB
}

func (l *fakeLoader) Connect(context.Context, *config.DatabaseConfig) error {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	l.db.connects++
	return nil
}

func (l *fakeLoader) Close() error {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	l.db.closes++
	return nil
}

func (l *fakeLoader) ConnConfig() *pgx.ConnConfig { return nil }

func (l *fakeLoader) ExecuteInTransaction(
	ctx context.Context, sql string, args []any, fetch bool,
) (*db.Result, error) {
	return l.ExecuteOutsideTransaction(ctx, sql, args, fetch)
}

func (l *fakeLoader) ExecuteOutsideTransaction(
	context.Context, string, []any, bool,
) (*db.Result, error) {
	return &db.Result{Rows: l.db.catalog}, nil
}

func (l *fakeLoader) VacuumAnalyze(context.Context, schema.TableName) error {
	return nil
}

func (l *fakeLoader) CreateTable(_ context.Context, def schema.TableDef) error {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	l.db.created = append(l.db.created, def)
	return nil
}

func (l *fakeLoader) BulkInsert(
	_ context.Context,
	_ schema.TableName,
	columns []string,
	src records.Source,
) (int64, error) {
	idIdx := slices.Index(columns, "id")
	nameIdx := slices.Index(columns, "name")

	var ids []int64
	var first []any
	for src.Next() {
		row := src.Values()
		if first == nil {
			first = slices.Clone(row)
		}
		if nameIdx >= 0 {
			switch row[nameIdx] {
			case "boom":
				return 0, errors.New("driver error")
			case "panic":
				panic("unexpected value")
			}
		}
		if idIdx >= 0 {
			ids = append(ids, row[idIdx].(int64))
		}
	}

	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	if l.db.failAll {
		return 0, errors.New("connection lost")
	}
	for _, id := range ids {
		l.db.keys[id] = true
	}
	if len(ids) > 0 {
		l.db.firstRow[ids[0]] = first
	}
	return int64(len(ids)), nil
}

func (l *fakeLoader) BulkInsertWithConflictSkip(
	ctx context.Context,
	t schema.TableName,
	columns []string,
	src records.Source,
	pkColumn string,
) (int64, error) {
	l.db.mu.Lock()
	l.db.skipPKs = append(l.db.skipPKs, pkColumn)
	l.db.mu.Unlock()
	return l.BulkInsert(ctx, t, columns, src)
}

func (l *fakeLoader) KeyExists(
	_ context.Context, _ schema.TableName, column string, value any,
) (bool, error) {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	if column != "id" {
		return false, fmt.Errorf("unexpected column %q", column)
	}
	return l.db.keys[value.(int64)], nil
}

func (l *fakeLoader) TableExists(context.Context, schema.TableName) (bool, error) {
	return true, nil
}

// catalogFiles writes one CSV file per entry. Every file gets rows with
// consecutive ids starting at the given id.
func catalogFiles(t *testing.T, files map[string][]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, rows := range files {
		content := "ID,RA,Dec,Name\n" + strings.Join(rows, "\n") + "\n"
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func rows(start, n int, name string) []string {
	res := make([]string, n)
	for i := range n {
		res[i] = fmt.Sprintf("%d,%d.5,-%d.25,%s", start+i, i, i, name)
	}
	return res
}

func testConfig(dir string, opts ...config.Option) *config.Config {
	cfg := config.New()
	cfg.Update([]config.Option{
		config.OptIngestFolder(dir),
		config.OptIngestPattern("*.csv"),
		config.OptIngestTableName("sky.obj"),
		config.OptIngestIDCol("ID"),
		config.OptJobsNumber(3),
		config.OptLogDestination("stderr"),
	})
	cfg.Update(opts)
	return cfg
}

func TestIngest(t *testing.T) {
	assert := assert.New(t)
	dir := catalogFiles(t, map[string][]string{
		"a.csv": rows(1, 3, "a"),
		"b.csv": rows(10, 4, "b"),
		"c.csv": rows(20, 5, "c"),
	})
	fdb := newFakeDB()
	in := ioingest.New(fdb.factory())

	res, err := in.Ingest(context.Background(), testConfig(dir))
	require.NoError(t, err)

	assert.Equal(3, res.Files)
	assert.Equal(3, res.Loaded)
	assert.Equal(0, res.Skipped)
	assert.Equal(0, res.Failed)
	assert.Equal(int64(12), res.Rows)

	require.Len(t, fdb.created, 1)
	def := fdb.created[0]
	assert.Equal("sky", def.Name.Schema)
	assert.Equal("obj", def.Name.Name)
	assert.Equal("id", def.PrimaryKey)
	assert.Equal([]reltype.Field{
		{Name: "id", Type: reltype.Integer},
		{Name: "ra", Type: reltype.Double},
		{Name: "dec", Type: reltype.Double},
		{Name: "name", Type: reltype.Varchar},
	}, def.Columns)

	assert.Equal(4, fdb.connects)
	assert.Equal(fdb.connects, fdb.closes)
	assert.Empty(fdb.skipPKs)
}

func TestIngestFaultIsolation(t *testing.T) {
	assert := assert.New(t)
	dir := catalogFiles(t, map[string][]string{
		"a.csv": rows(1, 3, "a"),
		"b.csv": rows(10, 2, "boom"),
		"c.csv": rows(20, 2, "panic"),
		"d.csv": rows(30, 2, "d"),
	})
	bad := filepath.Join(dir, "e.csv")
	require.NoError(t, os.WriteFile(bad, []byte("ID,RA\n1\n"), 0644))

	fdb := newFakeDB()
	in := ioingest.New(fdb.factory())
	res, err := in.Ingest(context.Background(), testConfig(dir))
	require.NoError(t, err)

	assert.Equal(5, res.Files)
	assert.Equal(2, res.Loaded)
	assert.Equal(3, res.Failed)
	assert.Equal(int64(5), res.Rows)
	assert.Equal(fdb.connects, fdb.closes)
}

func TestIngestAllFailed(t *testing.T) {
	dir := catalogFiles(t, map[string][]string{
		"a.csv": rows(1, 3, "a"),
		"b.csv": rows(10, 2, "b"),
	})
	fdb := newFakeDB()
	fdb.failAll = true
	in := ioingest.New(fdb.factory())

	// Failures are logged and the run still succeeds.
	res, err := in.Ingest(context.Background(), testConfig(dir))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 0, res.Loaded)
	assert.Equal(t, int64(0), res.Rows)
}

func TestAllFilesFailedError(t *testing.T) {
	err := ioingest.AllFilesFailedError(3)
	var gnErr *gn.Error
	require.ErrorAs(t, err, &gnErr)
	assert.Equal(t, errcode.IngestAllFilesFailedError, gnErr.Code)
	assert.Contains(t, err.Error(), "all 3 files failed")
}

func TestIngestNoFiles(t *testing.T) {
	in := ioingest.New(newFakeDB().factory())
	_, err := in.Ingest(context.Background(), testConfig(t.TempDir()))
	var gnErr *gn.Error
	require.ErrorAs(t, err, &gnErr)
	assert.Equal(t, errcode.IngestNoFilesError, gnErr.Code)
}

func TestIngestMissingPrimaryKey(t *testing.T) {
	dir := catalogFiles(t, map[string][]string{"a.csv": rows(1, 3, "a")})
	fdb := newFakeDB()
	in := ioingest.New(fdb.factory())

	cfg := testConfig(dir, config.OptIngestIDCol("source_id"))
	_, err := in.Ingest(context.Background(), cfg)
	var gnErr *gn.Error
	require.ErrorAs(t, err, &gnErr)
	assert.Equal(t, errcode.IngestSchemaError, gnErr.Code)
	assert.Empty(t, fdb.created)
}

func TestIngestEmptyFile(t *testing.T) {
	dir := catalogFiles(t, map[string][]string{
		"a.csv": rows(1, 3, "a"),
		"z.csv": nil,
	})
	in := ioingest.New(newFakeDB().factory())

	res, err := in.Ingest(context.Background(), testConfig(dir))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Loaded)
	assert.Equal(t, 1, res.Skipped)
}

// Only the first key of a file is checked. A file whose first key is in
// the table is skipped whole, even if its other rows are missing.
func TestIngestFirstKeyCheckIsFileGranular(t *testing.T) {
	assert := assert.New(t)
	dir := catalogFiles(t, map[string][]string{
		"a.csv": rows(1, 3, "a"),
		"b.csv": rows(10, 3, "b"),
		"c.csv": rows(20, 3, "c"),
	})
	fdb := newFakeDB()
	// b.csv was interrupted after its first row
	fdb.keys[10] = true
	// c.csv lost its first row only
	fdb.keys[21] = true
	fdb.keys[22] = true

	in := ioingest.New(fdb.factory())
	cfg := testConfig(dir, config.OptIngestProbePrimaryKey(true))
	res, err := in.Ingest(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(2, res.Loaded)
	assert.Equal(1, res.Skipped)
	assert.Equal(int64(6), res.Rows)
	assert.False(fdb.keys[11])
	assert.True(fdb.keys[20])
}

func TestIngestRerunSkipsLoadedFiles(t *testing.T) {
	assert := assert.New(t)
	dir := catalogFiles(t, map[string][]string{
		"a.csv": rows(1, 3, "a"),
		"b.csv": rows(10, 3, "b"),
	})
	fdb := newFakeDB()
	in := ioingest.New(fdb.factory())
	cfg := testConfig(dir, config.OptIngestProbePrimaryKey(true))

	res, err := in.Ingest(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(2, res.Loaded)
	assert.Equal(int64(6), res.Rows)

	res, err = in.Ingest(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(0, res.Loaded)
	assert.Equal(2, res.Skipped)
	assert.Equal(0, res.Failed)
	assert.Equal(int64(0), res.Rows)
	assert.Len(fdb.keys, 6)
}

func TestIngestEmptyFirstFile(t *testing.T) {
	assert := assert.New(t)
	dir := catalogFiles(t, map[string][]string{
		"a.csv": nil,
		"b.csv": rows(10, 3, "b"),
	})
	fdb := newFakeDB()
	in := ioingest.New(fdb.factory())

	res, err := in.Ingest(context.Background(), testConfig(dir))
	require.NoError(t, err)
	assert.Equal(1, res.Loaded)
	assert.Equal(1, res.Skipped)
	require.Len(t, fdb.created, 1)
	assert.Equal([]reltype.Field{
		{Name: "id", Type: reltype.Integer},
		{Name: "ra", Type: reltype.Double},
		{Name: "dec", Type: reltype.Double},
		{Name: "name", Type: reltype.Varchar},
	}, fdb.created[0].Columns)
}

func TestIngestAllFilesEmpty(t *testing.T) {
	dir := catalogFiles(t, map[string][]string{
		"a.csv": nil,
		"b.csv": nil,
	})
	fdb := newFakeDB()
	in := ioingest.New(fdb.factory())

	_, err := in.Ingest(context.Background(), testConfig(dir))
	var gnErr *gn.Error
	require.ErrorAs(t, err, &gnErr)
	assert.Equal(t, errcode.IngestSchemaError, gnErr.Code)
	assert.Empty(t, fdb.created)
}

func TestIngestSkipConflicts(t *testing.T) {
	dir := catalogFiles(t, map[string][]string{
		"a.csv": rows(1, 3, "a"),
		"b.csv": rows(10, 3, "b"),
	})
	fdb := newFakeDB()
	in := ioingest.New(fdb.factory())

	cfg := testConfig(dir, config.OptIngestSkipConflicts(true))
	res, err := in.Ingest(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Loaded)
	assert.Equal(t, []string{"id", "id"}, fdb.skipPKs)
}

func TestIngestLedger(t *testing.T) {
	assert := assert.New(t)
	dir := catalogFiles(t, map[string][]string{
		"a.csv": rows(1, 3, "a"),
		"b.csv": rows(10, 3, "b"),
	})
	ledger := filepath.Join(t.TempDir(), "ledger.sqlite")
	cfg := testConfig(dir, config.OptIngestLedger(ledger))

	fdb := newFakeDB()
	in := ioingest.New(fdb.factory())
	res, err := in.Ingest(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(2, res.Loaded)

	res, err = in.Ingest(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(0, res.Loaded)
	assert.Equal(2, res.Skipped)
	assert.Equal(int64(0), res.Rows)
}

func TestIngestForceCast(t *testing.T) {
	dir := catalogFiles(t, map[string][]string{
		"a.csv": rows(1, 2, "a"),
	})
	fdb := newFakeDB()
	fdb.catalog = [][]any{
		{"id", "bigint", "int8"},
		{"ra", "real", "float4"},
		{"dec", "double precision", "float8"},
		{"name", "text", "text"},
	}
	in := ioingest.New(fdb.factory())

	cfg := testConfig(dir, config.OptIngestForceCastCorrection(true))
	res, err := in.Ingest(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, 1, res.Loaded)

	row := fdb.firstRow[1]
	require.Len(t, row, 4)
	assert.IsType(t, float32(0), row[1])
	assert.IsType(t, float64(0), row[2])
}
