package ioindex

import (
	"context"
	"errors"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/astroinject/astroinject/pkg/db"
	"github.com/astroinject/astroinject/pkg/errcode"
	"github.com/astroinject/astroinject/pkg/lifecycle"
	"github.com/astroinject/astroinject/pkg/schema"
	"github.com/gnames/gn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTable struct {
	cols     [][]any
	indexes  []string
	pk       bool
	uniqueID string
	kind     string
}

// fakePG answers catalog queries of one schema, "sky", and records DDL.
type fakePG struct {
	extensions []string
	tables     map[string]*fakeTable
	ddl        []string
	vacuums    []string
	failDDL    string
}

func (f *fakePG) table(name string) *fakeTable {
	if t, ok := f.tables[name]; ok {
		return t
	}
	return &fakeTable{}
}

func (f *fakePG) names() []string {
	res := make([]string, 0, len(f.tables))
	for k := range f.tables {
		res = append(res, k)
	}
	slices.Sort(res)
	return res
}

func one(v any) [][]any { return [][]any{{v}} }

func (f *fakePG) ExecuteInTransaction(
	ctx context.Context, sql string, args []any, fetch bool,
) (*db.Result, error) {
	return f.ExecuteOutsideTransaction(ctx, sql, args, fetch)
}

func (f *fakePG) ExecuteOutsideTransaction(
	_ context.Context, sql string, args []any, _ bool,
) (*db.Result, error) {
	var rows [][]any
	switch sql {
	case extensionQuery:
		for _, n := range args[0].([]string) {
			if slices.Contains(f.extensions, n) {
				rows = one(n)
				break
			}
		}
	case listTablesQuery:
		kinds := args[1].([]string)
		like := strings.TrimSuffix(args[2].(string), "%")
		for _, n := range f.names() {
			t := f.tables[n]
			if slices.Contains(kinds, t.kind) && strings.HasPrefix(n, like) {
				rows = append(rows, []any{n})
			}
		}
	case tableExistsQuery:
		t, ok := f.tables[args[1].(string)]
		if ok && slices.Contains(args[2].([]string), t.kind) {
			rows = one(int32(1))
		}
	case spatialIndexesQuery:
		for _, n := range f.table(args[1].(string)).indexes {
			rows = append(rows, []any{n})
		}
	case columnsQuery:
		for _, n := range f.names() {
			if tableName("sky", n).Sanitize() == args[0].(string) {
				rows = f.tables[n].cols
			}
		}
	case hasPrimaryKeyQuery:
		if f.table(args[1].(string)).pk {
			rows = one(int32(1))
		}
	case uniqueIDIndexQuery:
		if u := f.table(args[1].(string)).uniqueID; u != "" {
			rows = one(u)
		}
	default:
		if f.failDDL != "" && strings.Contains(sql, f.failDDL) {
			return nil, errors.New("lock timeout")
		}
		f.ddl = append(f.ddl, sql)
	}
	return &db.Result{Rows: rows}, nil
}

func (f *fakePG) VacuumAnalyze(_ context.Context, t schema.TableName) error {
	f.vacuums = append(f.vacuums, t.String())
	return nil
}

func coords(ra, dec string) [][]any {
	return [][]any{{"id", true}, {ra, false}, {dec, false}, {"mag", false}}
}

func newFake() *fakePG {
	return &fakePG{
		extensions: []string{"pg_sphere"},
		tables: map[string]*fakeTable{
			"obj":     {kind: "r", cols: coords("RA", "DEC")},
			"done":    {kind: "r", cols: coords("raj2000", "dej2000"), indexes: []string{"done_idx"}, pk: true},
			"nocoord": {kind: "r", cols: [][]any{{"id", false}, {"x", false}}},
			"parted":  {kind: "p", cols: coords("alpha", "delta")},
		},
	}
}

func TestParseCandidates(t *testing.T) {
	tests := []struct {
		msg string
		in  string
		res []string
	}{
		{"comma", "RA, ra_deg,,", []string{"ra", "ra_deg"}},
		{"semicolon", "ra;alpha", []string{"ra", "alpha"}},
		{"pipe", "ra | RAJ2000", []string{"ra", "raj2000"}},
		{"single", " Alpha ", []string{"alpha"}},
		{"empty", "", []string{}},
	}

	for _, v := range tests {
		assert.Equal(t, v.res, ParseCandidates(v.in), v.msg)
	}
	assert.Len(t, ParseCandidates(DefaultRACandidates), 6)
}

func TestMigrateCreate(t *testing.T) {
	assert := assert.New(t)
	f := newFake()
	m := New(f)

	sum, err := m.MigrateSpatialIndexes(context.Background(), lifecycle.MigrateOptions{
		Target: "sky",
	})
	require.NoError(t, err)

	assert.Equal(lifecycle.MigrateSummary{
		Tables:             3,
		Created:            1,
		SkippedExists:      1,
		SkippedMissingCols: 1,
	}, sum)
	assert.Equal([]string{
		`CREATE INDEX IF NOT EXISTS "obj_ra_dec_pgsphere_idx" ON "sky"."obj" ` +
			`USING gist (spoint(radians("RA"), radians("DEC")))`,
	}, f.ddl)
	assert.Equal([]string{"sky.obj"}, f.vacuums)
}

func TestMigrateFilters(t *testing.T) {
	assert := assert.New(t)
	f := newFake()
	m := New(f)

	sum, err := m.MigrateSpatialIndexes(context.Background(), lifecycle.MigrateOptions{
		Target:             "sky",
		IncludePartitioned: true,
		NameLike:           "pa%",
	})
	require.NoError(t, err)
	assert.Equal(1, sum.Tables)
	assert.Equal(1, sum.Created)
	require.Len(t, f.ddl, 1)
	assert.Contains(f.ddl[0], `radians("alpha"), radians("delta")`)

	f = newFake()
	sum, err = New(f).MigrateSpatialIndexes(context.Background(),
		lifecycle.MigrateOptions{
			Target:        "sky",
			RACandidates:  []string{"raj2000"},
			DecCandidates: []string{"dej2000"},
		})
	require.NoError(t, err)
	assert.Equal(0, sum.Created)
	assert.Equal(2, sum.SkippedMissingCols)
}

func TestMigrateSingleTable(t *testing.T) {
	f := newFake()
	sum, err := New(f).MigrateSpatialIndexes(context.Background(),
		lifecycle.MigrateOptions{Target: "sky.nocoord", Mode: lifecycle.ModeRecreate})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Tables)
	assert.Equal(t, 1, sum.SkippedMissingCols)

	_, err = New(f).MigrateSpatialIndexes(context.Background(),
		lifecycle.MigrateOptions{Target: "sky.parted"})
	var gnErr *gn.Error
	require.ErrorAs(t, err, &gnErr)
	assert.Equal(t, errcode.IndexTableNotFoundError, gnErr.Code)
}

func TestMigrateExtension(t *testing.T) {
	f := newFake()
	f.extensions = nil

	_, err := New(f).MigrateSpatialIndexes(context.Background(),
		lifecycle.MigrateOptions{Target: "sky"})
	var gnErr *gn.Error
	require.ErrorAs(t, err, &gnErr)
	assert.Equal(t, errcode.IndexExtensionMissingError, gnErr.Code)

	// dropping needs no extension
	sum, err := New(f).MigrateSpatialIndexes(context.Background(),
		lifecycle.MigrateOptions{Target: "sky", Mode: lifecycle.ModeDropOnly})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Dropped)
}

func TestMigrateDropOnly(t *testing.T) {
	assert := assert.New(t)
	f := newFake()
	f.tables["done"].indexes = []string{"a_idx", "b_idx"}

	sum, err := New(f).MigrateSpatialIndexes(context.Background(),
		lifecycle.MigrateOptions{
			Target:   "sky",
			Mode:     lifecycle.ModeDropOnly,
			EnsurePK: true,
		})
	require.NoError(t, err)
	assert.Equal(lifecycle.MigrateSummary{Tables: 3, Dropped: 2}, sum)
	assert.Equal([]string{
		`DROP INDEX CONCURRENTLY IF EXISTS "sky"."a_idx"`,
		`DROP INDEX CONCURRENTLY IF EXISTS "sky"."b_idx"`,
	}, f.ddl)
	assert.Empty(f.vacuums)

	f = newFake()
	sum, err = New(f).MigrateSpatialIndexes(context.Background(),
		lifecycle.MigrateOptions{
			Target: "sky",
			Mode:   lifecycle.ModeDropOnly,
			DryRun: true,
		})
	require.NoError(t, err)
	assert.Equal(0, sum.Dropped)
	assert.Empty(f.ddl)
}

func TestMigrateRecreate(t *testing.T) {
	assert := assert.New(t)
	f := newFake()
	f.tables["obj"].indexes = []string{"obj_ra_dec_pgsphere_idx"}

	sum, err := New(f).MigrateSpatialIndexes(context.Background(),
		lifecycle.MigrateOptions{Target: "sky.obj", Mode: lifecycle.ModeRecreate})
	require.NoError(t, err)
	assert.Equal(1, sum.Dropped)
	assert.Equal(1, sum.Created)

	require.Len(t, f.ddl, 2)
	assert.Equal(`DROP INDEX CONCURRENTLY IF EXISTS "sky"."obj_ra_dec_pgsphere_idx"`, f.ddl[0])
	assert.NotContains(f.ddl[1], `"obj_ra_dec_pgsphere_idx"`)
	assert.Regexp(regexp.MustCompile(`"obj_ra_dec_pgsphere_[0-9a-f]{8}_idx"`), f.ddl[1])
}

func TestMigrateDryRun(t *testing.T) {
	assert := assert.New(t)
	f := newFake()
	f.tables["done"].indexes = []string{"done_idx"}

	sum, err := New(f).MigrateSpatialIndexes(context.Background(),
		lifecycle.MigrateOptions{
			Target:   "sky",
			Mode:     lifecycle.ModeRecreate,
			EnsurePK: true,
			DryRun:   true,
		})
	require.NoError(t, err)
	assert.Empty(f.ddl)
	assert.Empty(f.vacuums)
	assert.Equal(lifecycle.MigrateSummary{
		Tables:             3,
		SkippedMissingCols: 1,
		PKsAttached:        1,
		PKsSkipped:         2,
	}, sum)
}

func TestMigrateTableFailure(t *testing.T) {
	assert := assert.New(t)
	f := newFake()
	f.tables["more"] = &fakeTable{kind: "r", cols: coords("ra", "dec")}
	f.failDDL = `ON "sky"."more"`

	sum, err := New(f).MigrateSpatialIndexes(context.Background(),
		lifecycle.MigrateOptions{Target: "sky"})
	require.NoError(t, err)
	assert.Equal(4, sum.Tables)
	assert.Equal(1, sum.Failed)
	assert.Equal(1, sum.Created)
}

func TestEnsurePrimaryKeyOnId(t *testing.T) {
	tests := []struct {
		msg    string
		tbl    *fakeTable
		dryRun bool
		status lifecycle.PKStatus
		ddl    []string
	}{
		{"pk exists", &fakeTable{pk: true, cols: coords("ra", "dec")},
			false, lifecycle.PKExists, nil},
		{"no id", &fakeTable{cols: [][]any{{"oid", true}}},
			false, lifecycle.PKNoSafeID, nil},
		{"nullable id", &fakeTable{cols: [][]any{{"id", false}}},
			false, lifecycle.PKNoSafeID, nil},
		{"reuse unique index", &fakeTable{cols: [][]any{{"ID", true}}, uniqueID: "obj_id_key"},
			false, lifecycle.PKAttached, []string{
				`ALTER TABLE "sky"."obj" ADD CONSTRAINT "obj_pkey" PRIMARY KEY USING INDEX "obj_id_key"`,
			}},
		{"build unique index", &fakeTable{cols: [][]any{{"ID", true}}},
			false, lifecycle.PKAttached, []string{
				`CREATE UNIQUE INDEX CONCURRENTLY "ux_sky_obj_id" ON "sky"."obj" ("ID")`,
				`ALTER TABLE "sky"."obj" ADD CONSTRAINT "obj_pkey" PRIMARY KEY USING INDEX "ux_sky_obj_id"`,
			}},
		{"dry run", &fakeTable{cols: [][]any{{"id", true}}},
			true, lifecycle.PKWouldAttach, nil},
	}

	for _, v := range tests {
		v.tbl.kind = "r"
		f := &fakePG{tables: map[string]*fakeTable{"obj": v.tbl}}
		st, err := New(f).EnsurePrimaryKeyOnId(context.Background(), "sky", "obj", v.dryRun)
		require.NoError(t, err, v.msg)
		assert.Equal(t, v.status, st, v.msg)
		assert.Equal(t, v.ddl, f.ddl, v.msg)
	}
}

func TestApplyIndexes(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	tn := schema.ParseTableName("sky.obj")

	f := newFake()
	err := New(f).ApplyIndexes(ctx, lifecycle.IndexRequest{
		Table:        tn,
		Kind:         schema.PgSphere,
		RA:           "ra",
		Dec:          "dec",
		BtreeColumns: []string{"mag"},
	})
	require.NoError(t, err)
	assert.Equal([]string{
		`CREATE INDEX IF NOT EXISTS "obj_ra_dec_pgsphere_idx" ON "sky"."obj" ` +
			`USING gist (spoint(radians("ra"), radians("dec")))`,
		`CREATE INDEX IF NOT EXISTS "obj_mag_idx" ON "sky"."obj" USING btree ("mag")`,
	}, f.ddl)
	assert.Equal([]string{"sky.obj"}, f.vacuums)

	f = newFake()
	f.extensions = []string{"q3c"}
	err = New(f).ApplyIndexes(ctx, lifecycle.IndexRequest{
		Table: tn, Kind: schema.Q3C, RA: "ra", Dec: "dec", Concurrently: true,
	})
	require.NoError(t, err)
	assert.Equal([]string{
		`CREATE INDEX CONCURRENTLY IF NOT EXISTS "obj_ra_dec_q3c_idx" ON "sky"."obj" (q3c_ang2ipix("ra", "dec"))`,
	}, f.ddl)

	f = newFake()
	err = New(f).ApplyIndexes(ctx, lifecycle.IndexRequest{
		Table: tn, Kind: schema.Btree, BtreeColumns: []string{"mag", "id"},
	})
	require.NoError(t, err)
	assert.Len(f.ddl, 2)

	var gnErr *gn.Error
	err = New(newFake()).ApplyIndexes(ctx, lifecycle.IndexRequest{
		Table: tn, Kind: schema.Q3C, RA: "ra", Dec: "dec",
	})
	require.ErrorAs(t, err, &gnErr)
	assert.Equal(errcode.IndexExtensionMissingError, gnErr.Code)

	err = New(newFake()).ApplyIndexes(ctx, lifecycle.IndexRequest{
		Table: tn, Kind: schema.PgSphere, RA: "ra",
	})
	require.ErrorAs(t, err, &gnErr)
	assert.Equal(errcode.IndexCreateError, gnErr.Code)

	err = New(newFake()).ApplyIndexes(ctx, lifecycle.IndexRequest{
		Table: tn, Kind: "hash",
	})
	require.ErrorAs(t, err, &gnErr)
	assert.Equal(errcode.IndexCreateError, gnErr.Code)
}
