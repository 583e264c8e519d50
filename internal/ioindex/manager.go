// Package ioindex implements lifecycle.IndexManager. It creates, rebuilds
// and drops spatial indexes of loaded tables and promotes id columns to
// primary keys. All DDL runs in autocommit mode over one connection.
package ioindex

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/astroinject/astroinject/pkg/db"
	"github.com/astroinject/astroinject/pkg/lifecycle"
	"github.com/astroinject/astroinject/pkg/schema"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/google/uuid"
)

// Manager works over a single executor and is not safe for concurrent
// use.
type Manager struct {
	exec db.Executor
}

var _ lifecycle.IndexManager = (*Manager)(nil)

// New creates a Manager.
func New(exec db.Executor) *Manager {
	return &Manager{exec: exec}
}

func tableName(schemaName, table string) schema.TableName {
	return schema.TableName{Schema: schemaName, Name: table}
}

func (m *Manager) ddl(ctx context.Context, sql string) error {
	_, err := m.exec.ExecuteOutsideTransaction(ctx, sql, nil, false)
	return err
}

// MigrateSpatialIndexes brings pgsphere indexes of every table of a
// schema, or of one schema.table, in line with opts.Mode.
func (m *Manager) MigrateSpatialIndexes(
	ctx context.Context,
	opts lifecycle.MigrateOptions,
) (lifecycle.MigrateSummary, error) {
	var sum lifecycle.MigrateSummary
	start := time.Now()

	if opts.Mode != lifecycle.ModeDropOnly {
		ok, err := m.hasExtension(ctx, "pgsphere", "pg_sphere")
		if err != nil {
			return sum, DiscoverError(opts.Target, err)
		}
		if !ok {
			return sum, ExtensionMissingError("pgsphere")
		}
	}

	schemaName, tables, err := m.targetTables(ctx, opts)
	if err != nil {
		return sum, err
	}
	if len(opts.RACandidates) == 0 {
		opts.RACandidates = ParseCandidates(DefaultRACandidates)
	}
	if len(opts.DecCandidates) == 0 {
		opts.DecCandidates = ParseCandidates(DefaultDecCandidates)
	}

	slog.Info("Starting spatial index migration",
		"target", opts.Target,
		"tables", len(tables),
		"mode", opts.Mode.String(),
		"ensure_pk", opts.EnsurePK && opts.Mode != lifecycle.ModeDropOnly,
		"dry_run", opts.DryRun,
	)

	for i, tbl := range tables {
		sum.Tables++
		err = m.migrateTable(ctx, schemaName, tbl, opts, &sum)
		if err != nil {
			sum.Failed++
			slog.Error("Table failed",
				"n", i+1,
				"table", tableName(schemaName, tbl).String(),
				"error", err,
			)
		}
	}

	dur := gnfmt.TimeString(time.Since(start).Seconds())
	slog.Info("Spatial index migration complete",
		"created", sum.Created,
		"dropped", sum.Dropped,
		"skipped_exists", sum.SkippedExists,
		"skipped_missing_cols", sum.SkippedMissingCols,
		"pks_attached", sum.PKsAttached,
		"pks_skipped", sum.PKsSkipped,
		"failed", sum.Failed,
		"duration", dur,
	)
	gn.Info(`Index migration complete
Created: %d, dropped: %d, skipped (exists): %d, skipped (no RA/Dec): %d.
PK attached: %d, PK skipped: %d, failed: %d. Elapsed time: <em>%s</em>`,
		sum.Created, sum.Dropped, sum.SkippedExists, sum.SkippedMissingCols,
		sum.PKsAttached, sum.PKsSkipped, sum.Failed, dur,
	)
	return sum, nil
}

// targetTables resolves opts.Target. A schema.table target skips
// discovery but must exist.
func (m *Manager) targetTables(
	ctx context.Context,
	opts lifecycle.MigrateOptions,
) (string, []string, error) {
	target := schema.ParseTableName(opts.Target)
	if target.Schema == "" {
		tables, err := m.DiscoverTables(ctx, target.Name, opts.NameLike,
			opts.IncludePartitioned)
		return target.Name, tables, err
	}

	ok, err := m.tableExists(ctx, target.Schema, target.Name, opts.IncludePartitioned)
	if err != nil {
		return "", nil, DiscoverError(opts.Target, err)
	}
	if !ok {
		return "", nil, TableNotFoundError(target.String())
	}
	return target.Schema, []string{target.Name}, nil
}

func (m *Manager) migrateTable(
	ctx context.Context,
	schemaName, tbl string,
	opts lifecycle.MigrateOptions,
	sum *lifecycle.MigrateSummary,
) error {
	tn := tableName(schemaName, tbl)
	existing, err := m.ListSpatialIndexes(ctx, schemaName, tbl)
	if err != nil {
		return err
	}

	if opts.Mode == lifecycle.ModeDropOnly {
		if len(existing) == 0 {
			slog.Info("No spatial index to drop", "table", tn.String())
			return nil
		}
		if err = m.dropIndexes(ctx, existing, opts.DryRun); err != nil {
			return err
		}
		if !opts.DryRun {
			sum.Dropped += len(existing)
		}
		return nil
	}

	if opts.EnsurePK {
		st, err := m.EnsurePrimaryKeyOnId(ctx, schemaName, tbl, opts.DryRun)
		if err != nil {
			return err
		}
		if st.Attached() {
			sum.PKsAttached++
		} else {
			sum.PKsSkipped++
		}
		slog.Info("Primary key check", "table", tn.String(), "status", string(st))
	}

	preRun := make([]string, len(existing))
	for i, v := range existing {
		preRun[i] = v.Name
	}
	if opts.Mode == lifecycle.ModeRecreate && len(existing) > 0 {
		if err = m.dropIndexes(ctx, existing, opts.DryRun); err != nil {
			return err
		}
		if !opts.DryRun {
			sum.Dropped += len(existing)
		}
		existing = nil
	}

	if len(existing) > 0 {
		sum.SkippedExists++
		slog.Info("Spatial index exists, skipping",
			"table", tn.String(), "indexes", strings.Join(preRun, ","))
		return nil
	}

	ra, dec, ok, err := m.FindCoordinateColumns(ctx, schemaName, tbl,
		opts.RACandidates, opts.DecCandidates)
	if err != nil {
		return err
	}
	if !ok {
		sum.SkippedMissingCols++
		slog.Info("No RA/Dec columns, skipping", "table", tn.String())
		return nil
	}

	name := schema.SpatialIndexName(schema.PgSphere, tbl, ra, dec)
	if slices.Contains(preRun, name) {
		name = schema.IndexName(
			strings.ToLower(tbl), strings.ToLower(ra), strings.ToLower(dec),
			"pgsphere_"+shortID()+"_idx",
		)
	}
	q := schema.PgSphereIndexSQL(tn, name, ra, dec, false)
	if opts.DryRun {
		slog.Info("Dry run, would create index", "table", tn.String(), "sql", q)
		return nil
	}

	slog.Info("Creating spatial index",
		"table", tn.String(), "index", name, "ra", ra, "dec", dec)
	if err = m.ddl(ctx, q); err != nil {
		return err
	}
	if err = m.exec.VacuumAnalyze(ctx, tn); err != nil {
		return err
	}
	sum.Created++
	return nil
}

func (m *Manager) dropIndexes(
	ctx context.Context,
	idxs []IndexRecord,
	dryRun bool,
) error {
	for _, v := range idxs {
		q := schema.DropIndexSQL(v.Schema, v.Name)
		if dryRun {
			slog.Info("Dry run, would drop index", "sql", q)
			continue
		}
		slog.Info("Dropping index", "schema", v.Schema, "index", v.Name)
		if err := m.ddl(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// shortID returns 8 hex characters of a random UUID.
func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
