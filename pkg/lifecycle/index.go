package lifecycle

import (
	"context"

	"github.com/astroinject/astroinject/pkg/schema"
)

// Mode selects what schema-wide index migration does to every table.
type Mode int

const (
	// ModeCreate creates a spatial index where none exists.
	ModeCreate Mode = iota
	// ModeRecreate drops existing spatial indexes and creates new ones.
	ModeRecreate
	// ModeDropOnly drops spatial indexes and does nothing else.
	ModeDropOnly
)

func (m Mode) String() string {
	switch m {
	case ModeRecreate:
		return "recreate"
	case ModeDropOnly:
		return "drop-only"
	default:
		return "create"
	}
}

// PKStatus is the outcome of a primary key backfill.
type PKStatus string

const (
	PKExists      PKStatus = "skip_pkey_exists"
	PKNoSafeID    PKStatus = "skip_no_safe_id"
	PKWouldAttach PKStatus = "would_attach_pk"
	PKAttached    PKStatus = "attached_pk"
)

// Attached is true when a primary key was (or, in dry-run, would be) added.
func (s PKStatus) Attached() bool {
	return s == PKAttached || s == PKWouldAttach
}

// MigrateOptions describe a schema-wide spatial index migration.
type MigrateOptions struct {
	// Target is a schema name or a single schema.table.
	Target string
	// NameLike is an SQL LIKE filter on table names. Ignored for a single
	// table target.
	NameLike string
	// RACandidates and DecCandidates are lower-case column names tried in
	// order.
	RACandidates  []string
	DecCandidates []string
	// IncludePartitioned also considers partitioned parent tables.
	IncludePartitioned bool
	Mode               Mode
	// EnsurePK promotes a NOT NULL id column to primary key. Ignored in
	// ModeDropOnly.
	EnsurePK bool
	// DryRun logs every action and issues no DDL.
	DryRun bool
}

// MigrateSummary counts the outcome of a migration.
type MigrateSummary struct {
	Tables             int
	Created            int
	Dropped            int
	SkippedExists      int
	SkippedMissingCols int
	PKsAttached        int
	PKsSkipped         int
	Failed             int
}

// IndexRequest describes indexes for one table.
type IndexRequest struct {
	Table schema.TableName
	// Kind of the spatial index. Btree means only BtreeColumns are
	// indexed.
	Kind         schema.IndexKind
	RA, Dec      string
	BtreeColumns []string
	Concurrently bool
}

// IndexManager creates, recreates and drops indexes of loaded tables.
// It works over a single connection and must not run concurrently with
// another manager on the same schema.
type IndexManager interface {
	// ApplyIndexes creates the requested indexes on one table and
	// refreshes its statistics.
	ApplyIndexes(ctx context.Context, req IndexRequest) error

	// MigrateSpatialIndexes processes every table of a schema. Failures of
	// single tables are counted, not returned.
	MigrateSpatialIndexes(
		ctx context.Context,
		opts MigrateOptions,
	) (MigrateSummary, error)

	// EnsurePrimaryKeyOnId promotes a NOT NULL id column to primary key
	// with non-blocking DDL.
	EnsurePrimaryKeyOnId(
		ctx context.Context,
		schemaName, table string,
		dryRun bool,
	) (PKStatus, error)
}
