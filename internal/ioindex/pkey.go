package ioindex

import (
	"context"
	"log/slog"

	"github.com/astroinject/astroinject/pkg/lifecycle"
	"github.com/astroinject/astroinject/pkg/schema"
)

const hasPrimaryKeyQuery = `
SELECT 1
FROM   pg_constraint c
JOIN   pg_class t ON t.oid = c.conrelid
JOIN   pg_namespace n ON n.oid = t.relnamespace
WHERE  n.nspname = $1 AND t.relname = $2 AND c.contype = 'p'
LIMIT  1`

// uniqueIDIndexQuery finds a valid single column unique index on id.
const uniqueIDIndexQuery = `
SELECT i.relname::text
FROM   pg_index ix
JOIN   pg_class i ON i.oid = ix.indexrelid
JOIN   pg_class t ON t.oid = ix.indrelid
JOIN   pg_namespace n ON n.oid = t.relnamespace
WHERE  n.nspname = $1 AND t.relname = $2
  AND  ix.indisunique
  AND  ix.indisvalid
  AND  ix.indnatts = 1
  AND  (SELECT lower(a.attname) FROM pg_attribute a
        WHERE a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)) = 'id'
LIMIT  1`

// EnsurePrimaryKeyOnId makes a NOT NULL id column the primary key. A
// unique index on id is reused when there is one, otherwise it is built
// concurrently first. The constraint is then attached using the index, so
// the table stays readable and writable.
func (m *Manager) EnsurePrimaryKeyOnId(
	ctx context.Context,
	schemaName, table string,
	dryRun bool,
) (lifecycle.PKStatus, error) {
	rows, err := m.query(ctx, hasPrimaryKeyQuery, schemaName, table)
	if err != nil {
		return "", err
	}
	if len(rows) > 0 {
		return lifecycle.PKExists, nil
	}

	cols, err := m.columnMap(ctx, schemaName, table)
	if err != nil {
		return "", err
	}
	id, ok := cols["id"]
	if !ok || !id.notNull {
		return lifecycle.PKNoSafeID, nil
	}

	tn := tableName(schemaName, table)
	rows, err = m.query(ctx, uniqueIDIndexQuery, schemaName, table)
	if err != nil {
		return "", err
	}
	var uniq string
	if names := firstStrings(rows); len(names) > 0 {
		uniq = names[0]
	} else {
		uniq = schema.IndexName("ux", schemaName, table, "id")
		q := schema.UniqueIndexSQL(tn, uniq, id.name)
		if dryRun {
			slog.Info("Dry run, would create unique index", "sql", q)
		} else if err = m.ddl(ctx, q); err != nil {
			return "", err
		}
	}

	q := schema.AttachPrimaryKeySQL(tn, schema.IndexName(table, "pkey"), uniq)
	if dryRun {
		slog.Info("Dry run, would attach primary key", "sql", q)
		return lifecycle.PKWouldAttach, nil
	}
	if err = m.ddl(ctx, q); err != nil {
		return "", err
	}
	return lifecycle.PKAttached, nil
}
