package ioindex

import (
	"context"
	"strings"
)

// Default candidates for coordinate columns, tried in order.
const (
	DefaultRACandidates  = "ra,ra_deg,raj2000,ra_j2000,alpha,alpha_j2000"
	DefaultDecCandidates = "dec,dec_deg,dej2000,dec_j2000,delta,delta_j2000"
)

const extensionQuery = `
SELECT extname::text
FROM   pg_extension
WHERE  extname = ANY($1::text[])
LIMIT  1`

const listTablesQuery = `
SELECT t.relname::text
FROM   pg_class t
JOIN   pg_namespace n ON n.oid = t.relnamespace
WHERE  n.nspname = $1
  AND  t.relkind::text = ANY($2::text[])
  AND  ($3::text = '' OR t.relname LIKE $3::text)
ORDER  BY t.relname`

const tableExistsQuery = `
SELECT 1
FROM   pg_class t
JOIN   pg_namespace n ON n.oid = t.relnamespace
WHERE  n.nspname = $1
  AND  t.relname = $2
  AND  t.relkind::text = ANY($3::text[])`

// spatialIndexesQuery finds GiST indexes of pgsphere points. Extensions
// that register the operator class under another name are caught by the
// index definition.
const spatialIndexesQuery = `
SELECT i.relname::text AS index_name
FROM   pg_index ix
JOIN   pg_class i ON i.oid = ix.indexrelid
JOIN   pg_class t ON t.oid = ix.indrelid
JOIN   pg_namespace n ON n.oid = t.relnamespace
JOIN   pg_am am ON am.oid = i.relam
LEFT JOIN unnest(ix.indclass) WITH ORDINALITY AS ic(opclass_oid, ord) ON TRUE
LEFT JOIN pg_opclass opc ON opc.oid = ic.opclass_oid
WHERE  n.nspname = $1
  AND  t.relname = $2
  AND  am.amname = 'gist'
  AND  (opc.opcname = 'gist_spoint_ops'
        OR pg_get_indexdef(ix.indexrelid) ILIKE '%spoint(%')
GROUP  BY i.relname, ix.indexrelid
ORDER  BY i.relname`

const columnsQuery = `
SELECT attname::text, attnotnull
FROM   pg_attribute
WHERE  attrelid = $1::text::regclass
  AND  attnum > 0
  AND  NOT attisdropped
ORDER  BY attnum`

// IndexRecord is an existing index.
type IndexRecord struct {
	Schema string
	Name   string
}

type columnInfo struct {
	name    string
	notNull bool
}

// ParseCandidates splits a list of column names on commas, semicolons or
// pipes and lower-cases them. Empty items are dropped.
func ParseCandidates(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})
	res := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			res = append(res, f)
		}
	}
	return res
}

func relKinds(includePartitioned bool) []string {
	if includePartitioned {
		return []string{"r", "p"}
	}
	return []string{"r"}
}

func (m *Manager) query(ctx context.Context, sql string, args ...any) ([][]any, error) {
	res, err := m.exec.ExecuteOutsideTransaction(ctx, sql, args, true)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// hasExtension reports whether one of the named extensions is installed.
func (m *Manager) hasExtension(ctx context.Context, names ...string) (bool, error) {
	rows, err := m.query(ctx, extensionQuery, names)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// DiscoverTables lists tables of a schema ordered by name. nameLike is an
// SQL LIKE pattern; empty matches everything.
func (m *Manager) DiscoverTables(
	ctx context.Context,
	schemaName, nameLike string,
	includePartitioned bool,
) ([]string, error) {
	rows, err := m.query(ctx, listTablesQuery,
		schemaName, relKinds(includePartitioned), nameLike)
	if err != nil {
		return nil, DiscoverError(schemaName, err)
	}
	return firstStrings(rows), nil
}

func (m *Manager) tableExists(
	ctx context.Context,
	schemaName, table string,
	includePartitioned bool,
) (bool, error) {
	rows, err := m.query(ctx, tableExistsQuery,
		schemaName, table, relKinds(includePartitioned))
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// ListSpatialIndexes returns pgsphere GiST indexes of a table.
func (m *Manager) ListSpatialIndexes(
	ctx context.Context,
	schemaName, table string,
) ([]IndexRecord, error) {
	rows, err := m.query(ctx, spatialIndexesQuery, schemaName, table)
	if err != nil {
		return nil, err
	}
	names := firstStrings(rows)
	res := make([]IndexRecord, len(names))
	for i, n := range names {
		res[i] = IndexRecord{Schema: schemaName, Name: n}
	}
	return res, nil
}

// columnMap returns live columns keyed by lower-cased name.
func (m *Manager) columnMap(
	ctx context.Context,
	schemaName, table string,
) (map[string]columnInfo, error) {
	rows, err := m.query(ctx, columnsQuery, tableName(schemaName, table).Sanitize())
	if err != nil {
		return nil, err
	}
	res := make(map[string]columnInfo, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		name, _ := row[0].(string)
		notNull, _ := row[1].(bool)
		res[strings.ToLower(name)] = columnInfo{name: name, notNull: notNull}
	}
	return res, nil
}

// FindCoordinateColumns returns the real names of the first right
// ascension and declination candidates present in the table. Matching
// ignores case. ok is false when either column is missing.
func (m *Manager) FindCoordinateColumns(
	ctx context.Context,
	schemaName, table string,
	raCandidates, decCandidates []string,
) (ra, dec string, ok bool, err error) {
	cols, err := m.columnMap(ctx, schemaName, table)
	if err != nil {
		return "", "", false, err
	}
	ra = pick(cols, raCandidates)
	dec = pick(cols, decCandidates)
	return ra, dec, ra != "" && dec != "", nil
}

func pick(cols map[string]columnInfo, candidates []string) string {
	for _, c := range candidates {
		if info, ok := cols[strings.ToLower(c)]; ok {
			return info.name
		}
	}
	return ""
}

func firstStrings(rows [][]any) []string {
	res := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if s, ok := row[0].(string); ok {
			res = append(res, s)
		}
	}
	return res
}
