package schema

import (
	"fmt"
	"strings"
)

// IndexKind selects an index generator.
type IndexKind string

const (
	// PgSphere is a GiST index over spoint(radians(ra), radians(dec)).
	PgSphere IndexKind = "pgsphere"
	// Q3C is a functional index over q3c_ang2ipix(ra, dec).
	Q3C IndexKind = "q3c"
	// Btree is a plain secondary index on one column.
	Btree IndexKind = "btree"
)

// ParseIndexKind converts a name to IndexKind.
func ParseIndexKind(s string) (IndexKind, bool) {
	switch IndexKind(strings.ToLower(strings.TrimSpace(s))) {
	case PgSphere, "pg_sphere":
		return PgSphere, true
	case Q3C:
		return Q3C, true
	case Btree:
		return Btree, true
	}
	return "", false
}

// SpatialIndexName returns the default name of a spatial index, for
// example mytable_ra_dec_pgsphere_idx.
func SpatialIndexName(kind IndexKind, table, ra, dec string) string {
	return IndexName(
		strings.ToLower(table), strings.ToLower(ra), strings.ToLower(dec),
		string(kind)+"_idx",
	)
}

// BtreeIndexName returns the default name of a btree index on column.
func BtreeIndexName(table, column string) string {
	return IndexName(strings.ToLower(table), strings.ToLower(column), "idx")
}

func createIndex(concurrently bool) string {
	if concurrently {
		return "CREATE INDEX CONCURRENTLY IF NOT EXISTS"
	}
	return "CREATE INDEX IF NOT EXISTS"
}

// PgSphereIndexSQL renders the GiST index over spherical points built from
// coordinates in degrees.
func PgSphereIndexSQL(
	t TableName,
	name, ra, dec string,
	concurrently bool,
) string {
	return fmt.Sprintf(
		"%s %s ON %s USING gist (spoint(radians(%s), radians(%s)))",
		createIndex(concurrently), Quote(name), t.Sanitize(), Quote(ra), Quote(dec),
	)
}

// Q3CIndexSQL renders the q3c pixelization functional index.
func Q3CIndexSQL(t TableName, name, ra, dec string, concurrently bool) string {
	return fmt.Sprintf(
		"%s %s ON %s (q3c_ang2ipix(%s, %s))",
		createIndex(concurrently), Quote(name), t.Sanitize(), Quote(ra), Quote(dec),
	)
}

// BtreeIndexSQL renders a btree index on one column.
func BtreeIndexSQL(t TableName, name, column string, concurrently bool) string {
	return fmt.Sprintf(
		"%s %s ON %s USING btree (%s)",
		createIndex(concurrently), Quote(name), t.Sanitize(), Quote(column),
	)
}

// DropIndexSQL renders DROP INDEX CONCURRENTLY IF EXISTS for a
// schema-qualified index.
func DropIndexSQL(schemaName, name string) string {
	idx := TableName{Schema: schemaName, Name: name}
	return "DROP INDEX CONCURRENTLY IF EXISTS " + idx.Sanitize()
}

// UniqueIndexSQL renders a concurrent unique index on one column.
func UniqueIndexSQL(t TableName, name, column string) string {
	return fmt.Sprintf("CREATE UNIQUE INDEX CONCURRENTLY %s ON %s (%s)",
		Quote(name), t.Sanitize(), Quote(column))
}

// AttachPrimaryKeySQL promotes an existing unique index to the primary key.
func AttachPrimaryKeySQL(t TableName, constraint, index string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY USING INDEX %s",
		t.Sanitize(), Quote(constraint), Quote(index))
}
