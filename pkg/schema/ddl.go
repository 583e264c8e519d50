package schema

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/astroinject/astroinject/pkg/reltype"
	"github.com/jackc/pgx/v5"
)

// MaxIdentifierLen is the PostgreSQL identifier length limit (NAMEDATALEN-1).
const MaxIdentifierLen = 63

// TableName is an optionally schema-qualified table name.
type TableName struct {
	Schema string
	Name   string
}

// ParseTableName splits "schema.table" on the first dot. A name without
// a dot has an empty Schema and resolves through search_path.
func ParseTableName(s string) TableName {
	s = strings.TrimSpace(s)
	if sch, name, ok := strings.Cut(s, "."); ok {
		return TableName{Schema: strings.TrimSpace(sch), Name: strings.TrimSpace(name)}
	}
	return TableName{Name: s}
}

// Ident returns the name as a pgx identifier.
func (t TableName) Ident() pgx.Identifier {
	if t.Schema == "" {
		return pgx.Identifier{t.Name}
	}
	return pgx.Identifier{t.Schema, t.Name}
}

// Sanitize returns the quoted name, safe to interpolate into SQL.
func (t TableName) Sanitize() string {
	return t.Ident().Sanitize()
}

// SchemaOr returns the schema or def if none was given.
func (t TableName) SchemaOr(def string) string {
	if t.Schema == "" {
		return def
	}
	return t.Schema
}

func (t TableName) String() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// Quote quotes a single identifier.
func Quote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// QuoteList quotes identifiers and joins them with commas.
func QuoteList(names []string) string {
	res := make([]string, len(names))
	for i, n := range names {
		res[i] = Quote(n)
	}
	return strings.Join(res, ", ")
}

// TableDef describes a destination table.
type TableDef struct {
	Name       TableName
	Columns    []reltype.Field
	PrimaryKey string
}

// CreateTableSQL renders CREATE TABLE IF NOT EXISTS for def. The primary
// key column is matched case-insensitively; every other column is
// nullable.
func CreateTableSQL(def TableDef) string {
	cols := make([]string, len(def.Columns))
	for i, c := range def.Columns {
		constraint := "NULL"
		if def.PrimaryKey != "" && strings.EqualFold(def.PrimaryKey, c.Name) {
			constraint = "PRIMARY KEY"
		}
		cols[i] = fmt.Sprintf("    %s %s %s", Quote(c.Name), c.Type.DDL(), constraint)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)",
		def.Name.Sanitize(), strings.Join(cols, ",\n"))
}

// VacuumAnalyzeSQL renders VACUUM ANALYZE for a table.
func VacuumAnalyzeSQL(t TableName) string {
	return "VACUUM ANALYZE " + t.Sanitize()
}

// IndexName joins parts with underscores and truncates the result to the
// identifier limit. The last part is kept intact so that names with a
// distinguishing suffix stay distinct after truncation.
func IndexName(parts ...string) string {
	if len(parts) == 0 {
		return ""
	}
	suffix := parts[len(parts)-1]
	base := strings.Join(parts[:len(parts)-1], "_")
	if base == "" {
		return truncate(suffix, MaxIdentifierLen)
	}
	limit := MaxIdentifierLen - len(suffix) - 1
	if limit < 1 {
		return truncate(base+"_"+suffix, MaxIdentifierLen)
	}
	return truncate(base, limit) + "_" + suffix
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
