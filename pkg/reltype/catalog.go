package reltype

import (
	"strings"
)

// decision is one row of the catalog classification table.
type decision struct {
	tokens []string
	typ    RelType
}

// decisions are checked in order; the first row with a token present in
// the normalized type name wins.
var decisions = []decision{
	{[]string{"DOUBLE", "FLOAT8"}, Double},
	{[]string{"REAL", "FLOAT4", "FLOAT"}, Real},
	{[]string{"SMALLINT", "SHORT", "INT2"}, SmallInt},
	{[]string{"INTEGER", "INT4"}, Integer},
	{[]string{"LONG", "BIGINT", "INT8"}, BigInt},
	{[]string{"INT"}, BigInt},
	{[]string{"BOOL", "BOOLEAN"}, Bool},
	{[]string{"VARCHAR", "CHAR", "TEXT", "BPCHAR"}, Varchar},
}

// ClassifyCatalogType maps a type reported by information_schema.columns
// to a canonical type. For "ARRAY" data types the element is taken from
// udtName, which PostgreSQL prefixes with an underscore. The second
// result is false for types outside the table.
func ClassifyCatalogType(dataType, udtName string) (RelType, bool) {
	if strings.EqualFold(strings.TrimSpace(dataType), "ARRAY") {
		elem, ok := classify(strings.TrimPrefix(udtName, "_"))
		if !ok {
			return "", false
		}
		return elem.ArrayOf(), true
	}
	return classify(dataType)
}

func classify(name string) (RelType, bool) {
	tokens := normalize(name)
	if len(tokens) == 0 {
		return "", false
	}
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	for _, d := range decisions {
		for _, t := range d.tokens {
			if _, ok := set[t]; ok {
				return d.typ, true
			}
		}
	}
	return "", false
}

// normalize collapses character type spellings and splits the name into
// upper-case tokens.
func normalize(name string) []string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "character varying", "varchar")
	s = strings.ReplaceAll(s, "character", "char")
	s = strings.ToUpper(s)
	return strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ' ', '(', ')', ',', '[', ']':
			return true
		}
		return false
	})
}
