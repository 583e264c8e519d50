// Package iocatalog reads column types of an existing table from the
// database catalog.
package iocatalog

import (
	"context"
	"log/slog"

	"github.com/astroinject/astroinject/pkg/db"
	"github.com/astroinject/astroinject/pkg/reltype"
	"github.com/astroinject/astroinject/pkg/schema"
)

const columnsQuery = `
SELECT column_name, data_type, udt_name
FROM   information_schema.columns
WHERE  table_schema = coalesce(nullif($1, ''), current_schema())
  AND  table_name = $2
ORDER  BY ordinal_position`

// FieldsFromCatalog returns columns of the table in ordinal order with
// their canonical types. Columns with types outside the decision table
// are logged as critical and left out.
func FieldsFromCatalog(
	ctx context.Context,
	exec db.Executor,
	t schema.TableName,
) ([]reltype.Field, error) {
	res, err := exec.ExecuteOutsideTransaction(
		ctx, columnsQuery, []any{t.Schema, t.Name}, true,
	)
	if err != nil {
		return nil, CatalogQueryError(t.String(), err)
	}

	fields := make([]reltype.Field, 0, len(res.Rows))
	for _, row := range res.Rows {
		if len(row) < 3 {
			continue
		}
		name, _ := row[0].(string)
		dataType, _ := row[1].(string)
		udtName, _ := row[2].(string)

		rt, ok := reltype.ClassifyCatalogType(dataType, udtName)
		if !ok {
			slog.Error("Unrecognized column type, column will not be cast",
				"severity", "critical",
				"table", t.String(),
				"column", name,
				"data_type", dataType,
				"udt_name", udtName,
			)
			continue
		}
		fields = append(fields, reltype.Field{Name: name, Type: rt})
	}
	return fields, nil
}

// BuildTypeMapFromCatalog returns the canonical type of every column of
// the table keyed by lower-cased name. Columns with unrecognized types
// are not in the map, so they are not cast later.
func BuildTypeMapFromCatalog(
	ctx context.Context,
	exec db.Executor,
	t schema.TableName,
) (reltype.TypeMap, error) {
	fields, err := FieldsFromCatalog(ctx, exec, t)
	if err != nil {
		return nil, err
	}
	tm := reltype.NewTypeMap(fields)
	slog.Info("Type map built from catalog",
		"table", t.String(), "columns", len(tm))
	return tm, nil
}
