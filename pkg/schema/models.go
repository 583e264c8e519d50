// Package schema describes destination tables and the statements that
// create them and their indexes. It also holds the TAP_SCHEMA models used
// to publish loaded tables to a TAP service.
//
// Every identifier that reaches SQL goes through pgx.Identifier, so
// names read back from the catalog can be passed forward into DDL.
package schema

import (
	"strings"

	"github.com/astroinject/astroinject/pkg/reltype"
)

// TapSchemaName is the schema that holds TAP metadata tables.
const TapSchemaName = "TAP_SCHEMA"

// TapSchema is a row of TAP_SCHEMA.schemas.
type TapSchema struct {
	SchemaName  string  `gorm:"column:schema_name;primaryKey"`
	Utype       *string `gorm:"column:utype"`
	Description *string `gorm:"column:description"`
	SchemaIndex *int    `gorm:"column:schema_index"`
}

// TableName is used by GORM.
func (TapSchema) TableName() string {
	return TapSchemaName + ".schemas"
}

// TapTable is a row of TAP_SCHEMA.tables.
type TapTable struct {
	SchemaName  string  `gorm:"column:schema_name"`
	Table       string  `gorm:"column:table_name;primaryKey"`
	TableType   string  `gorm:"column:table_type"`
	Utype       *string `gorm:"column:utype"`
	Description *string `gorm:"column:description"`
	TableIndex  *int    `gorm:"column:table_index"`
}

// TableName is used by GORM.
func (TapTable) TableName() string {
	return TapSchemaName + ".tables"
}

// TapColumn is a row of TAP_SCHEMA.columns.
type TapColumn struct {
	Table       string  `gorm:"column:table_name;primaryKey"`
	ColumnName  string  `gorm:"column:column_name;primaryKey"`
	Description *string `gorm:"column:description"`
	Unit        *string `gorm:"column:unit"`
	UCD         *string `gorm:"column:ucd"`
	Utype       *string `gorm:"column:utype"`
	Datatype    string  `gorm:"column:datatype"`
	Size        int     `gorm:"column:size"`
	Principal   int     `gorm:"column:principal"`
	Indexed     int     `gorm:"column:indexed"`
	Std         int     `gorm:"column:std"`
	ColumnIndex *int    `gorm:"column:column_index"`
}

// TableName is used by GORM.
func (TapColumn) TableName() string {
	return TapSchemaName + ".columns"
}

// principalColumns are flagged as principal in TAP_SCHEMA.columns.
var principalColumns = map[string]struct{}{
	"id": {}, "ra": {}, "dec": {},
}

// TapColumns builds TAP_SCHEMA.columns rows for a table from its fields.
// The TAP table name is the schema-qualified name.
func TapColumns(t TableName, fields []reltype.Field) []TapColumn {
	desc := "description"
	res := make([]TapColumn, 0, len(fields))
	for _, f := range fields {
		var principal int
		if _, ok := principalColumns[strings.ToLower(f.Name)]; ok {
			principal = 1
		}
		res = append(res, TapColumn{
			Table:       t.String(),
			ColumnName:  f.Name,
			Description: &desc,
			Datatype:    tapDatatype(f.Type),
			Size:        -1,
			Principal:   principal,
			Std:         1,
		})
	}
	return res
}

// tapDatatype returns the TAP datatype name for a relational type.
func tapDatatype(r reltype.RelType) string {
	if r.IsArray() {
		return string(r.Elem()) + "[]"
	}
	return string(r)
}
