// Package iotap publishes loaded tables in TAP_SCHEMA, so a TAP service
// can expose them. It talks to PostgreSQL through GORM.
package iotap

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/astroinject/astroinject/pkg/reltype"
	"github.com/astroinject/astroinject/pkg/schema"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Registrar writes TAP_SCHEMA rows.
type Registrar struct {
	sqlDB  *sql.DB
	gormDB *gorm.DB
}

// Open connects GORM with the settings of an already connected loader.
func Open(connCfg *pgx.ConnConfig) (*Registrar, error) {
	sqlDB := stdlib.OpenDB(*connCfg)
	gormDB, err := gorm.Open(
		postgres.New(postgres.Config{Conn: sqlDB}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	if err != nil {
		_ = sqlDB.Close()
		return nil, ConnectionError(err)
	}
	return &Registrar{sqlDB: sqlDB, gormDB: gormDB}, nil
}

// Close releases the connection.
func (r *Registrar) Close() error {
	return r.sqlDB.Close()
}

// Register creates TAP_SCHEMA if needed and adds rows for the schema,
// the table and every field. Rows that are already present are kept
// untouched, so registering a table twice is harmless.
func (r *Registrar) Register(
	ctx context.Context,
	t schema.TableName,
	fields []reltype.Field,
) error {
	db := r.gormDB.WithContext(ctx)
	if err := schema.MigrateTap(db); err != nil {
		return MigrateError(err)
	}

	sch, tbl, cols := tapRows(t, fields)
	err := db.Transaction(func(tx *gorm.DB) error {
		skip := clause.OnConflict{DoNothing: true}
		if err := tx.Clauses(skip).Create(&sch).Error; err != nil {
			return err
		}
		if err := tx.Clauses(skip).Create(&tbl).Error; err != nil {
			return err
		}
		if len(cols) == 0 {
			return nil
		}
		return tx.Clauses(skip).Create(&cols).Error
	})
	if err != nil {
		return RegisterError(t.String(), err)
	}

	slog.Info("Table registered in TAP_SCHEMA",
		"table", t.String(), "columns", len(cols))
	return nil
}

// tapRows builds the rows that describe a table. Unqualified names
// belong to the public schema.
func tapRows(
	t schema.TableName,
	fields []reltype.Field,
) (schema.TapSchema, schema.TapTable, []schema.TapColumn) {
	schemaName := t.SchemaOr("public")
	full := schema.TableName{Schema: schemaName, Name: t.Name}

	cols := schema.TapColumns(full, fields)
	for i := range cols {
		idx := i + 1
		cols[i].ColumnIndex = &idx
	}

	return schema.TapSchema{SchemaName: schemaName},
		schema.TapTable{
			SchemaName: schemaName,
			Table:      full.String(),
			TableType:  "table",
		},
		cols
}
