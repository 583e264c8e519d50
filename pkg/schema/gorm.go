package schema

import (
	"gorm.io/gorm"
)

// TapModels returns TAP_SCHEMA models for GORM AutoMigrate.
func TapModels() []any {
	return []any{
		&TapSchema{},
		&TapTable{},
		&TapColumn{},
	}
}

// MigrateTap creates TAP_SCHEMA and its tables if they are missing.
// Existing tables are left as they are apart from added columns.
func MigrateTap(db *gorm.DB) error {
	err := db.Exec("CREATE SCHEMA IF NOT EXISTS " + Quote(TapSchemaName)).Error
	if err != nil {
		return err
	}
	return db.AutoMigrate(TapModels()...)
}
