// Package config provides configuration management for astroinject.
//
// This package has no I/O dependencies (no file operations, no network calls).
// Validation functions may write user-facing warnings via gn.Warn().
//
// # Configuration Sources
//
// Precedence (highest to lowest): CLI flags > env vars > table config file >
// base config file > config.yaml > defaults
//
// The base config file (-b) usually carries database and log settings that
// are shared by many catalogs. The table config file (-c) describes one
// catalog: destination table, input files, preprocessing and indexes.
//
// # Design Principles
//
// - Default config (from New()) is always valid - no validation needed
// - All mutations go through Option functions - the only way to modify Config
// - Invalid options are rejected with gn.Warn() - config remains in valid state
// - ToOptions() converts persistent fields (those in config files)
// - Environment variables match ToOptions() fields
//
// # Persistent vs Runtime Fields
//
// Persistent fields (in ToOptions, config files, and env vars):
//   - Database: host, port, user, password, database, ssl_mode, dsn
//   - Log: level, format, destination
//   - Ingest: tablename, folder, pattern, format, id_col, rename_columns,
//     drop_columns, add_null_columns, fill_value, force_cast_correction,
//     probe_primary_key, skip_conflicts, copy_format, ledger
//   - Index: kind, ra_col, dec_col, btree_columns, concurrently
//   - General: jobs_number
//
// Runtime-only fields:
//   - HomeDir (set once at startup)
//
// # Environment Variables
//
// Use ASTROINJECT_ prefix with underscores for nesting:
//
//	ASTROINJECT_DATABASE_HOST=localhost
//	ASTROINJECT_DATABASE_PORT=5432
//	ASTROINJECT_LOG_LEVEL=info
//	ASTROINJECT_JOBS_NUMBER=8
package config

import (
	"runtime"
)

// Config represents the complete astroinject configuration.
type Config struct {
	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`

	// Log contains logging settings.
	Log LogConfig `mapstructure:"log" yaml:"log"`

	// Ingest describes the catalog files and how they are loaded.
	Ingest IngestConfig `mapstructure:"ingest" yaml:"ingest"`

	// Index describes indexes created after loading.
	Index IndexConfig `mapstructure:"index" yaml:"index"`

	// JobsNumber is the size of the ingestion worker pool. Every worker
	// holds its own database connection.
	JobsNumber int `mapstructure:"jobs_number" yaml:"jobs_number"`

	// HomeDir determines where config and logs directories reside.
	// It must be set by CLI during init, there is no default value for it.
	HomeDir string `mapstructure:"-" yaml:"-"`
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname or IP address.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the PostgreSQL server port number.
	Port int `mapstructure:"port" yaml:"port"`

	// User is the PostgreSQL database username.
	User string `mapstructure:"user" yaml:"user"`

	// Password is the PostgreSQL database password.
	Password string `mapstructure:"password" yaml:"password"`

	// Database is the PostgreSQL database name to connect to.
	Database string `mapstructure:"database" yaml:"database"`

	// SSLMode specifies the SSL connection mode.
	// Valid values: "disable", "require", "verify-ca", "verify-full"
	SSLMode string `mapstructure:"ssl_mode" yaml:"ssl_mode"`

	// DSN is a full connection string. When set it takes precedence over
	// the separate fields.
	DSN string `mapstructure:"dsn" yaml:"dsn,omitempty"`
}

// LogConfig provides typical settings for application logs.
type LogConfig struct {
	// Format can be 'json' or 'text'.
	Format string `mapstructure:"format"      yaml:"format"`
	// Level of logging -- 'error', 'warn', 'info', 'debug'
	Level string `mapstructure:"level"       yaml:"level"`
	// Destination can be a log file (to default place), stderr or stdout.
	Destination string `mapstructure:"destination" yaml:"destination"`
}

// IngestConfig describes one catalog load.
type IngestConfig struct {
	// TableName is the destination table, optionally schema-qualified.
	TableName string `mapstructure:"tablename" yaml:"tablename"`

	// Folder is searched recursively for input files.
	Folder string `mapstructure:"folder" yaml:"folder"`

	// Pattern is a shell glob matched against file names, e.g. "*.fits".
	Pattern string `mapstructure:"pattern" yaml:"pattern"`

	// Format of input files: fits, csv, csv_delimwhites, parquet, gaia
	// or auto (guess from the file extension).
	Format string `mapstructure:"format" yaml:"format"`

	// IDCol is the primary key column. Empty means no primary key, no
	// first-row key check and no conflict skipping.
	IDCol string `mapstructure:"id_col" yaml:"id_col"`

	// RenameColumns maps source column names to destination names.
	RenameColumns map[string]string `mapstructure:"rename_columns" yaml:"rename_columns,omitempty"`

	// DropColumns are removed before loading.
	DropColumns []string `mapstructure:"drop_columns" yaml:"drop_columns,omitempty"`

	// AddNullColumns maps names of columns to add to their type. Added
	// columns contain only NULLs.
	AddNullColumns map[string]string `mapstructure:"add_null_columns" yaml:"add_null_columns,omitempty"`

	// FillValue replaces missing numeric values when set.
	FillValue *float64 `mapstructure:"fill_value" yaml:"fill_value,omitempty"`

	// ForceCastCorrection casts every file to the column types of the
	// existing destination table.
	ForceCastCorrection bool `mapstructure:"force_cast_correction" yaml:"force_cast_correction"`

	// ProbePrimaryKey skips a file when the primary key of its first row
	// is already in the table.
	ProbePrimaryKey bool `mapstructure:"probe_primary_key" yaml:"probe_primary_key"`

	// SkipConflicts loads through a staging table and drops rows whose
	// primary key already exists.
	SkipConflicts bool `mapstructure:"skip_conflicts" yaml:"skip_conflicts"`

	// CopyFormat is the COPY wire format: text or csv.
	CopyFormat string `mapstructure:"copy_format" yaml:"copy_format"`

	// Ledger is a path to an SQLite file that records loaded files.
	// Empty disables the ledger.
	Ledger string `mapstructure:"ledger" yaml:"ledger,omitempty"`
}

// IndexConfig describes indexes created after a load.
type IndexConfig struct {
	// Kind of the spatial index: pgsphere or q3c.
	Kind string `mapstructure:"kind" yaml:"kind"`

	// RACol is the right ascension column, in degrees.
	RACol string `mapstructure:"ra_col" yaml:"ra_col"`

	// DecCol is the declination column, in degrees.
	DecCol string `mapstructure:"dec_col" yaml:"dec_col"`

	// BtreeColumns receive plain btree indexes.
	BtreeColumns []string `mapstructure:"btree_columns" yaml:"btree_columns,omitempty"`

	// Concurrently builds indexes without locking writes.
	Concurrently bool `mapstructure:"concurrently" yaml:"concurrently"`
}

// New creates a Config with sensible default values.
// The returned config is always valid and ready to use.
// Default values can be overridden using Option functions via Update().
func New() *Config {
	res := &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "postgres",
			Database: "astro",
			SSLMode:  "disable",
		},
		Log: LogConfig{
			Format:      "json",
			Level:       "info",
			Destination: "file",
		},
		Ingest: IngestConfig{
			Pattern:    "*",
			Format:     "auto",
			CopyFormat: "text",
		},
		Index: IndexConfig{
			Kind: "pgsphere",
		},
		JobsNumber: runtime.NumCPU(),
	}

	return res
}
