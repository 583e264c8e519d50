package config

import (
	"maps"
	"strings"
)

// Option is a function that modifies a Config.
// Options validate inputs and reject invalid values with warnings.
type Option func(*Config)

// OptDatabaseHost sets the PostgreSQL server hostname or IP address.
func OptDatabaseHost(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database Host", s) {
			c.Database.Host = s
		}
	}
}

// OptDatabasePort sets the PostgreSQL server port number.
func OptDatabasePort(i int) Option {
	return func(c *Config) {
		if isValidInt("Database Port", i) {
			c.Database.Port = i
		}
	}
}

// OptDatabaseUser sets the PostgreSQL database username.
func OptDatabaseUser(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database User", s) {
			c.Database.User = s
		}
	}
}

// OptDatabasePassword sets the PostgreSQL database password.
func OptDatabasePassword(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database Password", s) {
			c.Database.Password = s
		}
	}
}

// OptDatabaseDatabase sets the PostgreSQL database name to connect to.
func OptDatabaseDatabase(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database Name", s) {
			c.Database.Database = s
		}
	}
}

// OptDatabaseSSLMode sets the SSL connection mode.
// Valid values: "disable", "require", "verify-ca", "verify-full".
func OptDatabaseSSLMode(s string) Option {
	s = strings.ToLower(strings.TrimSpace(s))
	return func(c *Config) {
		if isValidEnum("Database.SSLMode", s) {
			c.Database.SSLMode = s
		}
	}
}

// OptDatabaseDSN sets a full connection string that overrides the
// separate connection fields.
func OptDatabaseDSN(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database DSN", s) {
			c.Database.DSN = s
		}
	}
}

// OptLogLevel sets the logging level.
// Valid values: "debug", "info", "warn", "error".
func OptLogLevel(s string) Option {
	s = strings.ToLower(strings.TrimSpace(s))
	return func(c *Config) {
		if isValidEnum("Log.Level", s) {
			c.Log.Level = s
		}
	}
}

// OptLogFormat sets the log output format.
// Valid values: "json", "text".
func OptLogFormat(s string) Option {
	s = strings.ToLower(strings.TrimSpace(s))
	return func(c *Config) {
		if isValidEnum("Log.Format", s) {
			c.Log.Format = s
		}
	}
}

// OptLogDestination sets where logs are written.
// Valid values: "file", "stderr", "stdout".
func OptLogDestination(s string) Option {
	s = strings.ToLower(strings.TrimSpace(s))
	return func(c *Config) {
		if isValidEnum("Log.Destination", s) {
			c.Log.Destination = s
		}
	}
}

// OptJobsNumber sets the size of the ingestion worker pool.
// Default is runtime.NumCPU().
func OptJobsNumber(i int) Option {
	return func(c *Config) {
		if isValidInt("Jobs Number", i) {
			c.JobsNumber = i
		}
	}
}

// OptHomeDir sets the home directory for config and log locations.
// Set once at startup from os.UserHomeDir().
// Runtime-only field - not in ToOptions().
func OptHomeDir(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Home Directory", s) {
			c.HomeDir = s
		}
	}
}

// OptIngestTableName sets the destination table, e.g. "gaia.dr3".
func OptIngestTableName(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Ingest Table Name", s) {
			c.Ingest.TableName = s
		}
	}
}

// OptIngestFolder sets the folder searched for input files.
func OptIngestFolder(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Ingest Folder", s) {
			c.Ingest.Folder = s
		}
	}
}

// OptIngestPattern sets the glob pattern for input file names.
func OptIngestPattern(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Ingest Pattern", s) {
			c.Ingest.Pattern = s
		}
	}
}

// OptIngestFormat sets the input file format.
// Valid values: "auto", "fits", "csv", "csv_delimwhites", "parquet", "gaia".
func OptIngestFormat(s string) Option {
	s = strings.ToLower(strings.TrimSpace(s))
	return func(c *Config) {
		if isValidEnum("Ingest.Format", s) {
			c.Ingest.Format = s
		}
	}
}

// OptIngestIDCol sets the primary key column.
func OptIngestIDCol(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Ingest ID Column", s) {
			c.Ingest.IDCol = s
		}
	}
}

// OptIngestRenameColumns sets source to destination column renames.
func OptIngestRenameColumns(m map[string]string) Option {
	return func(c *Config) {
		if len(m) > 0 {
			c.Ingest.RenameColumns = maps.Clone(m)
		}
	}
}

// OptIngestDropColumns sets columns removed before loading.
func OptIngestDropColumns(ss []string) Option {
	ss = cleanList(ss)
	return func(c *Config) {
		if len(ss) > 0 {
			c.Ingest.DropColumns = ss
		}
	}
}

// OptIngestAddNullColumns sets columns added with NULL values. Keys are
// column names, values are relational types such as "REAL" or "TEXT[]".
func OptIngestAddNullColumns(m map[string]string) Option {
	return func(c *Config) {
		if len(m) > 0 {
			c.Ingest.AddNullColumns = maps.Clone(m)
		}
	}
}

// OptIngestFillValue sets a replacement for missing numeric values.
func OptIngestFillValue(f float64) Option {
	return func(c *Config) {
		c.Ingest.FillValue = &f
	}
}

// OptIngestForceCastCorrection enables casting of every file to the
// types of the destination table.
func OptIngestForceCastCorrection(b bool) Option {
	return func(c *Config) {
		c.Ingest.ForceCastCorrection = b
	}
}

// OptIngestProbePrimaryKey enables skipping files whose first row is
// already loaded.
func OptIngestProbePrimaryKey(b bool) Option {
	return func(c *Config) {
		c.Ingest.ProbePrimaryKey = b
	}
}

// OptIngestSkipConflicts enables row-level conflict skipping on the
// primary key.
func OptIngestSkipConflicts(b bool) Option {
	return func(c *Config) {
		c.Ingest.SkipConflicts = b
	}
}

// OptIngestCopyFormat sets the COPY wire format.
// Valid values: "text", "csv".
func OptIngestCopyFormat(s string) Option {
	s = strings.ToLower(strings.TrimSpace(s))
	return func(c *Config) {
		if isValidEnum("Ingest.CopyFormat", s) {
			c.Ingest.CopyFormat = s
		}
	}
}

// OptIngestLedger sets the path of the SQLite file ledger.
func OptIngestLedger(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Ingest Ledger", s) {
			c.Ingest.Ledger = s
		}
	}
}

// OptIndexKind sets the spatial index kind.
// Valid values: "pgsphere", "q3c".
func OptIndexKind(s string) Option {
	s = strings.ToLower(strings.TrimSpace(s))
	return func(c *Config) {
		if isValidEnum("Index.Kind", s) {
			c.Index.Kind = s
		}
	}
}

// OptIndexRACol sets the right ascension column.
func OptIndexRACol(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Index RA Column", s) {
			c.Index.RACol = s
		}
	}
}

// OptIndexDecCol sets the declination column.
func OptIndexDecCol(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Index Dec Column", s) {
			c.Index.DecCol = s
		}
	}
}

// OptIndexBtreeColumns sets columns that receive btree indexes.
func OptIndexBtreeColumns(ss []string) Option {
	ss = cleanList(ss)
	return func(c *Config) {
		if len(ss) > 0 {
			c.Index.BtreeColumns = ss
		}
	}
}

// OptIndexConcurrently makes index builds non-blocking for writers.
func OptIndexConcurrently(b bool) Option {
	return func(c *Config) {
		c.Index.Concurrently = b
	}
}

func cleanList(ss []string) []string {
	var res []string
	for _, s := range ss {
		s = strings.TrimSpace(s)
		if s != "" {
			res = append(res, s)
		}
	}
	return res
}
