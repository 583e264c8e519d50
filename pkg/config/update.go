package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/gnames/gn"
)

// Update applies a slice of Option functions to the Config.
// This is the only way to modify a Config after creation.
// Invalid options are rejected with warnings - config remains in valid state.
func (c *Config) Update(opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// ToOptions converts the Config to a slice of Option functions.
// Only includes persistent fields appropriate for config files.
// Excludes runtime-only fields (HomeDir).
func (c *Config) ToOptions() []Option {
	var res []Option
	res = append(res, c.databaseOptions()...)

	if s := c.Log.Format; s != "" {
		res = append(res, OptLogFormat(s))
	}
	if s := c.Log.Level; s != "" {
		res = append(res, OptLogLevel(s))
	}
	if s := c.Log.Destination; s != "" {
		res = append(res, OptLogDestination(s))
	}

	if i := c.JobsNumber; i > 0 {
		res = append(res, OptJobsNumber(i))
	}

	res = append(res, c.ingestOptions()...)
	res = append(res, c.indexOptions()...)
	return res
}

func (c *Config) databaseOptions() []Option {
	var res []Option
	d := c.Database
	if d.Host != "" {
		res = append(res, OptDatabaseHost(d.Host))
	}
	if d.Port > 0 {
		res = append(res, OptDatabasePort(d.Port))
	}
	if d.User != "" {
		res = append(res, OptDatabaseUser(d.User))
	}
	if d.Password != "" {
		res = append(res, OptDatabasePassword(d.Password))
	}
	if d.Database != "" {
		res = append(res, OptDatabaseDatabase(d.Database))
	}
	if d.SSLMode != "" {
		res = append(res, OptDatabaseSSLMode(d.SSLMode))
	}
	if d.DSN != "" {
		res = append(res, OptDatabaseDSN(d.DSN))
	}
	return res
}

func (c *Config) ingestOptions() []Option {
	var res []Option
	in := c.Ingest
	if in.TableName != "" {
		res = append(res, OptIngestTableName(in.TableName))
	}
	if in.Folder != "" {
		res = append(res, OptIngestFolder(in.Folder))
	}
	if in.Pattern != "" {
		res = append(res, OptIngestPattern(in.Pattern))
	}
	if in.Format != "" {
		res = append(res, OptIngestFormat(in.Format))
	}
	if in.IDCol != "" {
		res = append(res, OptIngestIDCol(in.IDCol))
	}
	if len(in.RenameColumns) > 0 {
		res = append(res, OptIngestRenameColumns(in.RenameColumns))
	}
	if len(in.DropColumns) > 0 {
		res = append(res, OptIngestDropColumns(in.DropColumns))
	}
	if len(in.AddNullColumns) > 0 {
		res = append(res, OptIngestAddNullColumns(in.AddNullColumns))
	}
	if in.FillValue != nil {
		res = append(res, OptIngestFillValue(*in.FillValue))
	}
	if in.CopyFormat != "" {
		res = append(res, OptIngestCopyFormat(in.CopyFormat))
	}
	if in.Ledger != "" {
		res = append(res, OptIngestLedger(in.Ledger))
	}
	res = append(res,
		OptIngestForceCastCorrection(in.ForceCastCorrection),
		OptIngestProbePrimaryKey(in.ProbePrimaryKey),
		OptIngestSkipConflicts(in.SkipConflicts),
	)
	return res
}

func (c *Config) indexOptions() []Option {
	var res []Option
	ix := c.Index
	if ix.Kind != "" {
		res = append(res, OptIndexKind(ix.Kind))
	}
	if ix.RACol != "" {
		res = append(res, OptIndexRACol(ix.RACol))
	}
	if ix.DecCol != "" {
		res = append(res, OptIndexDecCol(ix.DecCol))
	}
	if len(ix.BtreeColumns) > 0 {
		res = append(res, OptIndexBtreeColumns(ix.BtreeColumns))
	}
	res = append(res, OptIndexConcurrently(ix.Concurrently))
	return res
}

func isValidString(name, s string) bool {
	res := s != ""
	if !res {
		gn.Warn("<em>%s</em> cannot be empty, ignoring", name)
	}
	return res
}

func isValidInt(name string, i int) bool {
	res := i > 0
	if !res {
		gn.Warn("<em>%s</em> has to be positive number, ignoring %d", name, i)
	}
	return res
}

var enums = func() map[string]map[string]struct{} {
	s := struct{}{}
	return map[string]map[string]struct{}{
		"Database.SSLMode": {"disable": s, "require": s,
			"verify-ca": s, "verify-full": s},
		"Log.Level":       {"debug": s, "info": s, "warn": s, "error": s},
		"Log.Format":      {"json": s, "text": s},
		"Log.Destination": {"file": s, "stderr": s, "stdout": s},
		"Ingest.Format": {"auto": s, "fits": s, "csv": s,
			"csv_delimwhites": s, "parquet": s, "gaia": s},
		"Ingest.CopyFormat": {"text": s, "csv": s},
		"Index.Kind":        {"pgsphere": s, "q3c": s},
	}
}()

func isValidEnum(name, val string) bool {
	if _, ok := enums[name][val]; ok {
		return true
	}

	vals := slices.Sorted(maps.Keys(enums[name]))
	var lines []string
	for _, v := range vals {
		lines = append(lines, fmt.Sprintf("  * %s", v))
	}
	gn.Warn(
		"<em>%s</em> does not support '%s' as a value. "+
			"Valid values are: \n%s\nIgnoring...",
		name, val, strings.Join(lines, "\n"),
	)
	return false
}
