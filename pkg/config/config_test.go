package config_test

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/astroinject/astroinject/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirs(t *testing.T) {
	tempHome := t.TempDir()

	tests := []struct {
		msg string
		fn  func(string) string
		res string
	}{
		{
			msg: "config dir",
			fn:  config.ConfigDir,
			res: filepath.Join(tempHome, ".config", "astroinject"),
		},
		{
			msg: "log dir",
			fn:  config.LogDir,
			res: filepath.Join(tempHome, ".local", "share", "astroinject", "logs"),
		},
		{
			msg: "config file",
			fn:  config.ConfigFilePath,
			res: filepath.Join(tempHome, ".config", "astroinject", "config.yaml"),
		},
	}

	for _, v := range tests {
		res := v.fn(tempHome)
		assert.Equal(t, v.res, res, v.msg)
	}
}

func TestNew(t *testing.T) {
	cfg := config.New()
	require.NotNil(t, cfg)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Empty(t, cfg.Database.DSN)

	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "file", cfg.Log.Destination)

	assert.Equal(t, "auto", cfg.Ingest.Format)
	assert.Equal(t, "*", cfg.Ingest.Pattern)
	assert.Equal(t, "text", cfg.Ingest.CopyFormat)
	assert.Nil(t, cfg.Ingest.FillValue)
	assert.False(t, cfg.Ingest.SkipConflicts)

	assert.Equal(t, "pgsphere", cfg.Index.Kind)
	assert.Equal(t, runtime.NumCPU(), cfg.JobsNumber)
}

func TestOptionDatabaseHost(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"sets valid host", "db.example.com", "db.example.com"},
		{"trims whitespace", "  db.example.com  ", "db.example.com"},
		{"ignores empty string", "", "localhost"},
		{"ignores whitespace-only", "   ", "localhost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			cfg.Update([]config.Option{config.OptDatabaseHost(tt.input)})
			assert.Equal(t, tt.expected, cfg.Database.Host)
		})
	}
}

func TestOptionDatabasePort(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"sets valid port", 6543, 6543},
		{"ignores zero", 0, 5432},
		{"ignores negative", -100, 5432},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			cfg.Update([]config.Option{config.OptDatabasePort(tt.input)})
			assert.Equal(t, tt.expected, cfg.Database.Port)
		})
	}
}

func TestOptionEnums(t *testing.T) {
	tests := []struct {
		name     string
		opt      config.Option
		get      func(*config.Config) string
		expected string
	}{
		{
			name:     "ssl mode normalizes case",
			opt:      config.OptDatabaseSSLMode("REQUIRE"),
			get:      func(c *config.Config) string { return c.Database.SSLMode },
			expected: "require",
		},
		{
			name:     "ssl mode ignores invalid",
			opt:      config.OptDatabaseSSLMode("invalid"),
			get:      func(c *config.Config) string { return c.Database.SSLMode },
			expected: "disable",
		},
		{
			name:     "log level debug",
			opt:      config.OptLogLevel("Debug"),
			get:      func(c *config.Config) string { return c.Log.Level },
			expected: "debug",
		},
		{
			name:     "log level ignores trace",
			opt:      config.OptLogLevel("trace"),
			get:      func(c *config.Config) string { return c.Log.Level },
			expected: "info",
		},
		{
			name:     "log destination stderr",
			opt:      config.OptLogDestination("stderr"),
			get:      func(c *config.Config) string { return c.Log.Destination },
			expected: "stderr",
		},
		{
			name:     "ingest format parquet",
			opt:      config.OptIngestFormat("PARQUET"),
			get:      func(c *config.Config) string { return c.Ingest.Format },
			expected: "parquet",
		},
		{
			name:     "ingest format ignores votable",
			opt:      config.OptIngestFormat("votable"),
			get:      func(c *config.Config) string { return c.Ingest.Format },
			expected: "auto",
		},
		{
			name:     "copy format csv",
			opt:      config.OptIngestCopyFormat("csv"),
			get:      func(c *config.Config) string { return c.Ingest.CopyFormat },
			expected: "csv",
		},
		{
			name:     "copy format ignores binary",
			opt:      config.OptIngestCopyFormat("binary"),
			get:      func(c *config.Config) string { return c.Ingest.CopyFormat },
			expected: "text",
		},
		{
			name:     "index kind q3c",
			opt:      config.OptIndexKind("q3c"),
			get:      func(c *config.Config) string { return c.Index.Kind },
			expected: "q3c",
		},
		{
			name:     "index kind ignores healpix",
			opt:      config.OptIndexKind("healpix"),
			get:      func(c *config.Config) string { return c.Index.Kind },
			expected: "pgsphere",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			cfg.Update([]config.Option{tt.opt})
			assert.Equal(t, tt.expected, tt.get(cfg))
		})
	}
}

func TestOptionJobsNumber(t *testing.T) {
	cfg := config.New()
	cfg.Update([]config.Option{config.OptJobsNumber(8)})
	assert.Equal(t, 8, cfg.JobsNumber)

	cfg.Update([]config.Option{config.OptJobsNumber(-5)})
	assert.Equal(t, 8, cfg.JobsNumber)
}

func TestOptionIngest(t *testing.T) {
	cfg := config.New()
	rename := map[string]string{"RA_ICRS": "ra"}
	cfg.Update([]config.Option{
		config.OptIngestTableName(" dr3.gaia "),
		config.OptIngestFolder("/data/gaia"),
		config.OptIngestPattern("*.csv.gz"),
		config.OptIngestIDCol("source_id"),
		config.OptIngestRenameColumns(rename),
		config.OptIngestDropColumns([]string{"a", " ", "b "}),
		config.OptIngestAddNullColumns(map[string]string{"flag": "SMALLINT"}),
		config.OptIngestFillValue(-99),
		config.OptIngestSkipConflicts(true),
		config.OptIngestProbePrimaryKey(true),
	})

	assert.Equal(t, "dr3.gaia", cfg.Ingest.TableName)
	assert.Equal(t, "/data/gaia", cfg.Ingest.Folder)
	assert.Equal(t, "*.csv.gz", cfg.Ingest.Pattern)
	assert.Equal(t, "source_id", cfg.Ingest.IDCol)
	assert.Equal(t, []string{"a", "b"}, cfg.Ingest.DropColumns)
	assert.Equal(t, "SMALLINT", cfg.Ingest.AddNullColumns["flag"])
	require.NotNil(t, cfg.Ingest.FillValue)
	assert.Equal(t, -99.0, *cfg.Ingest.FillValue)
	assert.True(t, cfg.Ingest.SkipConflicts)
	assert.True(t, cfg.Ingest.ProbePrimaryKey)

	rename["RA_ICRS"] = "changed"
	assert.Equal(t, "ra", cfg.Ingest.RenameColumns["RA_ICRS"])
}

func TestToOptions(t *testing.T) {
	src := config.New()
	src.Update([]config.Option{
		config.OptDatabaseHost("db"),
		config.OptDatabaseDSN("postgres://u:p@db/astro"),
		config.OptLogDestination("stdout"),
		config.OptJobsNumber(3),
		config.OptHomeDir("/home/astro"),
		config.OptIngestTableName("sky.obj"),
		config.OptIngestFormat("fits"),
		config.OptIngestFillValue(0),
		config.OptIngestForceCastCorrection(true),
		config.OptIndexRACol("ra"),
		config.OptIndexDecCol("dec"),
		config.OptIndexBtreeColumns([]string{"mag"}),
		config.OptIndexConcurrently(true),
	})

	dst := config.New()
	dst.Update(src.ToOptions())

	assert.Equal(t, "db", dst.Database.Host)
	assert.Equal(t, "postgres://u:p@db/astro", dst.Database.DSN)
	assert.Equal(t, "stdout", dst.Log.Destination)
	assert.Equal(t, 3, dst.JobsNumber)
	assert.Equal(t, "sky.obj", dst.Ingest.TableName)
	assert.Equal(t, "fits", dst.Ingest.Format)
	require.NotNil(t, dst.Ingest.FillValue)
	assert.Equal(t, 0.0, *dst.Ingest.FillValue)
	assert.True(t, dst.Ingest.ForceCastCorrection)
	assert.Equal(t, "ra", dst.Index.RACol)
	assert.Equal(t, "dec", dst.Index.DecCol)
	assert.Equal(t, []string{"mag"}, dst.Index.BtreeColumns)
	assert.True(t, dst.Index.Concurrently)

	// runtime-only
	assert.Empty(t, dst.HomeDir)
}
