// Package ioconfig reads config files and environment variables into a
// config.Config.
package ioconfig

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/astroinject/astroinject/pkg/config"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override config
// files.
const EnvPrefix = "ASTROINJECT"

// Load merges configuration sources and returns a valid Config. Later
// sources override earlier ones:
//
//   - config.yaml in the config directory of homeDir (skipped if missing)
//   - the base config file (skipped if basePath is empty)
//   - the table config file (skipped if tablePath is empty)
//   - ASTROINJECT_* environment variables
//
// Values pass through config Option functions, so invalid ones are
// reported and replaced by defaults. Keys are case-insensitive, so
// rename_columns and add_null_columns keys come back lower-cased.
func Load(homeDir, basePath, tablePath string) (*config.Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	initEnvVars(v)

	mainPath := config.ConfigFilePath(homeDir)
	if _, err := os.Stat(mainPath); err == nil {
		v.SetConfigFile(mainPath)
		if err = v.ReadInConfig(); err != nil {
			return nil, ReadError(mainPath, err)
		}
	}

	for _, path := range []string{basePath, tablePath} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return nil, ReadError(path, err)
		}
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, ReadError(path, err)
		}
		slog.Info("Config file merged", "path", path)
	}

	var raw config.Config
	if err := v.Unmarshal(&raw); err != nil {
		return nil, ReadError(v.ConfigFileUsed(), err)
	}

	cfg := config.New()
	cfg.Update(raw.ToOptions())
	cfg.Update([]config.Option{config.OptHomeDir(homeDir)})
	return cfg, nil
}

// initEnvVars binds the environment variables that may override config
// files. They are listed one by one to make it clear which ones exist.
// Map settings (rename_columns, add_null_columns) are file-only.
func initEnvVars(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	keys := []string{
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.database",
		"database.ssl_mode",
		"database.dsn",

		"log.level",
		"log.format",
		"log.destination",

		"jobs_number",

		"ingest.tablename",
		"ingest.folder",
		"ingest.pattern",
		"ingest.format",
		"ingest.id_col",
		"ingest.drop_columns",
		"ingest.fill_value",
		"ingest.force_cast_correction",
		"ingest.probe_primary_key",
		"ingest.skip_conflicts",
		"ingest.copy_format",
		"ingest.ledger",

		"index.kind",
		"index.ra_col",
		"index.dec_col",
		"index.btree_columns",
		"index.concurrently",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

// CheckIngest reports the first setting an ingestion run cannot do
// without.
func CheckIngest(cfg *config.Config) error {
	switch {
	case cfg.Ingest.TableName == "":
		return MissingFieldError("ingest.tablename")
	case cfg.Ingest.Folder == "":
		return MissingFieldError("ingest.folder")
	}
	return nil
}
