/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/astroinject/astroinject/internal/ioconfig"
	"github.com/astroinject/astroinject/internal/iofs"
	"github.com/astroinject/astroinject/internal/iologger"
	app "github.com/astroinject/astroinject/pkg"
	"github.com/astroinject/astroinject/pkg/config"
	"github.com/gnames/gn"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	homeDir   string
	baseFile  string
	tableFile string
	cfg       *config.Config
	// logToFile is true when logs do not go to the terminal.
	logToFile bool
)

// getRootCmd returns the root command with all subcommands attached.
// Every call creates a new command tree.
func getRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Version: fmt.Sprintf("version: %s\nbuild:   %s", app.Version, app.Build),
		Use:     "astroinject",
		Short:   "Loads astronomical catalogs into PostgreSQL",
		Long: `astroinject loads astronomical catalogs into PostgreSQL and
manages their spatial indexes.

Commands:
  ingest        load FITS, CSV, Parquet or Gaia ECSV files into one table
  index         create pgsphere, q3c or btree indexes on one table
  index-schema  create, recreate or drop spatial indexes of a whole schema
  map-tap       register a loaded table in TAP_SCHEMA

Configuration precedence (highest to lowest):
  1. CLI flags
  2. Environment variables (ASTROINJECT_*)
  3. Table config file (-c)
  4. Base config file (-b)
  5. ~/.config/astroinject/config.yaml
  6. Built-in defaults

Environment variables use underscores for nesting:
  ASTROINJECT_DATABASE_HOST     PostgreSQL host
  ASTROINJECT_DATABASE_DSN      full PostgreSQL connection string
  ASTROINJECT_LOG_DESTINATION   file, stdout or stderr
  ASTROINJECT_JOBS_NUMBER       number of parallel workers`,
		PersistentPreRunE: bootstrap,
		RunE:              runRoot,
		SilenceErrors:     true,
		SilenceUsage:      true,
	}

	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.Flags().BoolP("version", "V", false, "version for astroinject")

	rootCmd.PersistentFlags().StringVarP(&baseFile, "base", "b", "",
		"base config file (database and log settings)")
	rootCmd.PersistentFlags().StringVarP(&tableFile, "config", "c", "",
		"table config file (catalog, preprocessing and indexes)")

	rootCmd.AddCommand(
		getIngestCmd(),
		getIndexCmd(),
		getIndexSchemaCmd(),
		getMapTapCmd(),
	)
	rootCmd.SetGlobalNormalizationFunc(underscoreFlags)

	return rootCmd
}

// underscoreFlags lets flags be written with underscores, so --drop_only
// and --drop-only are the same flag.
func underscoreFlags(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func bootstrap(cmd *cobra.Command, args []string) error {
	var err error
	homeDir, err = os.UserHomeDir()
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureDirs(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	// Logging with defaults until the config is read.
	defaultLog := config.New().Log
	if err = initLogging(homeDir, defaultLog); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureConfigFile(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if cfg, err = ioconfig.Load(homeDir, baseFile, tableFile); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = initLogging(cfg.HomeDir, cfg.Log); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	slog.Info("Configuration loaded",
		"config_file", config.ConfigFilePath(homeDir),
		"base", baseFile,
		"table", tableFile,
	)
	return nil
}

// initLogging (re)initializes the logger and remembers whether the
// terminal is free for a progress bar.
func initLogging(home string, logCfg config.LogConfig) error {
	w, err := iologger.Init(config.LogDir(home), logCfg)
	if err != nil {
		return err
	}
	logToFile = iologger.ToFile(w)
	return nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	versionFlag(cmd)
	return cmd.Help()
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	err := getRootCmd().Execute()
	_ = iologger.Close()
	if err != nil {
		os.Exit(1)
	}
}
