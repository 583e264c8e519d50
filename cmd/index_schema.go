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
	"context"

	"github.com/astroinject/astroinject/internal/ioindex"
	"github.com/astroinject/astroinject/pkg/lifecycle"
	"github.com/gnames/gn"
	"github.com/spf13/cobra"
)

type indexSchemaFlags struct {
	target             string
	nameLike           string
	raCandidates       string
	decCandidates      string
	includePartitioned bool
	recreate           bool
	dropOnly           bool
	ensurePK           bool
	dryRun             bool
}

// getIndexSchemaCmd returns the index-schema command.
func getIndexSchemaCmd() *cobra.Command {
	var f indexSchemaFlags

	indexSchemaCmd := &cobra.Command{
		Use:   "index-schema",
		Short: "Manage pgsphere indexes across a schema",
		Long: `Create, recreate or drop pgsphere GiST indexes on every table of a
schema, or on a single schema.table.

Coordinate columns are found by trying candidate names in order. Tables
without both columns are skipped. A failure on one table is counted and
the command goes on with the next one.

--drop-only wins over --recreate and ignores --ensure-pk.
--dry-run logs every action and changes nothing.

Examples:
  astroinject index-schema -b base.yaml -s cat
  astroinject index-schema -b base.yaml -s cat --recreate --ensure-pk
  astroinject index-schema -b base.yaml -s cat --drop-only --dry-run
  astroinject index-schema -b base.yaml -s public.mytable -r ra_deg -d dec_deg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runIndexSchema(f)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	fs := indexSchemaCmd.Flags()
	fs.StringVarP(&f.target, "schema", "s", "",
		"schema name or schema.table")
	fs.StringVar(&f.nameLike, "name-like", "",
		"SQL LIKE filter on table names (ignored for schema.table)")
	fs.StringVarP(&f.raCandidates, "ra-candidates", "r", "",
		"RA column candidates in priority order (default "+
			ioindex.DefaultRACandidates+")")
	fs.StringVarP(&f.decCandidates, "dec-candidates", "d", "",
		"Dec column candidates in priority order (default "+
			ioindex.DefaultDecCandidates+")")
	fs.BoolVar(&f.includePartitioned, "include-partitions", false,
		"include partitioned parent tables")
	fs.BoolVar(&f.recreate, "recreate", false,
		"drop existing pgsphere indexes and create new ones")
	fs.BoolVar(&f.dropOnly, "drop-only", false,
		"only drop existing pgsphere indexes")
	fs.BoolVar(&f.ensurePK, "ensure-pk", false,
		"promote a NOT NULL id column to primary key")
	fs.BoolVar(&f.dryRun, "dry-run", false,
		"log actions without changing the database")
	_ = indexSchemaCmd.MarkFlagRequired("schema")

	return indexSchemaCmd
}

// migrateOptions converts flags to options of the index manager.
func migrateOptions(f indexSchemaFlags) lifecycle.MigrateOptions {
	mode := lifecycle.ModeCreate
	switch {
	case f.dropOnly:
		mode = lifecycle.ModeDropOnly
	case f.recreate:
		mode = lifecycle.ModeRecreate
	}

	return lifecycle.MigrateOptions{
		Target:             f.target,
		NameLike:           f.nameLike,
		RACandidates:       ioindex.ParseCandidates(f.raCandidates),
		DecCandidates:      ioindex.ParseCandidates(f.decCandidates),
		IncludePartitioned: f.includePartitioned,
		Mode:               mode,
		EnsurePK:           f.ensurePK && !f.dropOnly,
		DryRun:             f.dryRun,
	}
}

func runIndexSchema(f indexSchemaFlags) error {
	ctx := context.Background()

	l, err := connect(ctx)
	if err != nil {
		return err
	}
	defer l.Close()

	_, err = ioindex.New(l).MigrateSpatialIndexes(ctx, migrateOptions(f))
	return err
}
