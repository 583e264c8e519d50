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
	"fmt"

	"github.com/astroinject/astroinject/internal/ioindex"
	"github.com/astroinject/astroinject/pkg/lifecycle"
	"github.com/astroinject/astroinject/pkg/schema"
	"github.com/gnames/gn"
	"github.com/spf13/cobra"
)

type indexFlags struct {
	table        string
	kind         string
	ra, dec      string
	btree        []string
	concurrently bool
}

// getIndexCmd returns the index command.
func getIndexCmd() *cobra.Command {
	var f indexFlags

	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Create indexes on one table",
		Long: `Create a spatial or btree index on one table and refresh its
statistics with VACUUM ANALYZE.

Index kinds:
  pgsphere  GiST index on spoint(radians(ra), radians(dec))
  q3c       index on q3c_ang2ipix(ra, dec)
  btree     only the columns given with --btree

Flags override the index section of the table config file.

Examples:
  astroinject index -b base.yaml -t dr3.gaia_source --kind pgsphere --ra ra --dec dec
  astroinject index -b base.yaml -t dr3.gaia_source --kind btree --btree phot_g_mean_mag`,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runIndex(cmd, f)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	fs := indexCmd.Flags()
	fs.StringVarP(&f.table, "table", "t", "",
		"table to index, optionally schema.table")
	fs.StringVar(&f.kind, "kind", "", "index kind: pgsphere, q3c or btree")
	fs.StringVar(&f.ra, "ra", "", "right ascension column")
	fs.StringVar(&f.dec, "dec", "", "declination column")
	fs.StringSliceVar(&f.btree, "btree", nil,
		"comma-separated columns for btree indexes")
	fs.BoolVar(&f.concurrently, "concurrently", false,
		"build indexes without blocking writes")

	return indexCmd
}

// indexRequest merges flags with the index section of the config.
func indexRequest(cmd *cobra.Command, f indexFlags) (lifecycle.IndexRequest, error) {
	ix := cfg.Index
	req := lifecycle.IndexRequest{
		RA:           ix.RACol,
		Dec:          ix.DecCol,
		BtreeColumns: ix.BtreeColumns,
		Concurrently: ix.Concurrently,
	}

	table := cfg.Ingest.TableName
	if f.table != "" {
		table = f.table
	}
	if table == "" {
		return req, fmt.Errorf("table is required, use -t schema.table")
	}
	req.Table = schema.ParseTableName(table)

	kind := ix.Kind
	if f.kind != "" {
		kind = f.kind
	}
	var ok bool
	if req.Kind, ok = schema.ParseIndexKind(kind); !ok {
		return req, fmt.Errorf("unknown index kind %q", kind)
	}

	if f.ra != "" {
		req.RA = f.ra
	}
	if f.dec != "" {
		req.Dec = f.dec
	}
	if cmd.Flags().Changed("btree") {
		req.BtreeColumns = f.btree
	}
	if cmd.Flags().Changed("concurrently") {
		req.Concurrently = f.concurrently
	}
	return req, nil
}

func runIndex(cmd *cobra.Command, f indexFlags) error {
	ctx := context.Background()

	req, err := indexRequest(cmd, f)
	if err != nil {
		return err
	}

	l, err := connect(ctx)
	if err != nil {
		return err
	}
	defer l.Close()

	if err = ioindex.New(l).ApplyIndexes(ctx, req); err != nil {
		return err
	}
	gn.Info("Indexes are ready on <em>%s</em>", req.Table.String())
	return nil
}
