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
	"os"
	"os/signal"
	"syscall"

	"github.com/astroinject/astroinject/internal/ioconfig"
	"github.com/astroinject/astroinject/internal/iodb"
	"github.com/astroinject/astroinject/internal/ioindex"
	"github.com/astroinject/astroinject/internal/ioingest"
	"github.com/astroinject/astroinject/pkg/config"
	"github.com/astroinject/astroinject/pkg/db"
	"github.com/astroinject/astroinject/pkg/lifecycle"
	"github.com/astroinject/astroinject/pkg/schema"
	"github.com/gnames/gn"
	"github.com/spf13/cobra"
)

// getIngestCmd returns the ingest command.
func getIngestCmd() *cobra.Command {
	var jobs int

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load catalog files into a PostgreSQL table",
		Long: `Load catalog files into one PostgreSQL table.

This command:
  1. Finds files matching ingest.pattern under ingest.folder
  2. Creates the destination table from the first file
  3. Loads every file with COPY using a pool of workers
  4. Creates a spatial index when index.ra_col and index.dec_col are set

Failed files are reported in the summary and do not stop other files.

Examples:
  astroinject ingest -b base.yaml -c gaia.yaml
  astroinject ingest -b base.yaml -c gaia.yaml --jobs 16`,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runIngest(cmd, jobs)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	ingestCmd.Flags().IntVarP(&jobs, "jobs", "j", 0,
		"number of parallel workers (default from jobs_number)")

	return ingestCmd
}

func runIngest(cmd *cobra.Command, jobs int) error {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	if cmd.Flags().Changed("jobs") {
		cfg.Update([]config.Option{config.OptJobsNumber(jobs)})
	}
	if err := ioconfig.CheckIngest(cfg); err != nil {
		return err
	}

	inj := ioingest.New(func() db.Loader {
		return iodb.NewLoader(loaderOptions())
	}, ioingest.OptProgressBar(logToFile))
	if _, err := inj.Ingest(ctx, cfg); err != nil {
		return err
	}

	req, ok := configuredIndexes()
	if !ok {
		gn.Info(`Next steps:
  - Run '<em>astroinject index</em>' to create indexes
  - Run '<em>astroinject map-tap</em>' to publish the table`)
		return nil
	}

	l, err := connect(ctx)
	if err != nil {
		return err
	}
	defer l.Close()

	return ioindex.New(l).ApplyIndexes(ctx, req)
}

// configuredIndexes builds the index request of the index section of the
// config. It returns false when no index is asked for.
func configuredIndexes() (lifecycle.IndexRequest, bool) {
	ix := cfg.Index
	req := lifecycle.IndexRequest{
		Table:        schema.ParseTableName(cfg.Ingest.TableName),
		RA:           ix.RACol,
		Dec:          ix.DecCol,
		BtreeColumns: ix.BtreeColumns,
		Concurrently: ix.Concurrently,
	}

	switch {
	case ix.RACol != "" && ix.DecCol != "":
		req.Kind, _ = schema.ParseIndexKind(ix.Kind)
	case len(ix.BtreeColumns) > 0:
		req.Kind = schema.Btree
	default:
		return req, false
	}
	return req, true
}
