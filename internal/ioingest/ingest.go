// Package ioingest implements lifecycle.Injector. It loads many catalog
// files into one PostgreSQL table with a pool of workers. Every worker
// owns its loader and its copy of the type map, so nothing mutable is
// shared between them apart from the summary counters.
package ioingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/astroinject/astroinject/internal/iocatalog"
	"github.com/astroinject/astroinject/internal/iofs"
	"github.com/astroinject/astroinject/internal/ioledger"
	"github.com/astroinject/astroinject/internal/ioreader"
	"github.com/astroinject/astroinject/pkg/config"
	"github.com/astroinject/astroinject/pkg/db"
	"github.com/astroinject/astroinject/pkg/lifecycle"
	"github.com/astroinject/astroinject/pkg/reltype"
	"github.com/astroinject/astroinject/pkg/schema"
	"github.com/astroinject/astroinject/pkg/table"
	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"golang.org/x/sync/errgroup"
)

// LoaderFactory returns a new, unconnected loader.
type LoaderFactory func() db.Loader

type injector struct {
	newLoader LoaderFactory
	// showBar enables the terminal progress bar.
	showBar bool
}

// Option configures the injector.
type Option func(*injector)

// OptProgressBar shows a progress bar of processed files. Use it only when
// logs do not go to the terminal.
func OptProgressBar(show bool) Option {
	return func(in *injector) {
		in.showBar = show
	}
}

// New creates an Injector that opens loaders with newLoader.
func New(newLoader LoaderFactory, opts ...Option) lifecycle.Injector {
	res := &injector{newLoader: newLoader}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

// run carries the read-only state of one ingestion run.
type run struct {
	cfg     *config.Config
	table   schema.TableName
	idCol   string
	typeMap reltype.TypeMap
	ledger  *ioledger.Ledger
}

// Ingest loads all files of cfg.Ingest into the destination table.
func (in *injector) Ingest(
	ctx context.Context,
	cfg *config.Config,
) (lifecycle.IngestSummary, error) {
	var res lifecycle.IngestSummary
	start := time.Now()

	files, err := iofs.FindFiles(cfg.Ingest.Folder, cfg.Ingest.Pattern)
	if err != nil {
		return res, err
	}
	if len(files) == 0 {
		return res, NoFilesError(cfg.Ingest.Folder, cfg.Ingest.Pattern)
	}
	res.Files = len(files)

	r := &run{
		cfg:   cfg,
		table: schema.ParseTableName(cfg.Ingest.TableName),
		idCol: normalizeName(cfg.Ingest.IDCol),
	}
	slog.Info("Starting ingestion",
		"state", "init",
		"table", r.table.String(),
		"files", len(files),
		"jobs", cfg.JobsNumber,
	)
	gn.Info("Found <em>%d</em> files for <em>%s</em>", len(files), r.table.String())

	if err = in.prepare(ctx, r, files); err != nil {
		return res, err
	}

	if cfg.Ingest.Ledger != "" {
		if r.ledger, err = ioledger.Open(cfg.Ingest.Ledger); err != nil {
			return res, err
		}
		defer r.ledger.Close()
	}

	sum := in.fanOut(ctx, r, files)
	res.Loaded, res.Skipped, res.Failed, res.Rows =
		sum.loaded, sum.skipped, sum.failed, sum.rows

	dur := gnfmt.TimeString(time.Since(start).Seconds())
	slog.Info("Ingestion complete",
		"state", "done",
		"table", r.table.String(),
		"loaded", res.Loaded,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"rows", res.Rows,
		"duration", dur,
	)
	gn.Info(`Ingestion complete
Files loaded: %d, skipped: %d, failed: %d.
Rows: <em>%s</em>. Elapsed time: <em>%s</em>`,
		res.Loaded, res.Skipped, res.Failed, humanize.Comma(res.Rows), dur,
	)

	// Failed files are reported, not returned: the run itself completed.
	if res.Failed > 0 && res.Failed == res.Files {
		err = AllFilesFailedError(res.Failed)
		slog.Error("No file was loaded",
			"severity", "critical",
			"failed", res.Failed,
			"error", err,
		)
		gn.PrintErrorMessage(err)
		return res, nil
	}
	if res.Failed > 0 {
		slog.Warn("Some files failed to load",
			"failed", res.Failed,
			"loaded", res.Loaded,
		)
	}
	return res, nil
}

// prepare creates the destination table from the first file that has rows
// and builds the type map when casts are forced. It runs before any worker
// starts. Empty files are left for the workers to skip.
func (in *injector) prepare(ctx context.Context, r *run, files []string) error {
	tn := r.table.String()
	tbl, first, err := firstNonEmpty(files, r.cfg.Ingest.Format)
	if err != nil {
		return err
	}
	if tbl == nil {
		err = errors.New("all files are empty")
		return SchemaError(tn, files[0], err)
	}
	defer tbl.Release()

	if err = Preprocess(tbl, &r.cfg.Ingest); err != nil {
		return SchemaError(tn, first, err)
	}
	fields, err := reltype.InferTable(tbl)
	if err != nil {
		return SchemaError(tn, first, err)
	}
	if r.idCol != "" && tbl.Index(r.idCol) < 0 {
		err = fmt.Errorf("primary key column %q is not in the file", r.idCol)
		return SchemaError(tn, first, err)
	}

	ld := in.newLoader()
	if err = ld.Connect(ctx, &r.cfg.Database); err != nil {
		return err
	}
	defer ld.Close()

	def := schema.TableDef{Name: r.table, Columns: fields, PrimaryKey: r.idCol}
	if err = ld.CreateTable(ctx, def); err != nil {
		return err
	}
	slog.Info("Destination table is ready",
		"state", "table_created",
		"table", tn,
		"columns", len(fields),
	)

	if r.cfg.Ingest.ForceCastCorrection {
		r.typeMap, err = iocatalog.BuildTypeMapFromCatalog(ctx, ld, r.table)
		if err != nil {
			return err
		}
		slog.Info("Built type map from the catalog",
			"table", tn, "columns", len(r.typeMap))
	}
	return nil
}

// firstNonEmpty opens files in order and returns the first table with
// rows. The table is nil if every file is empty.
func firstNonEmpty(files []string, format string) (*table.Table, string, error) {
	for _, file := range files {
		tbl, err := ioreader.Open(file, format)
		if err != nil {
			return nil, file, err
		}
		if tbl.Len() > 0 {
			return tbl, file, nil
		}
		tbl.Release()
		slog.Warn("File has no rows, using the next one for the schema",
			"file", file)
	}
	return nil, "", nil
}

func (in *injector) fanOut(ctx context.Context, r *run, files []string) *summary {
	sum := &summary{}
	jobs := max(r.cfg.JobsNumber, 1)

	var bar *pb.ProgressBar
	if in.showBar {
		bar = pb.Full.Start(len(files))
		bar.Set("prefix", "Files: ")
		bar.Set(pb.CleanOnFinish, true)
		defer bar.Finish()
	}

	g := &errgroup.Group{}
	g.SetLimit(jobs)
	for _, file := range files {
		tm := r.typeMap.Clone()
		g.Go(func() error {
			defer func() {
				if p := recover(); p != nil {
					slog.Error("Ingestion task panicked",
						"severity", "critical",
						"file", file,
						"panic", fmt.Sprint(p),
					)
					sum.add(statusFailed, 0)
				}
				if bar != nil {
					bar.Increment()
				}
			}()

			t := &task{run: r, file: file, typeMap: tm, loader: in.newLoader()}
			st, rows, err := t.execute(ctx)
			if err != nil {
				slog.Error("Cannot load file", "file", file, "error", err)
				st = statusFailed
			}
			sum.add(st, rows)
			return nil
		})
	}
	_ = g.Wait()
	return sum
}
