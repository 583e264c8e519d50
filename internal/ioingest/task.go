package ioingest

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/astroinject/astroinject/internal/ioreader"
	"github.com/astroinject/astroinject/pkg/db"
	"github.com/astroinject/astroinject/pkg/records"
	"github.com/astroinject/astroinject/pkg/reltype"
	"github.com/astroinject/astroinject/pkg/table"
)

type status int

const (
	statusLoaded status = iota
	statusSkipped
	statusFailed
)

// summary is the only state shared by workers.
type summary struct {
	mu                      sync.Mutex
	loaded, skipped, failed int
	rows                    int64
}

func (s *summary) add(st status, rows int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch st {
	case statusLoaded:
		s.loaded++
	case statusSkipped:
		s.skipped++
	default:
		s.failed++
	}
	s.rows += rows
}

// task loads one file.
type task struct {
	*run
	file    string
	typeMap reltype.TypeMap
	loader  db.Loader
}

func (t *task) execute(ctx context.Context) (status, int64, error) {
	tn := t.table.String()
	if t.ledger != nil {
		done, err := t.ledger.Has(ctx, tn, t.file)
		if err != nil {
			return statusFailed, 0, err
		}
		if done {
			slog.Info("File is already in the ledger, skipping", "file", t.file)
			return statusSkipped, 0, nil
		}
	}

	if err := t.loader.Connect(ctx, &t.cfg.Database); err != nil {
		return statusFailed, 0, err
	}
	defer t.loader.Close()

	slog.Info("Loading file", "state", "task_running", "file", t.file)
	tbl, err := ioreader.Open(t.file, t.cfg.Ingest.Format)
	if err != nil {
		return statusFailed, 0, err
	}
	defer tbl.Release()

	if tbl.Len() == 0 {
		slog.Warn("File has no rows, skipping", "file", t.file)
		return statusSkipped, 0, nil
	}
	if err = Preprocess(tbl, &t.cfg.Ingest); err != nil {
		return statusFailed, 0, err
	}

	if t.cfg.Ingest.ProbePrimaryKey && t.idCol != "" {
		found, err := t.firstKeyLoaded(ctx, tbl)
		if err != nil {
			return statusFailed, 0, err
		}
		if found {
			slog.Info("First primary key is already loaded, skipping file",
				"file", t.file)
			return statusSkipped, 0, nil
		}
	}

	if failed := reltype.CoerceTable(tbl, t.typeMap); len(failed) > 0 {
		slog.Warn("Some columns keep their file types",
			"file", t.file, "columns", strings.Join(failed, ","))
	}

	src := records.FromTable(tbl)
	var rows int64
	if t.cfg.Ingest.SkipConflicts {
		rows, err = t.loader.BulkInsertWithConflictSkip(
			ctx, t.table, tbl.Names(), src, t.idCol,
		)
	} else {
		rows, err = t.loader.BulkInsert(ctx, t.table, tbl.Names(), src)
	}
	if err != nil {
		return statusFailed, 0, err
	}

	if t.ledger != nil {
		if err = t.ledger.Record(ctx, tn, t.file, rows); err != nil {
			slog.Error("Cannot record file in the ledger",
				"file", t.file, "error", err)
		}
	}
	slog.Info("File loaded", "file", t.file, "rows", rows)
	return statusLoaded, rows, nil
}

// firstKeyLoaded reports whether the primary key of the first row is already in
// the table. The check is file-granular: a file that was loaded only in
// part is not detected unless its first row made it.
func (t *task) firstKeyLoaded(ctx context.Context, tbl *table.Table) (bool, error) {
	col, ok := tbl.Column(t.idCol)
	if !ok || col.Len() == 0 {
		return false, nil
	}
	v := col.Value(0)
	if v == nil {
		return false, nil
	}
	return t.loader.KeyExists(ctx, t.table, t.idCol, v)
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
