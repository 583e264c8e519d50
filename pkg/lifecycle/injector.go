package lifecycle

import (
	"context"

	"github.com/astroinject/astroinject/pkg/config"
)

// IngestSummary counts the outcome of one ingestion run.
type IngestSummary struct {
	// Files is the number of input files found.
	Files int
	// Loaded files reached the database.
	Loaded int
	// Skipped files were empty, already in the ledger, or had their first
	// primary key in the table.
	Skipped int
	// Failed files were abandoned after an error.
	Failed int
	// Rows is the number of rows that reached the destination table.
	Rows int64
}

// Injector loads a set of catalog files into one destination table.
//
// The destination table is created from the first file before any load
// starts. Every file is then loaded by an independent worker with its own
// connection. A failure of one file never stops the others.
type Injector interface {
	// Ingest loads files described by cfg.Ingest. It returns an error only
	// for problems that prevent the run (no files, schema creation failure)
	// or when every file failed.
	Ingest(ctx context.Context, cfg *config.Config) (IngestSummary, error)
}
