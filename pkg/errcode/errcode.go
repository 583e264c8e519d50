package errcode

import (
	"github.com/gnames/gn"
)

const (
	UnknownError gn.ErrorCode = iota

	// File System errors
	CreateDirError
	WriteTemplateError
	FindFilesError

	// Logging errors
	CreateLogFileError

	// Config errors
	ConfigReadError
	ConfigMissingFieldError

	// Database errors
	DBConnectionError
	DBNotConnectedError
	DBQueryError
	DBTransactionError
	DBCreateTableError
	DBCopyError
	DBTableExistsCheckError
	DBVacuumError

	// Reader errors
	ReaderUnsupportedFormatError
	ReaderOpenError
	ReaderParseError

	// Catalog errors
	CatalogQueryError

	// Ingest errors
	IngestNoFilesError
	IngestSchemaError
	IngestAllFilesFailedError

	// Index errors
	IndexExtensionMissingError
	IndexTableNotFoundError
	IndexDiscoverError
	IndexCreateError

	// Ledger errors
	LedgerOpenError
	LedgerWriteError

	// TAP_SCHEMA errors
	TapConnectionError
	TapMigrateError
	TapRegisterError
)
