// Package ioreader opens catalog files and returns them as in-memory
// tables. Missing values are carried in the validity masks of columns,
// never as sentinel values.
package ioreader

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/astroinject/astroinject/pkg/table"
)

// Formats accepted by Open.
const (
	FormatAuto           = "auto"
	FormatFITS           = "fits"
	FormatCSV            = "csv"
	FormatCSVDelimWhites = "csv_delimwhites"
	FormatParquet        = "parquet"
	FormatGaia           = "gaia"
)

// DetectFormat guesses the format of a file from its name.
func DetectFormat(path string) (string, error) {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case hasAnySuffix(name, ".fits", ".fit", ".fts", ".fits.gz", ".fit.gz"):
		return FormatFITS, nil
	case strings.HasSuffix(name, ".parquet"):
		return FormatParquet, nil
	case hasAnySuffix(name, ".csv.gz", ".ecsv", ".ecsv.gz"):
		return FormatGaia, nil
	case strings.HasSuffix(name, ".csv"):
		return FormatCSV, nil
	}
	return "", UnsupportedFormatError(path, FormatAuto)
}

// Open reads the whole file at path with the reader for format.
func Open(path, format string) (*table.Table, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" || format == FormatAuto {
		var err error
		if format, err = DetectFormat(path); err != nil {
			return nil, err
		}
	}

	switch format {
	case FormatFITS:
		return readFITS(path)
	case FormatParquet:
		return readParquet(path)
	case FormatCSV:
		return readCSV(path)
	case FormatCSVDelimWhites:
		return readWhitespace(path)
	case FormatGaia:
		return readECSV(path)
	}
	return nil, UnsupportedFormatError(path, format)
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, v := range suffixes {
		if strings.HasSuffix(s, v) {
			return true
		}
	}
	return false
}

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g gzipFile) Close() error {
	err := g.Reader.Close()
	if ferr := g.f.Close(); err == nil {
		err = ferr
	}
	return err
}

// openFile opens path for reading and decompresses it when the name
// ends with .gz.
func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, OpenError(path, err)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".gz") {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, OpenError(path, err)
	}
	return gzipFile{Reader: zr, f: f}, nil
}
