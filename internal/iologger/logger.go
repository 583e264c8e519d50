// Package iologger provides slog-based logging initialization and configuration.
package iologger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/astroinject/astroinject/pkg/config"
	"github.com/astroinject/astroinject/pkg/logger"
)

// logFile is the log file opened by the latest Init, if any.
var logFile *os.File

// Init initializes the global slog logger with the given configuration.
// Creates log file in logDir if destination is "file". The file is
// appended to, so logs of earlier runs are kept.
// Returns the writer in use so callers can tell whether the terminal is
// free for progress bars.
func Init(logDir string, cfg config.LogConfig) (io.Writer, error) {
	var writer io.Writer
	var file *os.File

	switch cfg.Destination {
	case "stdout":
		writer = os.Stdout
	case "file":
		logPath := filepath.Join(logDir, config.AppName+".log")
		var err error
		file, err = os.OpenFile(
			logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644,
		)
		if err != nil {
			return nil, CreateLogFileError(logPath, err)
		}
		writer = file
	default:
		writer = os.Stderr
	}

	slog.SetDefault(logger.New(writer, cfg))
	prev := logFile
	logFile = file
	if prev != nil {
		_ = prev.Close()
	}
	return writer, nil
}

// Close closes the log file opened by Init. Logging goes to stderr
// afterwards.
func Close() error {
	if logFile == nil {
		return nil
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	err := logFile.Close()
	logFile = nil
	return err
}

// ToFile returns true if the writer is a log file and not a terminal stream.
func ToFile(w io.Writer) bool {
	return w != os.Stdout && w != os.Stderr && w != nil
}
