package quizsystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the application-wide structured logger
var Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
	With().Timestamp().Logger()

var (
	logMu   sync.Mutex
	logFile *lumberjack.Logger
)

// LogOptions configures InitLogger
type LogOptions struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// InitLogger replaces Logger. Console output always goes to stderr; when a
// file is configured it is written as JSON through a rotating writer.
// Unparseable levels fall back to info.
func InitLogger(opts LogOptions) error {
	logMu.Lock()
	defer logMu.Unlock()

	lvl, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		lvl = zerolog.InfoLevel
	}

	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}}

	closeLogFileLocked()
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		logFile = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSize,
			MaxBackups: opts.MaxBackups,
		}
		writers = append(writers, logFile)
	}

	Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().
		Timestamp().
		Logger()
	return nil
}

// CloseLogFile flushes and closes the rotating log file, if any
func CloseLogFile() error {
	logMu.Lock()
	defer logMu.Unlock()
	return closeLogFileLocked()
}

func closeLogFileLocked() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// SetVerbose switches Logger between debug and info level
func SetVerbose(verbose bool) {
	logMu.Lock()
	defer logMu.Unlock()
	if verbose {
		Logger = Logger.Level(zerolog.DebugLevel)
	} else {
		Logger = Logger.Level(zerolog.InfoLevel)
	}
}

// VerboseLog logs at debug level
func VerboseLog(format string, v ...interface{}) {
	Logger.Debug().Msgf(format, v...)
}

// componentLogger returns a sub-logger tagged with the component name
func componentLogger(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}
