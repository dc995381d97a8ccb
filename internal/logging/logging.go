// Package logging builds the service's structured logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is a logrus logger that may tee into a file.
type Logger struct {
	*logrus.Logger
	file *os.File
}

// Options selects the level, an optional file tee and the console writer.
type Options struct {
	Level  string
	File   string
	Output io.Writer
}

// New creates a JSON logger. An unknown level falls back to info.
func New(opts Options) (*Logger, error) {
	l := logrus.New()

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "timestamp",
			logrus.FieldKeyMsg:  "message",
		},
	})

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	logger := &Logger{Logger: l}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		logger.file = f
		out = io.MultiWriter(out, f)
	}
	l.SetOutput(out)

	return logger, nil
}

// Close closes the file tee, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
