// Package logging configures the logrus logger used by the command line
// tools and the development server.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configure New.
type Options struct {
	// Level is a logrus level name; empty means info.
	Level string
	// File, when set, receives a copy of the log, rotated by size.
	File       string
	MaxSizeMB  int
	MaxBackups int
	// JSON selects the JSON formatter for the log file.
	JSON bool
	// Out is the console writer; nil means stderr.
	Out io.Writer
}

// New returns a logger writing text to the console and, optionally, to a
// rotated log file.
func New(opts Options) (*logrus.Logger, error) {
	log := logrus.New()

	level := logrus.InfoLevel
	if opts.Level != "" {
		l, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level: %w", err)
		}
		level = l
	}
	log.SetLevel(level)

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})

	if opts.File != "" {
		maxSize := opts.MaxSizeMB
		if maxSize == 0 {
			maxSize = 10
		}
		var f logrus.Formatter = &logrus.TextFormatter{DisableColors: true, FullTimestamp: true}
		if opts.JSON {
			f = &logrus.JSONFormatter{}
		}
		log.AddHook(&fileHook{
			w: &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    maxSize,
				MaxBackups: opts.MaxBackups,
			},
			formatter: f,
		})
	}
	return log, nil
}

// fileHook writes every entry to w with its own formatter, so the file
// does not get the console colors.
type fileHook struct {
	w         io.WriteCloser
	formatter logrus.Formatter
}

func (h *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fileHook) Fire(e *logrus.Entry) error {
	b, err := h.formatter.Format(e)
	if err != nil {
		return err
	}
	_, err = h.w.Write(b)
	return err
}

// Close releases the log file of a logger built by New.
func Close(log *logrus.Logger) error {
	for _, hooks := range log.Hooks {
		for _, h := range hooks {
			if fh, ok := h.(*fileHook); ok {
				// The same hook is registered for every level.
				return fh.w.Close()
			}
		}
	}
	return nil
}
