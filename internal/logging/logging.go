// Package logging builds the process logger.
//
// Standard output carries the stdio protocol, so logs go to standard error
// or to a file.
package logging

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"

	"github.com/labstack/gommon/log"
)

const Prefix = "db2-mcp"

const header = "${time_rfc3339} ${level} ${prefix} ${short_file}:${line}"

var levels = map[string]log.Lvl{
	"debug": log.DEBUG,
	"info":  log.INFO,
	"warn":  log.WARN,
	"error": log.ERROR,
	"off":   log.OFF,
}

func ParseLevel(s string) (log.Lvl, error) {
	lvl, ok := levels[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger at level writing to file, or to standard error when
// file is empty. The closer releases the file.
func New(level, file string) (*log.Logger, io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	var (
		out    io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out, closer = f, f
	}

	logger := log.New(Prefix)
	logger.SetOutput(out)
	logger.SetLevel(lvl)
	logger.SetHeader(header)
	return logger, closer, nil
}

// Std adapts l for APIs that take a standard library logger.
func Std(l *log.Logger, prefix string) *stdlog.Logger {
	return stdlog.New(l.Output(), prefix, stdlog.LstdFlags)
}
