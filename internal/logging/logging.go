// Package logging builds the structured loggers shared by the server, the
// indexer and the CLI. Output always goes to stderr or a caller-supplied
// writer: stdout carries the MCP protocol when serving over stdio.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// Format selects the log line encoding
type Format string

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatLogfmt Format = "logfmt"
)

// Options configures New
type Options struct {
	Level  string // debug, info, warn, error, fatal
	Format Format
	Prefix string
	// Timestamps are useful in long running servers and noise in CLI output
	Timestamps bool
}

// New creates a logger writing to w
func New(w io.Writer, opts Options) (*log.Logger, error) {
	level := log.InfoLevel
	if opts.Level != "" {
		parsed, err := log.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	var formatter log.Formatter
	switch opts.Format {
	case "", FormatText:
		formatter = log.TextFormatter
	case FormatJSON:
		formatter = log.JSONFormatter
	case FormatLogfmt:
		formatter = log.LogfmtFormatter
	default:
		return nil, fmt.Errorf("invalid log format %q", opts.Format)
	}

	return log.NewWithOptions(w, log.Options{
		Prefix:          opts.Prefix,
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: opts.Timestamps,
	}), nil
}

// Discard returns a logger that drops everything. Library constructors fall
// back to it when given a nil logger.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// OrDiscard returns l, or a discarding logger when l is nil
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
