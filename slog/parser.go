package slog

import (
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/harvest"
)

// Ensure LoggingParser implements harvest.Parser.
var _ harvest.Parser = (*LoggingParser)(nil)

// LoggingParser wraps a Parser with logging.
type LoggingParser struct {
	next   harvest.Parser
	logger *slog.Logger
}

// NewLoggingParser creates a new LoggingParser.
func NewLoggingParser(next harvest.Parser, logger *slog.Logger) *LoggingParser {
	return &LoggingParser{next: next, logger: logger}
}

// Parse delegates to the wrapped parser and logs the operation.
func (p *LoggingParser) Parse(r io.Reader) (doc harvest.Document, err error) {
	defer func(begin time.Time) {
		p.logger.Info("parse",
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.Parse(r)
}
