package slog

import (
	"log/slog"
	"time"

	"github.com/fwojciec/harvest"
)

// Ensure LoggingExtractor implements harvest.Extractor.
var _ harvest.Extractor = (*LoggingExtractor)(nil)

// LoggingExtractor wraps an Extractor with logging.
type LoggingExtractor struct {
	next   harvest.Extractor
	name   string
	logger *slog.Logger
}

// NewLoggingExtractor creates a new LoggingExtractor. The name identifies
// the definition in log records.
func NewLoggingExtractor(next harvest.Extractor, name string, logger *slog.Logger) *LoggingExtractor {
	return &LoggingExtractor{next: next, name: name, logger: logger}
}

// Extract delegates to the wrapped extractor and logs the operation.
func (e *LoggingExtractor) Extract(field string) (value any, err error) {
	defer func(begin time.Time) {
		e.logger.Info("extract",
			"schema", e.name,
			"field", field,
			"present", harvest.IsPresent(value),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.Extract(field)
}

// ExtractAll delegates to the wrapped extractor and logs the operation.
func (e *LoggingExtractor) ExtractAll() (rec harvest.Record, err error) {
	defer func(begin time.Time) {
		present := 0
		for _, v := range rec {
			if harvest.IsPresent(v) {
				present++
			}
		}
		e.logger.Info("extract all",
			"schema", e.name,
			"fields", len(rec),
			"present", present,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.ExtractAll()
}
