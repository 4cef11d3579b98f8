package main

import (
	"github.com/verdict-engine/verdict"
	"github.com/verdict-engine/verdict/internal/logger"
)

// logReporter forwards engine events into the structured logger. It is
// fire-and-forget: logging never alters a verdict or blocks a pipeline.
type logReporter struct{}

func (logReporter) Record(source string, severity verdict.Severity, message string) {
	logger.ViolationRecorded()

	switch severity {
	case verdict.SeverityException:
		logger.Error("rule violation", "source", source, "message", message)
	case verdict.SeverityWarning:
		logger.Warn("rule violation", "source", source, "message", message)
	default:
		logger.Info("rule violation", "source", source, "message", message)
	}
}
