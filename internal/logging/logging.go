// Package logging constructs the structured logger used across the pipeline.
package logging

import (
	"github.com/sirupsen/logrus"
)

// Fields is re-exported so callers don't import logrus directly.
type Fields = logrus.Fields

// New creates a JSON-formatted logger at the given level. Unknown levels
// fall back to info.
func New(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	return logger
}

// NewWithService creates a logger whose entries all carry a service field.
func NewWithService(service, level string) *logrus.Entry {
	return New(level).WithField("service", service)
}
