// Package logging wraps github.com/sirupsen/logrus with the engine's one
// rule: there is no global mutable logger. Every component that wants to
// log takes a *logrus.Logger explicitly; Default provides one that
// discards everything, so a caller who never wires a real sink sees
// identical behavior to one who does, minus the output.
package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Default returns a logger that discards all output. Safe to call
// repeatedly; each call returns a new instance so callers can configure
// the level/formatter without affecting other callers.
func Default() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// NewJSON returns a logger writing structured JSON lines to w at the
// given level - the shape a real deployment wires in front of the engine.
func NewJSON(w io.Writer, level logrus.Level) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(level)
	log.SetFormatter(&logrus.JSONFormatter{})
	return log
}

// NewText returns a logger writing human-readable text lines to w.
func NewText(w io.Writer, level logrus.Level) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log
}
