// Package logger builds the logrus logger shared by every zzz command.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// DebugEnv turns on debug logging when set to "true".
const DebugEnv = "ZZZ_DEBUG"

// DebugEnabled reports whether debug logging was requested through the
// environment.
func DebugEnabled() bool {
	return os.Getenv(DebugEnv) == "true" || os.Getenv("DEBUG") == "true"
}

// New returns a text logger writing to stderr. The level is Info, or Debug
// when verbose is set or debug logging is enabled in the environment.
func New(verbose bool) *logrus.Logger {
	return NewWithOutput(os.Stderr, verbose)
}

// NewWithOutput is New with an explicit destination.
func NewWithOutput(w io.Writer, verbose bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableQuote:     true,
	})
	l.SetLevel(logrus.InfoLevel)
	if verbose || DebugEnabled() {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// Discard returns a logger that drops everything. Handy for tests and for
// callers that pass no logger.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
