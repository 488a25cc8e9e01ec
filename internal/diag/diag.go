package diag

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Fields carries structured context attached to a diagnostic.
type Fields = logrus.Fields

// Reporter collects compiler diagnostics and forwards them to a structured
// logger. The format is either "text" or "json".
type Reporter struct {
	log      *logrus.Logger
	errCount int
	warnings int
}

// NewReporter builds a reporter writing to w. Unknown formats fall back to
// text so a typo in a flag never hides diagnostics.
func NewReporter(w io.Writer, format string) *Reporter {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(logrus.WarnLevel)
	switch format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{DisableTimestamp: true})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: true,
			DisableColors:    true,
		})
	}
	return &Reporter{log: logger}
}

// Discard returns a reporter that drops everything but still counts errors.
func Discard() *Reporter {
	return NewReporter(io.Discard, "text")
}

// SetVerbose enables debug-level entries.
func (r *Reporter) SetVerbose(verbose bool) {
	if r == nil {
		return
	}
	if verbose {
		r.log.SetLevel(logrus.DebugLevel)
		return
	}
	r.log.SetLevel(logrus.WarnLevel)
}

// Error reports an error attached to a graph entity (node id, type name...).
func (r *Reporter) Error(subject, msg string) {
	if r == nil {
		return
	}
	r.errCount++
	r.log.WithField("subject", subject).Error(msg)
}

// Errorf reports an error with no particular subject.
func (r *Reporter) Errorf(format string, args ...interface{}) {
	if r == nil {
		return
	}
	r.errCount++
	r.log.Error(fmt.Sprintf(format, args...))
}

// Warnf reports a non-fatal diagnostic.
func (r *Reporter) Warnf(format string, args ...interface{}) {
	if r == nil {
		return
	}
	r.warnings++
	r.log.Warn(fmt.Sprintf(format, args...))
}

// Debugf logs compiler internals, visible only in verbose mode.
func (r *Reporter) Debugf(format string, args ...interface{}) {
	if r == nil {
		return
	}
	r.log.Debugf(format, args...)
}

// WithFields returns a log entry carrying structured context.
func (r *Reporter) WithFields(fields Fields) *logrus.Entry {
	if r == nil {
		return logrus.NewEntry(logrus.StandardLogger()).WithFields(fields)
	}
	return r.log.WithFields(fields)
}

// HasErrors reports whether at least one error was recorded.
func (r *Reporter) HasErrors() bool {
	return r != nil && r.errCount > 0
}

// ErrorCount returns the number of recorded errors.
func (r *Reporter) ErrorCount() int {
	if r == nil {
		return 0
	}
	return r.errCount
}

// WarningCount returns the number of recorded warnings.
func (r *Reporter) WarningCount() int {
	if r == nil {
		return 0
	}
	return r.warnings
}
