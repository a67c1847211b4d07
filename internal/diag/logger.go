package diag

import (
	"go.uber.org/zap"
)

// Logger reports diagnostics of a round. Every diagnostic is collected and
// written to the structured log; info messages are logged only when verbose
// and never collected.
type Logger struct {
	log       *zap.Logger
	verbose   bool
	collector *Collector
}

// NewLogger wraps log. A nil log discards output.
func NewLogger(log *zap.Logger, verbose bool) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Logger{log: log, verbose: verbose, collector: NewCollector()}
}

// With returns a logger with additional structured fields sharing the same
// collector
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{log: l.log.With(fields...), verbose: l.verbose, collector: l.collector}
}

// Zap returns the underlying structured logger
func (l *Logger) Zap() *zap.Logger {
	return l.log
}

// Verbose reports whether info messages are logged
func (l *Logger) Verbose() bool {
	return l.verbose
}

// Info logs a progress message when verbose
func (l *Logger) Info(msg string, fields ...zap.Field) {
	if l.verbose {
		l.log.Info(msg, fields...)
	}
}

// Report collects d and logs it at its severity
func (l *Logger) Report(d *Diagnostic) {
	if d.Severity == SeverityInfo {
		l.Info(d.Message, zap.String("element", d.Element))
		return
	}
	l.collector.Add(d)

	fields := []zap.Field{zap.String("code", string(d.Code))}
	if d.Element != "" {
		fields = append(fields, zap.String("element", d.Element))
	}
	if d.Severity == SeverityError {
		l.log.Error(d.Message, fields...)
	} else {
		l.log.Warn(d.Message, fields...)
	}
}

// Diagnostics returns everything reported so far
func (l *Logger) Diagnostics() List {
	return l.collector.List()
}

// Reset discards collected diagnostics
func (l *Logger) Reset() {
	l.collector.Reset()
}
