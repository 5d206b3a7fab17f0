// Package logging is the structured logger every pipeline stage writes to.
// Production runs log through logrus; tests swap in MockLogger and assert on
// the recorded entries.
package logging

// Logger is the logging surface handed to sources, stores and the pipeline.
// Context such as the run ID or the ledger category is attached once with
// WithFields and carried by the derived logger.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	WithError(err error) Logger
	WithField(key string, value interface{}) Logger
	WithFields(fields ...Field) Logger
}

// Field is one key of a structured entry. Keys shared across stages are in
// constants.go.
type Field struct {
	Key   string
	Value interface{}
}
