// Package logging writes the structured run log of comparisons and merges.
package logging

import (
	"context"
)

// Level is the minimum severity a logger records
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Fields are key/value pairs attached to a record, e.g. side, path, run_id
type Fields map[string]interface{}

// Logger records scan warnings, merge decisions and write failures.
// Fields given to a call override fields bound with WithFields.
type Logger interface {
	Debug(ctx context.Context, msg string, fields Fields)
	Info(ctx context.Context, msg string, fields Fields)
	Warn(ctx context.Context, msg string, fields Fields)
	// Error records err under the "error" key
	Error(ctx context.Context, msg string, err error, fields Fields)

	// WithFields binds fields to every record of the returned logger
	WithFields(fields Fields) Logger

	Close() error
}

// NullLogger drops every record; used when no log file is configured
type NullLogger struct{}

// NewNullLogger returns a logger that records nothing
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (*NullLogger) Debug(context.Context, string, Fields)        {}
func (*NullLogger) Info(context.Context, string, Fields)         {}
func (*NullLogger) Warn(context.Context, string, Fields)         {}
func (*NullLogger) Error(context.Context, string, error, Fields) {}
func (l *NullLogger) WithFields(Fields) Logger                   { return l }
func (*NullLogger) Close() error                                 { return nil }
