package common

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// ContextLogger is a field-carrying wrapper around the global logger.
// Each With* call returns a new value, so a base logger built once per
// service can be specialized per operation without sharing mutable state
// between goroutines.
type ContextLogger struct {
	logger *logrus.Logger
	fields logrus.Fields
}

// NewContextLogger wraps logger (the global Logger when nil) with a base
// field set.
func NewContextLogger(logger *logrus.Logger, fields map[string]any) *ContextLogger {
	if logger == nil {
		logger = Logger
	}
	base := make(logrus.Fields, len(fields))
	for k, v := range fields {
		base[k] = v
	}
	return &ContextLogger{logger: logger, fields: base}
}

// WithField returns a copy carrying one additional field.
func (cl *ContextLogger) WithField(key string, value any) *ContextLogger {
	return cl.WithFields(map[string]any{key: value})
}

// WithFields returns a copy carrying the additional fields.
func (cl *ContextLogger) WithFields(fields map[string]any) *ContextLogger {
	merged := make(logrus.Fields, len(cl.fields)+len(fields))
	for k, v := range cl.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &ContextLogger{logger: cl.logger, fields: merged}
}

// WithError returns a copy carrying the error's message under "error".
func (cl *ContextLogger) WithError(err error) *ContextLogger {
	return cl.WithField("error", err.Error())
}

// requestIDKey is the context key Do and other call sites use to thread a
// per-request correlation id through to logging.
type requestIDKey struct{}

// WithRequestID stores a correlation id on ctx for WithContext to pick up.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// WithContext returns a copy carrying the correlation id from ctx, if one
// was stored with WithRequestID.
func (cl *ContextLogger) WithContext(ctx context.Context) *ContextLogger {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return cl.WithField("request_id", id)
	}
	return cl
}

func (cl *ContextLogger) Debug(msg string) { cl.logger.WithFields(cl.fields).Debug(msg) }
func (cl *ContextLogger) Debugf(format string, args ...any) {
	cl.logger.WithFields(cl.fields).Debugf(format, args...)
}
func (cl *ContextLogger) Info(msg string) { cl.logger.WithFields(cl.fields).Info(msg) }
func (cl *ContextLogger) Infof(format string, args ...any) {
	cl.logger.WithFields(cl.fields).Infof(format, args...)
}
func (cl *ContextLogger) Warn(msg string) { cl.logger.WithFields(cl.fields).Warn(msg) }
func (cl *ContextLogger) Warnf(format string, args ...any) {
	cl.logger.WithFields(cl.fields).Warnf(format, args...)
}
func (cl *ContextLogger) Error(msg string) { cl.logger.WithFields(cl.fields).Error(msg) }
func (cl *ContextLogger) Errorf(format string, args ...any) {
	cl.logger.WithFields(cl.fields).Errorf(format, args...)
}

// Fields returns the base field set; tests use this to assert what a
// service logger was constructed with.
func (cl *ContextLogger) Fields() map[string]any {
	out := make(map[string]any, len(cl.fields))
	for k, v := range cl.fields {
		out[k] = v
	}
	return out
}

// ServiceLogger is how every subsystem obtains its logger: subsystem is
// the package-level grouping ("ingest", "nlq", ...) and component the
// type within it ("service", "cascade", "pathfinder").
func ServiceLogger(subsystem, component string) *ContextLogger {
	return NewContextLogger(Logger, map[string]any{
		"subsystem": subsystem,
		"component": component,
	})
}

// RequestLogger tags an outbound HTTP call with its method and URL; the
// shared HTTP client uses it to trace source-API traffic at debug level.
func RequestLogger(component, method, url string) *ContextLogger {
	return NewContextLogger(Logger, map[string]any{
		"component": component,
		"method":    method,
		"url":       url,
	})
}

// LogDuration records the elapsed time of an operation when the returned
// func runs; callers defer it at the top of a timed block.
func LogDuration(logger *ContextLogger, operation string) func() {
	start := time.Now()
	return func() {
		logger.WithFields(map[string]any{
			"operation":   operation,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("operation completed")
	}
}
