// Package log wraps logrus with a context-aware API, kept close to the
// `log.Ctx(ctx)`-style logger the rest of this codebase was written against.
package log

import (
	"context"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
)

// DefaultLogger is the package-level logger used by the bare (non-Ctx) helpers.
var DefaultLogger = logrus.New()

// Level aliases logrus.Level so callers don't need a direct logrus import
// just to call SetLevel/StartTest.
type Level = logrus.Level

const (
	PanicLevel = logrus.PanicLevel
	FatalLevel = logrus.FatalLevel
	ErrorLevel = logrus.ErrorLevel
	WarnLevel  = logrus.WarnLevel
	InfoLevel  = logrus.InfoLevel
	DebugLevel = logrus.DebugLevel
	TraceLevel = logrus.TraceLevel
)

type ctxKey struct{}

// Entry wraps *logrus.Entry so call sites can chain WithStack before the
// usual Infof/Errorf/Warnf methods, the way the rest of this codebase does.
type Entry struct {
	*logrus.Entry
}

// WithStack attaches err to the entry under the "error" field. It does not
// capture a real stack trace; it exists so error chains survive into
// structured log output and the crash tracker.
func (e *Entry) WithStack(err error) *Entry {
	return &Entry{Entry: e.Entry.WithError(err)}
}

// New returns a fresh logrus logger, used to seed DefaultLogger at startup.
func New() *logrus.Logger {
	return logrus.New()
}

// SetLevel sets the level of DefaultLogger.
func SetLevel(level logrus.Level) {
	DefaultLogger.SetLevel(level)
}

// ParseLevel parses a level name the way the CLI's --log-level flag accepts
// it (case-insensitive TRACE/DEBUG/INFO/WARN/ERROR/FATAL/PANIC).
func ParseLevel(name string) (Level, error) {
	return logrus.ParseLevel(name)
}

// StartTest swaps DefaultLogger for a hook-backed test logger at the given
// level and returns a function that restores the original logger and
// returns the entries captured in the meantime.
func StartTest(level logrus.Level) func() []*logrus.Entry {
	original := DefaultLogger
	testLogger, hook := logrustest.NewNullLogger()
	testLogger.SetLevel(level)
	DefaultLogger = testLogger
	return func() []*logrus.Entry {
		DefaultLogger = original
		return hook.AllEntries()
	}
}

// Ctx returns a log entry carrying any fields previously attached to ctx via
// Set. When ctx is nil or carries none, it falls back to DefaultLogger.
func Ctx(ctx context.Context) *Entry {
	if ctx == nil {
		return &Entry{Entry: logrus.NewEntry(DefaultLogger)}
	}
	if fields, ok := ctx.Value(ctxKey{}).(logrus.Fields); ok {
		return &Entry{Entry: DefaultLogger.WithFields(fields)}
	}
	return &Entry{Entry: logrus.NewEntry(DefaultLogger)}
}

// Set returns a new context carrying the given fields, so a later Ctx(ctx)
// call includes them automatically (e.g. seller slug, job id).
func Set(ctx context.Context, fields logrus.Fields) context.Context {
	if existing, ok := ctx.Value(ctxKey{}).(logrus.Fields); ok {
		merged := make(logrus.Fields, len(existing)+len(fields))
		for k, v := range existing {
			merged[k] = v
		}
		for k, v := range fields {
			merged[k] = v
		}
		return context.WithValue(ctx, ctxKey{}, merged)
	}
	return context.WithValue(ctx, ctxKey{}, fields)
}

func Info(args ...interface{})                  { DefaultLogger.Info(args...) }
func Infof(format string, args ...interface{})  { DefaultLogger.Infof(format, args...) }
func Warn(args ...interface{})                  { DefaultLogger.Warn(args...) }
func Warnf(format string, args ...interface{})  { DefaultLogger.Warnf(format, args...) }
func Error(args ...interface{})                 { DefaultLogger.Error(args...) }
func Errorf(format string, args ...interface{}) { DefaultLogger.Errorf(format, args...) }
func Debug(args ...interface{})                 { DefaultLogger.Debug(args...) }
func Debugf(format string, args ...interface{}) { DefaultLogger.Debugf(format, args...) }
func Fatalf(format string, args ...interface{}) { DefaultLogger.Fatalf(format, args...) }
func Panicf(format string, args ...interface{}) { DefaultLogger.Panicf(format, args...) }
