// Package log defines the leveled logging sink the concurrency packages report
// through, and adapts zap to it.
//
// Components never reach for a concrete logger. They hold a Logger, which
// defaults to the process-wide zap logger (zap.S()) so that an application
// calling zap.ReplaceGlobals at startup controls where everything goes:
//
//	logger, _ := zap.NewProduction()
//	zap.ReplaceGlobals(logger)
//
//	pool := taskpool.New(4) // logs through zap.S().Named("task_pool")
//
// Any other implementation of Logger can be injected through the components'
// WithLogger options.
package log

import (
	"fmt"

	"go.uber.org/zap"
)

// Logger is a leveled, structured logging sink.
//
// Fatalw must not return: implementations log and terminate the process.
type Logger interface {
	Tracew(msg string, keysAndValues ...any)
	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
	Fatalw(msg string, keysAndValues ...any)
	Named(name string) Logger
}

type zapLogger struct {
	s *zap.SugaredLogger
}

// FromZap adapts a sugared zap logger. Zap has no trace level, so trace
// entries are written at debug level.
func FromZap(s *zap.SugaredLogger) Logger {
	return zapLogger{s: s}
}

func (l zapLogger) Tracew(msg string, kv ...any) { l.s.Debugw(msg, kv...) }
func (l zapLogger) Debugw(msg string, kv ...any) { l.s.Debugw(msg, kv...) }
func (l zapLogger) Infow(msg string, kv ...any)  { l.s.Infow(msg, kv...) }
func (l zapLogger) Warnw(msg string, kv ...any)  { l.s.Warnw(msg, kv...) }
func (l zapLogger) Errorw(msg string, kv ...any) { l.s.Errorw(msg, kv...) }
func (l zapLogger) Fatalw(msg string, kv ...any) { l.s.Fatalw(msg, kv...) }

func (l zapLogger) Named(name string) Logger {
	return zapLogger{s: l.s.Named(name)}
}

// Default returns the global zap logger as a Logger.
//
// zap.S() is resolved on every call to Default, not once per process, so
// loggers obtained after zap.ReplaceGlobals see the replacement.
func Default() Logger {
	return FromZap(zap.S())
}

// Nop returns a Logger that discards everything. Its Fatalw still panics.
func Nop() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Tracew(string, ...any) {}
func (nopLogger) Debugw(string, ...any) {}
func (nopLogger) Infow(string, ...any)  {}
func (nopLogger) Warnw(string, ...any)  {}
func (nopLogger) Errorw(string, ...any) {}
func (nopLogger) Fatalw(msg string, _ ...any) {
	panic(msg)
}
func (n nopLogger) Named(string) Logger { return n }

// Assert logs msg at fatal level when cond is false, then panics in case the
// sink's Fatalw returned.
func Assert(l Logger, cond bool, msg string, keysAndValues ...any) {
	if cond {
		return
	}
	l.Fatalw("assertion failed: "+msg, keysAndValues...)
	panic(fmt.Sprintf("assertion failed: %s", msg))
}
