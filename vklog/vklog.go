// Package vklog provides the three-tier logger the renderer uses to
// surface this module's debug/warn/fatal error taxonomy.
package vklog

import (
	"io"
	"log"
	"os"
)

// Logger holds the info/warn/error logs a renderer reports through.
// It is grounded on dieselvk's BaseCore, which kept three *log.Logger
// fields (info_log, warn_log, error_log) built over plain files;
// here the destinations are caller-supplied writers instead of
// hardcoded file paths, and default to os.Stderr.
type Logger struct {
	debug *log.Logger
	warn  *log.Logger
	fatal *log.Logger
}

// New builds a Logger writing to w (os.Stderr if w is nil).
func New(w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{
		debug: log.New(w, "DEBUG: ", log.Ltime|log.Lshortfile),
		warn:  log.New(w, "WARN: ", log.Ltime|log.Lshortfile),
		fatal: log.New(w, "FATAL: ", log.Ldate|log.Ltime|log.Lshortfile),
	}
}

// Default is used by packages that were not handed an explicit Logger.
var Default = New(os.Stderr)

// Debugf logs a skip-class event (the "skip": debug level, pass
// silently skipped).
func (l *Logger) Debugf(format string, args ...any) {
	if l == nil {
		l = Default
	}
	l.debug.Printf(format, args...)
}

// Warnf logs a warn-class event (the "warn": validation mismatch,
// ignored at runtime).
func (l *Logger) Warnf(format string, args ...any) {
	if l == nil {
		l = Default
	}
	l.warn.Printf(format, args...)
}

// Fatalf logs a fatal-class event. It does not itself terminate the
// process or panic — the caller is expected to fold it into the
// renderer's abort path and propagate a vkerr.Fatal.
func (l *Logger) Fatalf(format string, args ...any) {
	if l == nil {
		l = Default
	}
	l.fatal.Printf(format, args...)
}
