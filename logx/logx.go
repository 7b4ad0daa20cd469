// Package logx adapts github.com/rs/zerolog to a minimal logging
// collaborator: a sink accepting (severity, message) with no return value
// and no effect on the computation it observes.
package logx

import (
	"io"

	"github.com/rs/zerolog"
)

// Logger implements the three severities the compiler ever emits: Info,
// Verbose (mapped to zerolog's Debug level, since "verbose" and "debug" name
// the same thing in zerolog's level set), and Warning.
type Logger struct {
	z zerolog.Logger
}

// New builds a Logger writing to w. A zero-value Logger (or a nil *Logger)
// is a valid no-op sink, so mna never needs to special-case "no logger was
// supplied" beyond a plain nil check.
func New(w io.Writer) *Logger {
	return &Logger{z: zerolog.New(w).With().Timestamp().Logger()}
}

// Info logs a routine, always-visible message.
func (l *Logger) Info(msg string) {
	if l == nil {
		return
	}
	l.z.Info().Msg(msg)
}

// Verbose logs a diagnostic message only relevant at high verbosity.
func (l *Logger) Verbose(msg string) {
	if l == nil {
		return
	}
	l.z.Debug().Msg(msg)
}

// Warning logs a recoverable failure the caller chose to proceed past (DC
// initial-condition non-convergence is the canonical case).
func (l *Logger) Warning(msg string) {
	if l == nil {
		return
	}
	l.z.Warn().Msg(msg)
}
