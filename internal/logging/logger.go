// Package logging provides leveled logging for bolocalc.
//
// The calculation core depends only on the [Logger] collaborator, which
// receives a message and an [Importance]. [New] adapts it onto a
// log/slog text handler writing to stderr and, optionally, a log file.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelTrace is a custom slog level below Debug for per-detector output.
const LevelTrace = slog.LevelDebug - 4

// Importance ranks a message for the core's Log collaborator.
type Importance int

const (
	// Notice messages are always shown: downgrades, clamps, fatal errors.
	Notice Importance = iota
	// Info messages report run progress.
	Info
	// Detail messages report per-realization steps.
	Detail
	// Trace messages report per-detector values.
	Trace
)

// Logger is the logging collaborator required by the calculation core.
type Logger interface {
	Log(msg string, importance Importance)
}

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "notice", "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "notice", "warn":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

func (i Importance) level() slog.Level {
	switch i {
	case Notice:
		return slog.LevelWarn
	case Info:
		return slog.LevelInfo
	case Detail:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if l, ok := a.Value.Any().(slog.Level); ok && l == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Slog adapts a *slog.Logger to the Logger collaborator.
type Slog struct {
	l    *slog.Logger
	file *os.File
}

// New builds a Slog writing to stderr and, when logFile is non-empty,
// appending to logFile as well.
func New(level, logFile string) (*Slog, error) {
	var w io.Writer = os.Stderr
	var f *os.File
	if logFile != "" {
		var err error
		f, err = os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
	}
	return &Slog{l: NewLogger(level, w), file: f}, nil
}

// Wrap adapts an existing slog logger.
func Wrap(l *slog.Logger) *Slog {
	return &Slog{l: l}
}

func (s *Slog) Log(msg string, importance Importance) {
	s.l.Log(context.Background(), importance.level(), msg)
}

// Slog returns the underlying slog logger.
func (s *Slog) Slog() *slog.Logger { return s.l }

// Close closes the log file, if any. Safe to call on nil receiver.
func (s *Slog) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

type discard struct{}

func (discard) Log(string, Importance) {}

// Discard is a Logger that drops every message.
var Discard Logger = discard{}

// Logf formats and logs through l.
func Logf(l Logger, importance Importance, format string, args ...any) {
	if l == nil {
		return
	}
	l.Log(fmt.Sprintf(format, args...), importance)
}
