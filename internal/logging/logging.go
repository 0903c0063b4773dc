// Package logging defines the leveled logger injected into schema builders
// and operations, with a no-op default and a logrus adapter.
package logging

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the leveled logging surface used throughout graphqly.
// Levels follow the npm convention: silly < debug < verbose < info < warn < error.
type Logger interface {
	Silly(args ...any)
	Debug(args ...any)
	Verbose(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
}

type nop struct{}

func (nop) Silly(...any)   {}
func (nop) Debug(...any)   {}
func (nop) Verbose(...any) {}
func (nop) Info(...any)    {}
func (nop) Warn(...any)    {}
func (nop) Error(...any)   {}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nop{} }

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return nop{}
	}
	return l
}

// Logrus adapts a logrus entry to Logger.
type Logrus struct {
	entry *logrus.Entry
}

// NewLogrus wraps l. Silly maps to Trace and Verbose to Debug with a
// verbose=true field, since logrus has no such levels.
func NewLogrus(l *logrus.Logger) *Logrus {
	return &Logrus{entry: logrus.NewEntry(l)}
}

// With returns a logger carrying an additional structured field.
func (l *Logrus) With(key string, value any) *Logrus {
	return &Logrus{entry: l.entry.WithField(key, value)}
}

func (l *Logrus) Silly(args ...any)   { l.entry.Trace(args...) }
func (l *Logrus) Debug(args ...any)   { l.entry.Debug(args...) }
func (l *Logrus) Verbose(args ...any) { l.entry.WithField("verbose", true).Debug(args...) }
func (l *Logrus) Info(args ...any)    { l.entry.Info(args...) }
func (l *Logrus) Warn(args ...any)    { l.entry.Warn(args...) }
func (l *Logrus) Error(args ...any)   { l.entry.Error(args...) }

// New builds a logrus logger for the given level name ("silly", "verbose" and
// the logrus level names are accepted) and format ("json" or "text").
func New(level, format string) (*logrus.Logger, error) {
	l := logrus.New()
	switch strings.ToLower(format) {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	l.SetLevel(lvl)
	return l, nil
}

// ParseLevel maps a level name to a logrus level.
func ParseLevel(level string) (logrus.Level, error) {
	switch strings.ToLower(level) {
	case "":
		return logrus.InfoLevel, nil
	case "silly":
		return logrus.TraceLevel, nil
	case "verbose":
		return logrus.DebugLevel, nil
	}
	return logrus.ParseLevel(level)
}
