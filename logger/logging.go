// Package logger is a small logging facade used throughout the actor
// runtime. Components never import logrus directly; they depend on the
// Logger interface so that callers embedding this module can swap the
// backing implementation without touching actor, router or master code.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the logging surface every supervised component depends on.
// It mirrors the common "structured, leveled" logging idiom rather than
// a single Println, since actors and the Master both need to tag output
// with stable fields (name, bound address) without re-formatting strings
// at every call site.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})

	// WithField returns a derived Logger carrying an additional
	// structured field; used to tag a logger with an actor name or a
	// bound host:port once, instead of repeating it at every call.
	WithField(key string, value interface{}) Logger
}

// entry adapts a *logrus.Entry to the Logger interface.
type entry struct {
	e *logrus.Entry
}

// New returns a Logger writing to w (stderr if nil), tagged with name.
// debug raises the level to logrus.DebugLevel; otherwise logrus.InfoLevel.
func New(name string, debug bool, w io.Writer) Logger {
	if w == nil {
		w = os.Stderr
	}

	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if debug {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}

	return &entry{e: l.WithField("component", name)}
}

// Discard returns a Logger that drops everything written to it; useful
// as a zero-value-friendly default for components constructed without an
// explicit logger.
func Discard() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &entry{e: l.WithField("component", "discard")}
}

func (l *entry) Debugf(format string, args ...interface{}) { l.e.Debugf(format, args...) }
func (l *entry) Infof(format string, args ...interface{})  { l.e.Infof(format, args...) }
func (l *entry) Warnf(format string, args ...interface{})  { l.e.Warnf(format, args...) }
func (l *entry) Errorf(format string, args ...interface{}) { l.e.Errorf(format, args...) }

func (l *entry) WithField(key string, value interface{}) Logger {
	return &entry{e: l.e.WithField(key, value)}
}
