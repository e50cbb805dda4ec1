// Package logger configures the console logger.
package logger

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns a text logger writing to w at the given level. Unknown levels
// fall back to info.
func New(w io.Writer, level string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})

	l.SetLevel(logrus.InfoLevel)
	if s := strings.ToLower(strings.TrimSpace(level)); s != "" {
		lvl, err := logrus.ParseLevel(s)
		if err != nil {
			l.WithField("configured_level", level).Warn("invalid log level, defaulting to info")
		} else {
			l.SetLevel(lvl)
		}
	}
	return l
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
