// Package logging configures the process-wide logrus logger used by every
// other package: connection lifecycle, parse/patch errors, and the config
// hot-reload path all log through the instance New returns.
package logging

import (
	"github.com/sirupsen/logrus"
)

// New builds a logrus.Logger at the given level ("debug", "info", "warn",
// "error"; an unrecognized level falls back to info) with a text formatter
// carrying full timestamps, matching the level-from-string pattern used
// throughout the CLI surface this package replaces.
func New(level string) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lv, err := logrus.ParseLevel(level)
	if err != nil {
		lv = logrus.InfoLevel
	}
	l.SetLevel(lv)
	return l
}

// ConnectionFields returns the base logrus.Fields every connection-scoped
// log line carries, so handlers don't have to repeat the connection id.
func ConnectionFields(connID string) logrus.Fields {
	return logrus.Fields{"conn": connID}
}
