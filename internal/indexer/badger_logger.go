package indexer

import (
	"fmt"
	"log/slog"
	"strings"
)

// badgerLogger routes badger's printf-style logger into slog. Badger's info
// output is routine compaction chatter, so it lands at debug.
type badgerLogger struct {
	logger *slog.Logger
}

func newBadgerLogger(logger *slog.Logger) *badgerLogger {
	return &badgerLogger{logger: logger.With("subsystem", "badger")}
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(trim(format, args))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(trim(format, args))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(trim(format, args))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(trim(format, args))
}

func trim(format string, args []interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
