package gorm

import (
	"fmt"
	"strings"
	"time"

	gormlogger "gorm.io/gorm/logger"

	config "github.com/tigerroll/buildmeta/pkg/batch/core/config"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/logger"
)

// NewGormLogger creates a gorm logger at the configured level. Unknown levels are silent.
func NewGormLogger(level string) gormlogger.Interface {
	var gormLevel gormlogger.LogLevel
	switch config.LogLevel(strings.ToUpper(level)) {
	case config.LogLevelError:
		gormLevel = gormlogger.Error
	case config.LogLevelWarn:
		gormLevel = gormlogger.Warn
	case config.LogLevelInfo, config.LogLevelDebug:
		gormLevel = gormlogger.Info
	default:
		gormLevel = gormlogger.Silent
	}

	return gormlogger.New(
		&GormWriter{},
		gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// GormWriter redirects GORM output to the application logger.
// Statement traces go to DEBUG, everything else (slow queries, errors) to WARN.
type GormWriter struct{}

// Printf implements gormlogger.Writer.
func (w *GormWriter) Printf(format string, v ...interface{}) {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	if isStatementTrace(msg) {
		logger.Debugf("[GORM] %s", msg)
		return
	}
	logger.Warnf("[GORM] %s", msg)
}

func isStatementTrace(msg string) bool {
	if strings.Contains(msg, "SLOW SQL") || strings.Contains(strings.ToLower(msg), "error") {
		return false
	}
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE", "WITH"} {
		if strings.Contains(msg, verb) {
			return true
		}
	}
	return false
}
