// Package logger provides the leveled logger used across the migration job.
// It wraps the standard `log` package, filters messages by level and offers a
// key/value form for lines that operators grep for.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
)

// LogLevel is a type representing the logging level.
type LogLevel int

const (
	// LevelDebug is the log level used for detailed debugging information.
	LevelDebug LogLevel = iota
	// LevelInfo is the log level used for general informational messages.
	LevelInfo
	// LevelWarn is the log level used for potential issues or warning messages.
	LevelWarn
	// LevelError is the log level used for error messages.
	LevelError
	// LevelFatal is the log level used for fatal error messages that cause application termination.
	LevelFatal
)

var (
	mu       sync.RWMutex
	logLevel = LevelInfo
	std      = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
)

// SetLogLevel sets the global log level.
// Valid values are "DEBUG", "INFO", "WARN", "ERROR", "FATAL" (case-insensitive).
// Unknown values fall back to INFO.
func SetLogLevel(level string) {
	mu.Lock()
	defer mu.Unlock()

	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG", "TRACE":
		logLevel = LevelDebug
	case "INFO":
		logLevel = LevelInfo
	case "WARN":
		logLevel = LevelWarn
	case "ERROR":
		logLevel = LevelError
	case "FATAL":
		logLevel = LevelFatal
	default:
		fmt.Fprintf(os.Stderr, "Unknown log level '%s' specified. Defaulting to INFO level.\n", level)
		logLevel = LevelInfo
	}
}

// SetOutput redirects log output. Tests use it to capture lines.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

func enabled(level LogLevel) bool {
	mu.RLock()
	defer mu.RUnlock()
	return logLevel <= level
}

// Debugf formats and outputs a DEBUG level log message.
func Debugf(format string, v ...interface{}) {
	if enabled(LevelDebug) {
		std.Printf("[DEBUG] "+format, v...)
	}
}

// Infof formats and outputs an INFO level log message.
func Infof(format string, v ...interface{}) {
	if enabled(LevelInfo) {
		std.Printf("[INFO] "+format, v...)
	}
}

// Warnf formats and outputs a WARN level log message.
func Warnf(format string, v ...interface{}) {
	if enabled(LevelWarn) {
		std.Printf("[WARN] "+format, v...)
	}
}

// Errorf formats and outputs an ERROR level log message.
func Errorf(format string, v ...interface{}) {
	if enabled(LevelError) {
		std.Printf("[ERROR] "+format, v...)
	}
}

// Fatalf outputs a FATAL level log message and terminates the program.
func Fatalf(format string, v ...interface{}) {
	std.Fatalf("[FATAL] "+format, v...)
}

// Debugw outputs a DEBUG level message followed by key=value pairs.
func Debugw(msg string, keysAndValues ...interface{}) {
	if enabled(LevelDebug) {
		std.Print("[DEBUG] " + Structured(msg, keysAndValues...))
	}
}

// Infow outputs an INFO level message followed by key=value pairs.
//
//	logger.Infow("cutoffs resolved", "migration_cutoff", t1, "processing_cutoff", t2)
func Infow(msg string, keysAndValues ...interface{}) {
	if enabled(LevelInfo) {
		std.Print("[INFO] " + Structured(msg, keysAndValues...))
	}
}

// Warnw outputs a WARN level message followed by key=value pairs.
func Warnw(msg string, keysAndValues ...interface{}) {
	if enabled(LevelWarn) {
		std.Print("[WARN] " + Structured(msg, keysAndValues...))
	}
}

// Structured renders msg and the key/value pairs as a single line.
// Pairs are sorted by key so the same fields always appear in the same order.
// A trailing key without a value is rendered with the value "MISSING".
func Structured(msg string, keysAndValues ...interface{}) string {
	type pair struct {
		key   string
		value string
	}
	pairs := make([]pair, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		value := "MISSING"
		if i+1 < len(keysAndValues) {
			value = formatValue(keysAndValues[i+1])
		}
		pairs = append(pairs, pair{key: key, value: value})
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	var b strings.Builder
	b.WriteString(msg)
	for _, p := range pairs {
		b.WriteByte(' ')
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(p.value)
	}
	return b.String()
}

func formatValue(v interface{}) string {
	if v == nil {
		return "null"
	}
	s := fmt.Sprint(v)
	if s == "<nil>" {
		return "null"
	}
	if strings.ContainsAny(s, " \t\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
