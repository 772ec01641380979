// Package logging provides leveled, named loggers for cloudsleuth.
//
// Initialize once at startup, then grab a named logger per component:
//
//	logging.Initialize("info")
//	logger := logging.GetLogger("orchestrator")
//	logger.Info("fetching %d datasources", n)
//
// Structured fields travel either per call or pinned to a child logger:
//
//	logger.InfoWithFields("fetch complete", logging.Field("source", label))
//	runLogger := logger.WithField("run_id", runID)
//
// Per-package levels override the default and support trailing ".*"
// wildcards:
//
//	logging.Initialize("info", map[string]string{"awsclient.*": "debug"})
//
// Logger values are immutable; WithName, WithField and WithFields return
// clones, so loggers are safe to share across goroutines.
package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// LogLevel orders message severities.
type LogLevel int

const (
	// DEBUG level for detailed debugging information
	DEBUG LogLevel = iota
	// INFO level for informational messages
	INFO
	// WARN level for warning messages
	WARN
	// ERROR level for error messages
	ERROR
	// FATAL level for fatal messages
	FATAL
)

// LogField is one structured key/value pair attached to a log line.
type LogField struct {
	Key   string
	Value interface{}
}

// Field creates a structured logging field.
func Field(key string, value interface{}) LogField {
	return LogField{Key: key, Value: value}
}

// Logger writes leveled log lines tagged with a component name.
type Logger struct {
	level  LogLevel
	name   string
	fields map[string]interface{}
}

var (
	globalLogger *Logger
	initOnce     sync.Once

	// exitFunc is called by Fatal to terminate the program.
	// Overridable for tests.
	exitFunc = os.Exit

	packageLevels = make(map[string]LogLevel)
	packageMutex  sync.RWMutex
)

// Initialize sets the default level for all loggers created afterwards,
// plus optional per-package overrides ({"awsclient": "debug", "tui.*": "warn"}).
func Initialize(levelStr string, overrides ...map[string]string) error {
	level, err := parseLevel(levelStr)
	if err != nil {
		level = INFO
	}

	globalLogger = &Logger{level: level, name: "cloudsleuth"}

	if len(overrides) > 0 && overrides[0] != nil {
		if err := SetPackageLogLevels(overrides[0]); err != nil {
			return err
		}
	}
	return nil
}

// GetLogger returns a logger with the given component name, lazily
// initializing the default level to INFO on first use.
func GetLogger(name string) *Logger {
	initOnce.Do(func() {
		if globalLogger == nil {
			_ = Initialize("info")
		}
	})
	return &Logger{
		level:  globalLogger.level,
		name:   name,
		fields: make(map[string]interface{}),
	}
}

// SetPackageLogLevels replaces the per-package override table. Keys are
// logger names or "prefix.*" patterns, values are level strings.
func SetPackageLogLevels(levels map[string]string) error {
	if levels == nil {
		return nil
	}

	packageMutex.Lock()
	defer packageMutex.Unlock()

	packageLevels = make(map[string]LogLevel, len(levels))
	for pkg, levelStr := range levels {
		level, err := parseLevel(levelStr)
		if err != nil {
			return fmt.Errorf("invalid log level for package %q: %w", pkg, err)
		}
		packageLevels[pkg] = level
	}
	return nil
}

// getPackageLogLevel returns the override level for a logger name, or -1.
// Exact matches win over wildcards; longer wildcards win over shorter ones.
func getPackageLogLevel(name string) LogLevel {
	packageMutex.RLock()
	defer packageMutex.RUnlock()

	if level, ok := packageLevels[name]; ok {
		return level
	}

	best := ""
	for pattern := range packageLevels {
		if !strings.HasSuffix(pattern, ".*") {
			continue
		}
		prefix := strings.TrimSuffix(pattern, ".*")
		if strings.HasPrefix(name, prefix+".") && len(pattern) > len(best) {
			best = pattern
		}
	}
	if best != "" {
		return packageLevels[best]
	}
	return LogLevel(-1)
}

func parseLevel(levelStr string) (LogLevel, error) {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return DEBUG, nil
	case "INFO":
		return INFO, nil
	case "WARN":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	case "FATAL":
		return FATAL, nil
	default:
		return -1, fmt.Errorf("invalid level: %s (must be DEBUG, INFO, WARN, ERROR, or FATAL)", levelStr)
	}
}

func (l *Logger) shouldLog(level LogLevel) bool {
	if pkgLevel := getPackageLogLevel(l.name); pkgLevel >= 0 {
		return level >= pkgLevel
	}
	return level >= l.level
}

// WithName returns a clone of the logger under a different component name.
func (l *Logger) WithName(name string) *Logger {
	return &Logger{level: l.level, name: name, fields: cloneFields(l.fields)}
}

// WithField returns a clone carrying one additional persistent field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	clone := &Logger{level: l.level, name: l.name, fields: cloneFields(l.fields)}
	clone.fields[key] = value
	return clone
}

// WithFields returns a clone carrying additional persistent fields.
func (l *Logger) WithFields(fields ...LogField) *Logger {
	clone := &Logger{level: l.level, name: l.name, fields: cloneFields(l.fields)}
	for _, f := range fields {
		clone.fields[f.Key] = f.Value
	}
	return clone
}

// Debug logs a formatted debug message.
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.shouldLog(DEBUG) {
		l.logf("DEBUG", msg, args...)
	}
}

// Info logs a formatted info message.
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.shouldLog(INFO) {
		l.logf("INFO", msg, args...)
	}
}

// Warn logs a formatted warning message.
func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.shouldLog(WARN) {
		l.logf("WARN", msg, args...)
	}
}

// Error logs a formatted error message.
func (l *Logger) Error(msg string, args ...interface{}) {
	if l.shouldLog(ERROR) {
		l.logf("ERROR", msg, args...)
	}
}

// Fatal logs a formatted message and exits the program with code 1.
func (l *Logger) Fatal(msg string, args ...interface{}) {
	if l.shouldLog(FATAL) {
		l.logf("FATAL", msg, args...)
		exitFunc(1)
	}
}

// DebugWithFields logs a debug message with structured fields.
func (l *Logger) DebugWithFields(msg string, fields ...LogField) {
	if l.shouldLog(DEBUG) {
		l.logWithFields("DEBUG", msg, fields...)
	}
}

// InfoWithFields logs an info message with structured fields.
func (l *Logger) InfoWithFields(msg string, fields ...LogField) {
	if l.shouldLog(INFO) {
		l.logWithFields("INFO", msg, fields...)
	}
}

// WarnWithFields logs a warning message with structured fields.
func (l *Logger) WarnWithFields(msg string, fields ...LogField) {
	if l.shouldLog(WARN) {
		l.logWithFields("WARN", msg, fields...)
	}
}

// ErrorWithFields logs an error message with structured fields.
func (l *Logger) ErrorWithFields(msg string, fields ...LogField) {
	if l.shouldLog(ERROR) {
		l.logWithFields("ERROR", msg, fields...)
	}
}

// FatalWithFields logs a fatal message with structured fields and exits
// the program with code 1.
func (l *Logger) FatalWithFields(msg string, fields ...LogField) {
	if l.shouldLog(FATAL) {
		l.logWithFields("FATAL", msg, fields...)
		exitFunc(1)
	}
}

func cloneFields(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
