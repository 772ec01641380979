package logging

import (
	"fmt"
	"os"
	"sort"
	"time"
)

// writeLog formats one line and routes it by severity: ERROR and FATAL go
// to stderr, everything else to stdout. Fields render sorted by key so
// output is stable.
func (l *Logger) writeLog(level, msg string, fields map[string]interface{}) {
	line := fmt.Sprintf("[%s] [%s] %s: %s", GetTimestamp(), level, l.name, msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		line += " |"
		for _, k := range keys {
			line += fmt.Sprintf(" %s=%v", k, fields[k])
		}
	}

	if level == "ERROR" || level == "FATAL" {
		fmt.Fprintln(os.Stderr, line)
	} else {
		fmt.Fprintln(os.Stdout, line)
	}
}

func (l *Logger) logf(level, msg string, args ...interface{}) {
	l.writeLog(level, fmt.Sprintf(msg, args...), l.fields)
}

func (l *Logger) logWithFields(level, msg string, fields ...LogField) {
	if len(fields) == 0 {
		l.writeLog(level, msg, l.fields)
		return
	}
	merged := cloneFields(l.fields)
	for _, f := range fields {
		merged[f.Key] = f.Value
	}
	l.writeLog(level, msg, merged)
}

// GetTimestamp returns the RFC3339 timestamp used for log lines. The
// LOG_TIMESTAMP env var overrides it for deterministic test output.
func GetTimestamp() string {
	if override := os.Getenv("LOG_TIMESTAMP"); override != "" {
		return override
	}
	return time.Now().Format(time.RFC3339)
}
