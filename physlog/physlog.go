// Package physlog provides a minimal standard-library-backed implementation
// of github.com/heroiclabs/nakama-common/runtime.Logger for tests and for
// hosts that embed this module outside of a Nakama runtime. The core
// packages never construct a logger themselves — they only accept the
// runtime.Logger interface, the same way the teacher threads a Logger
// through PhysicsEngine, ScriptEngine, and DatabaseManager rather than
// owning logging policy itself.
package physlog

import (
	"log"
	"os"

	"github.com/heroiclabs/nakama-common/runtime"
)

var _ runtime.Logger = (*Logger)(nil)

// Logger implements runtime.Logger on top of the standard log package.
type Logger struct {
	prefix *log.Logger
	fields map[string]interface{}
}

// New returns a Logger writing to stderr.
func New() *Logger {
	return &Logger{prefix: log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)}
}

func (l *Logger) format(level, format string) string {
	if len(l.fields) == 0 {
		return "[" + level + "] " + format
	}
	return "[" + level + "] " + format + " " + fieldsToString(l.fields)
}

func fieldsToString(fields map[string]interface{}) string {
	out := ""
	for k, v := range fields {
		if out != "" {
			out += " "
		}
		out += k + "="
		out += toString(v)
	}
	return out
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case error:
		return t.Error()
	default:
		return "?"
	}
}

func (l *Logger) Debug(format string, v ...interface{}) { l.prefix.Printf(l.format("DEBUG", format), v...) }
func (l *Logger) Info(format string, v ...interface{})  { l.prefix.Printf(l.format("INFO", format), v...) }
func (l *Logger) Warn(format string, v ...interface{})  { l.prefix.Printf(l.format("WARN", format), v...) }
func (l *Logger) Error(format string, v ...interface{}) { l.prefix.Printf(l.format("ERROR", format), v...) }

// WithField returns a derived Logger carrying an additional structured field.
func (l *Logger) WithField(key string, v interface{}) runtime.Logger {
	return l.WithFields(map[string]interface{}{key: v})
}

// WithFields returns a derived Logger carrying additional structured fields.
func (l *Logger) WithFields(fields map[string]interface{}) runtime.Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{prefix: l.prefix, fields: merged}
}

// Fields returns the structured fields attached to this Logger.
func (l *Logger) Fields() map[string]interface{} { return l.fields }
