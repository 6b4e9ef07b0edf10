package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// JSONLogger writes one JSON object per log entry, suitable for
// file output and log shipping.
type JSONLogger struct {
	mu       sync.Mutex
	output   io.Writer
	closer   io.Closer
	minLevel LogLevel
	fields   []Field
}

// jsonEntry is the on-disk structure of a single log line.
type jsonEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// NewJSONLogger creates a JSON logger writing to the given
// writer at the given minimum level.
func NewJSONLogger(w io.Writer, minLevel LogLevel) *JSONLogger {
	return &JSONLogger{output: w, minLevel: minLevel}
}

// NewJSONFileLogger creates a JSON logger appending to the file
// at path, creating it if necessary.
func NewJSONFileLogger(
	path string, minLevel LogLevel,
) (*JSONLogger, error) {
	f, err := os.OpenFile(
		path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644,
	)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return &JSONLogger{
		output:   f,
		closer:   f,
		minLevel: minLevel,
	}, nil
}

func (j *JSONLogger) log(
	level LogLevel, msg string, fields ...Field,
) {
	if level < j.minLevel {
		return
	}

	entry := jsonEntry{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   msg,
	}
	all := mergeFields(j.fields, fields)
	if len(all) > 0 {
		entry.Fields = make(map[string]any, len(all))
		for _, f := range all {
			entry.Fields[f.Key] = f.Value
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	fmt.Fprintln(j.output, string(data))
}

// Info logs an informational message.
func (j *JSONLogger) Info(msg string, fields ...Field) {
	j.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (j *JSONLogger) Warn(msg string, fields ...Field) {
	j.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (j *JSONLogger) Error(msg string, fields ...Field) {
	j.log(LevelError, msg, fields...)
}

// Debug logs a debug-level message.
func (j *JSONLogger) Debug(msg string, fields ...Field) {
	j.log(LevelDebug, msg, fields...)
}

// WithFields returns a new Logger with additional default
// fields.
func (j *JSONLogger) WithFields(fields ...Field) Logger {
	return &JSONLogger{
		output:   j.output,
		closer:   j.closer,
		minLevel: j.minLevel,
		fields:   mergeFields(j.fields, fields),
	}
}

// Close closes the underlying file, if any.
func (j *JSONLogger) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
