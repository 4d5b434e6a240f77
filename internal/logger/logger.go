// Package logger provides leveled logging with support for debug, info, warn, and error levels.
// Output is either plain text lines or one JSON object per line, selected by Init.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents a logging level
type Level int

const (
	// DebugLevel logs are typically voluminous, and are usually disabled in production.
	DebugLevel Level = iota
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs are more important than Info, but don't need individual human review.
	WarnLevel
	// ErrorLevel logs are high-priority.
	ErrorLevel
)

var levelNames = map[Level]string{
	DebugLevel: "debug",
	InfoLevel:  "info",
	WarnLevel:  "warn",
	ErrorLevel: "error",
}

// Logger provides leveled logging
type Logger struct {
	level  Level
	json   bool
	out    io.Writer
	logger *log.Logger
	mu     sync.Mutex
}

var (
	// Global logger instance
	defaultLogger *Logger
)

// ParseLevel converts a level name into a Level. Unknown names map to InfoLevel.
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Init initializes the default logger with the specified level and format ("json" or "text").
func Init(level string, format string) {
	initWithOutput(ParseLevel(level), format, os.Stderr)
}

// SetOutput redirects the default logger, keeping its level and format.
func SetOutput(w io.Writer) {
	if defaultLogger == nil {
		initWithOutput(InfoLevel, "text", w)
		return
	}
	initWithOutput(defaultLogger.level, formatName(defaultLogger.json), w)
}

func formatName(isJSON bool) string {
	if isJSON {
		return "json"
	}
	return "text"
}

func initWithOutput(l Level, format string, w io.Writer) {
	isJSON := strings.ToLower(format) == "json"

	flags := log.LstdFlags | log.Lmicroseconds
	if isJSON {
		flags = 0
	}

	defaultLogger = &Logger{
		level:  l,
		json:   isJSON,
		out:    w,
		logger: log.New(w, "", flags),
	}
}

func output(l Level, format string, args ...interface{}) {
	if defaultLogger == nil || defaultLogger.level > l {
		return
	}
	msg := fmt.Sprintf(format, args...)

	if defaultLogger.json {
		line, err := json.Marshal(struct {
			Time  string `json:"time"`
			Level string `json:"level"`
			Msg   string `json:"msg"`
		}{
			Time:  time.Now().UTC().Format(time.RFC3339Nano),
			Level: levelNames[l],
			Msg:   msg,
		})
		if err != nil {
			return
		}
		defaultLogger.mu.Lock()
		_, _ = defaultLogger.out.Write(append(line, '\n'))
		defaultLogger.mu.Unlock()
		return
	}

	_ = defaultLogger.logger.Output(3, "["+strings.ToUpper(levelNames[l])+"] "+msg)
}

// Debug logs a message at DebugLevel
func Debug(format string, args ...interface{}) {
	output(DebugLevel, format, args...)
}

// Info logs a message at InfoLevel
func Info(format string, args ...interface{}) {
	output(InfoLevel, format, args...)
}

// Warn logs a message at WarnLevel
func Warn(format string, args ...interface{}) {
	output(WarnLevel, format, args...)
}

// Error logs a message at ErrorLevel
func Error(format string, args ...interface{}) {
	output(ErrorLevel, format, args...)
}

// Fatal logs a message at ErrorLevel and exits
func Fatal(format string, args ...interface{}) {
	msg := fmt.Sprintf("[FATAL] "+format, args...)
	if defaultLogger != nil {
		_ = defaultLogger.logger.Output(2, msg)
	} else {
		log.Print(msg)
	}
	os.Exit(1)
}

// MaskSecret keeps the first and last four characters of a secret.
// Secrets of eight characters or fewer are fully masked.
func MaskSecret(secret string) string {
	if secret == "" {
		return "NOT FOUND"
	}
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

// MaskInString replaces every occurrence of secret in s with its masked form.
func MaskInString(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, MaskSecret(secret))
}
