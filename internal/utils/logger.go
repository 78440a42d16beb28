package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Logger writes levelled lines to one or more writers. Debug lines are only
// emitted in verbose mode.
type Logger struct {
	file    *os.File
	logger  *log.Logger
	verbose bool
}

func NewLogger(w io.Writer, verbose bool) *Logger {
	return &Logger{
		logger:  log.New(w, "", log.Ldate|log.Ltime),
		verbose: verbose,
	}
}

// NewFileLogger logs to stdout and to logs/<name>/<name>_<timestamp>.log.
func NewFileLogger(logsDir, name string, verbose bool) (*Logger, error) {
	sanitized := strings.ReplaceAll(strings.ToLower(name), " ", "_")

	dir := filepath.Join(logsDir, sanitized)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join(dir, fmt.Sprintf("%s_%s.log", sanitized, timestamp))

	file, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	return &Logger{
		file:    file,
		logger:  log.New(io.MultiWriter(os.Stdout, file), "", log.Ldate|log.Ltime|log.Lmicroseconds),
		verbose: verbose,
	}, nil
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewLogger(io.Discard, false)
}

func (l *Logger) Verbose() bool {
	return l != nil && l.verbose
}

func (l *Logger) LogInfo(format string, v ...interface{}) {
	l.log("INFO", format, v...)
}

func (l *Logger) LogWarn(format string, v ...interface{}) {
	l.log("WARN", format, v...)
}

func (l *Logger) LogError(format string, v ...interface{}) {
	l.log("ERROR", format, v...)
}

func (l *Logger) LogDebug(format string, v ...interface{}) {
	if !l.Verbose() {
		return
	}
	l.log("DEBUG", format, v...)
}

func (l *Logger) log(level string, format string, v ...interface{}) {
	if l == nil {
		return
	}
	message := fmt.Sprintf(format, v...)
	l.logger.Printf("[%s] %s", level, message)
}

func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
