package helpers

import (
	"fmt"
	"os"
	"time"

	"sjsage522/carsales/logger"
)

// LoggerInterface defines the interface for failure log implementations
type LoggerInterface interface {
	LogError(command string, err error)
}

// Logger appends failed runs to a plain-text file for later review
type Logger struct {
	errorFile string
}

// NewLogger creates a new logger instance
func NewLogger(errorFile string) *Logger {
	return &Logger{
		errorFile: errorFile,
	}
}

// LogError logs an error to a file with command name and timestamp
func (l *Logger) LogError(command string, err error) {
	f, fileErr := os.OpenFile(l.errorFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if fileErr != nil {
		logger.Error("Failed to open error log %s: %v", l.errorFile, fileErr)
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(f, "[%s] [%s] %s\n", timestamp, command, err.Error())
}

// NopLogger discards everything
type NopLogger struct{}

func (NopLogger) LogError(string, error) {}
