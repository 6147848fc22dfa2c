package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML or PDF parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeSpreadsheet represents workbook read/write errors
	ErrorTypeSpreadsheet ErrorType = "spreadsheet"
	// ErrorTypeUnknown is reported by TypeOf for untyped errors
	ErrorTypeUnknown ErrorType = "unknown"
)

// ScrapeError represents a pipeline error tied to a source
type ScrapeError struct {
	Type    ErrorType
	Source  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Source, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if running the command again may succeed
func (e *ScrapeError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork:
		return true
	case ErrorTypeRateLimit:
		return false
	case ErrorTypeParsing:
		return false
	default:
		return false
	}
}

// TypeOf returns the ErrorType of the first ScrapeError in err's chain
func TypeOf(err error) ErrorType {
	var se *ScrapeError
	if stderrors.As(err, &se) {
		return se.Type
	}
	return ErrorTypeUnknown
}

// IsRetryable reports whether err carries a retryable ScrapeError
func IsRetryable(err error) bool {
	var se *ScrapeError
	if stderrors.As(err, &se) {
		return se.IsRetryable()
	}
	return false
}

// New creates a new ScrapeError
func New(errType ErrorType, source, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		Source:  source,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(source, message string, err error) *ScrapeError {
	return New(ErrorTypeNetwork, source, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(source, message string, err error) *ScrapeError {
	return New(ErrorTypeParsing, source, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(source string, duration time.Duration) *ScrapeError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, source, message, nil)
}

// NewCache creates a new cache error
func NewCache(source, message string, err error) *ScrapeError {
	return New(ErrorTypeCache, source, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(source, message string, err error) *ScrapeError {
	return New(ErrorTypePublisher, source, message, err)
}

// NewValidation creates a new validation error
func NewValidation(source, message string) *ScrapeError {
	return New(ErrorTypeValidation, source, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// NewSpreadsheet creates a new spreadsheet error
func NewSpreadsheet(path, message string, err error) *ScrapeError {
	return New(ErrorTypeSpreadsheet, path, message, err)
}
