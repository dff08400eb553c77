// Package errors provides the service error taxonomy shared by the HTTP and
// workflow transports.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrCodeConfiguration      ErrorCode = "CONFIGURATION_ERROR"
	ErrCodeProviderTimeout    ErrorCode = "PROVIDER_TIMEOUT"
	ErrCodeProviderError      ErrorCode = "PROVIDER_ERROR"
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.Cause
}

// Is matches another *StandardError by code so callers can compare against
// a template such as &StandardError{Code: ErrCodeInvalidInput}.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInvalidInputError reports unusable caller input. Never retried.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Text cannot be empty or just whitespace",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigurationError reports a startup misconfiguration such as missing
// provider credentials.
func NewConfigurationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfiguration,
		Message:   "Service is not configured",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderTimeoutError reports that every attempt timed out.
func NewProviderTimeoutError(provider string, attempts int) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderTimeout,
		Message:   "Request timeout - the analysis took too long. Please try again.",
		Details:   fmt.Sprintf("provider %s timed out after %d attempts", provider, attempts),
		Retryable: true,
		Metadata: map[string]interface{}{
			"provider": provider,
			"attempts": attempts,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderError wraps the last adapter failure once retries are exhausted.
func NewProviderError(provider string, cause error) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      ErrCodeProviderError,
		Message:   "Failed to analyze sentiment",
		Details:   details,
		Retryable: true,
		Metadata:  map[string]interface{}{"provider": provider},
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

// NewServiceUnavailableError reports that no analyzer is available.
func NewServiceUnavailableError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeServiceUnavailable,
		Message:   "Sentiment analysis service is currently unavailable. Please check your API keys.",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(cause error) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "An unexpected error occurred while processing your request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

// ==========================
// 4. Classification
// ==========================

// Normalize returns err as a *StandardError, wrapping foreign errors as
// INTERNAL_ERROR. A nil error yields nil.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if !stderrors.As(err, &stdErr) {
		return false
	}
	return stdErr.Code == code
}

// HTTPStatus maps an error code to the HTTP status returned to clients.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeConfiguration, ErrCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeProviderTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message shown to HTTP clients.
func (e *StandardError) PublicMessage() string {
	if e.Code == ErrCodeProviderError && e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// GetRetryCount returns the number of workflow retries allowed for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeProviderTimeout, ErrCodeProviderError:
		return 3
	case ErrCodeServiceUnavailable:
		return 1
	default:
		return 0
	}
}

// IsRetryableErrorCode reports whether a workflow job failing with code may be retried.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes for logging.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeInvalidInput:
		return "CLIENT"
	case ErrCodeConfiguration, ErrCodeServiceUnavailable:
		return "CONFIGURATION"
	case ErrCodeProviderTimeout, ErrCodeProviderError:
		return "UPSTREAM"
	default:
		return "INTERNAL"
	}
}

// ConvertToBPMNError maps a StandardError to the error thrown to the workflow engine.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   GetRetryCount(stdErr.Code),
		ErrorVariables: map[string]interface{}{
			"errorCategory": GetErrorCategory(stdErr.Code),
			"timestamp":     stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}
