// Package errors provides standardized error handling for the HTTP and workflow entry points.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeConfigurationMissing ErrorCode = "CONFIGURATION_MISSING"
	ErrCodeInvalidRequest       ErrorCode = "INVALID_REQUEST"

	ErrCodeIntentParsingFailed ErrorCode = "INTENT_PARSING_FAILED"
	ErrCodeIntentAPITimeout    ErrorCode = "INTENT_API_TIMEOUT"
	ErrCodeLLMTimeout          ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMSynthesisFailed  ErrorCode = "LLM_SYNTHESIS_FAILED"

	ErrCodeLiveSourceFailed       ErrorCode = "LIVE_SOURCE_FAILED"
	ErrCodeSourceParseFailed      ErrorCode = "SOURCE_PARSE_FAILED"
	ErrCodeFallbackFileMissing    ErrorCode = "FALLBACK_FILE_MISSING"
	ErrCodeFallbackFileUnreadable ErrorCode = "FALLBACK_FILE_UNREADABLE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
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

func newError(code ErrorCode, message string, cause error) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewConfigurationMissingError reports a required setting that is absent.
func NewConfigurationMissingError(setting string) *StandardError {
	e := newError(ErrCodeConfigurationMissing, "Required configuration is missing", nil)
	e.Details = fmt.Sprintf("setting: %s", setting)
	return e
}

// NewInvalidRequestError reports a malformed inbound request.
func NewInvalidRequestError(details string) *StandardError {
	e := newError(ErrCodeInvalidRequest, "Invalid request", nil)
	e.Details = details
	return e
}

// NewIntentParsingFailedError reports a classifier reply that is not a valid decision.
func NewIntentParsingFailedError(err error) *StandardError {
	return newError(ErrCodeIntentParsingFailed, "Intent classification returned an invalid decision", err)
}

// NewIntentAPITimeoutError reports a classifier call that exceeded its deadline.
func NewIntentAPITimeoutError(err error) *StandardError {
	return newError(ErrCodeIntentAPITimeout, "Intent classification timeout", err)
}

// NewLLMTimeoutError reports a synthesis call that exceeded its deadline.
func NewLLMTimeoutError(err error) *StandardError {
	return newError(ErrCodeLLMTimeout, "LLM synthesis timeout", err)
}

// NewLLMSynthesisFailedError reports a failed synthesis call.
func NewLLMSynthesisFailedError(err error) *StandardError {
	return newError(ErrCodeLLMSynthesisFailed, "LLM synthesis API error", err)
}

// NewLiveSourceFailedError reports a live board request that did not return a payload.
func NewLiveSourceFailedError(boardID string, err error) *StandardError {
	return newError(ErrCodeLiveSourceFailed, "Live source request failed", err).
		WithMetadata("boardId", boardID)
}

// NewSourceParseFailedError reports a live payload that does not have the expected structure.
func NewSourceParseFailedError(boardID string, err error) *StandardError {
	return newError(ErrCodeSourceParseFailed, "Live source payload has an unexpected structure", err).
		WithMetadata("boardId", boardID)
}

// NewFallbackFileMissingError reports a fallback spreadsheet that does not exist.
func NewFallbackFileMissingError(path string) *StandardError {
	e := newError(ErrCodeFallbackFileMissing, "Fallback file not found", nil)
	e.Details = fmt.Sprintf("path: %s", path)
	return e.WithMetadata("path", path)
}

// NewFallbackFileUnreadableError reports a fallback spreadsheet that could not be parsed.
func NewFallbackFileUnreadableError(path string, err error) *StandardError {
	return newError(ErrCodeFallbackFileUnreadable, "Fallback file could not be read", err).
		WithMetadata("path", path)
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeConfigurationMissing:   "CONFIGURATION_MISSING",
	ErrCodeInvalidRequest:         "INVALID_REQUEST",
	ErrCodeIntentParsingFailed:    "INTENT_PARSING_FAILED",
	ErrCodeIntentAPITimeout:       "INTENT_API_TIMEOUT",
	ErrCodeLLMTimeout:             "LLM_TIMEOUT",
	ErrCodeLLMSynthesisFailed:     "LLM_SYNTHESIS_FAILED",
	ErrCodeLiveSourceFailed:       "LIVE_SOURCE_FAILED",
	ErrCodeSourceParseFailed:      "SOURCE_PARSE_FAILED",
	ErrCodeFallbackFileMissing:    "FALLBACK_FILE_MISSING",
	ErrCodeFallbackFileUnreadable: "FALLBACK_FILE_UNREADABLE",
	ErrCodeInternal:               "INTERNAL_ERROR",
}

// GetRetryCount returns the retry budget for a code. No external call is retried.
func GetRetryCount(code ErrorCode) int {
	return 0
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError finds a StandardError in err's chain, or wraps err as INTERNAL_ERROR.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// CodeOf returns the code of the first StandardError in err's chain.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	return AsStandardError(err).Code
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CONFIGURATION"):
		return "CONFIGURATION"
	case strings.Contains(codeStr, "INTENT") || strings.Contains(codeStr, "LLM"):
		return "AI"
	case strings.Contains(codeStr, "SOURCE") || strings.Contains(codeStr, "FALLBACK"):
		return "SOURCE"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// HTTPStatus maps an error code to the status returned by the HTTP surface.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeIntentAPITimeout, ErrCodeLLMTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeIntentParsingFailed, ErrCodeLLMSynthesisFailed, ErrCodeLiveSourceFailed, ErrCodeSourceParseFailed:
		return http.StatusBadGateway
	case ErrCodeConfigurationMissing:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
