package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers used to classify failures at the job boundary.
var (
	ErrValidation    = errors.New("validation error")
	ErrAssetSecurity = errors.New("asset security error")
	ErrCollaborator  = errors.New("collaborator error")
	ErrTimeout       = errors.New("timeout")
	ErrConfiguration = errors.New("configuration error")
	ErrInternal      = errors.New("internal error")
)

// Error is a structured failure with a stable machine-readable code, a human
// message, and an actionable suggestion. Detail carries truncated diagnostic
// context (collaborator response bodies, violation lists) and is never the
// primary surface.
type Error struct {
	Code       string   `json:"error_code"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
	Detail     []string `json:"detail,omitempty"`

	marker error
	cause  error
}

const maxDetailLen = 500

// NewError constructs a structured error tagged with the given marker.
func NewError(marker error, code, message, suggestion string) *Error {
	if marker == nil {
		marker = ErrInternal
	}
	return &Error{Code: code, Message: message, Suggestion: suggestion, marker: marker}
}

// WithDetail attaches truncated diagnostic detail lines.
func (e *Error) WithDetail(lines ...string) *Error {
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > maxDetailLen {
			line = line[:maxDetailLen]
		}
		e.Detail = append(e.Detail, line)
	}
	return e
}

// WithCause records the underlying error for unwrapping.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports marker identity so errors.Is(err, services.ErrTimeout) works
// across wrapping.
func (e *Error) Is(target error) bool {
	return target == e.marker
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Wrap builds an error that includes operation context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinels above.
func Wrap(marker error, operation, message string, err error) error {
	if marker == nil {
		marker = ErrInternal
	}
	detail := buildDetail(operation, message)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// AsError extracts the structured *Error from err, synthesizing one from the
// sentinel classification when err carries no structure of its own.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var structured *Error
	if errors.As(err, &structured) {
		return structured
	}
	switch {
	case errors.Is(err, ErrValidation):
		return NewError(ErrValidation, "VALIDATION_FAILED", err.Error(),
			"Check required fields: product_name (string), version (string).")
	case errors.Is(err, ErrAssetSecurity):
		return NewError(ErrAssetSecurity, "ASSET_REJECTED", err.Error(),
			"Check the paths in images[] and attachments[].")
	case errors.Is(err, ErrTimeout):
		return NewError(ErrTimeout, "COLLABORATOR_TIMEOUT", err.Error(),
			"Increase pdfservices.poll_timeout or retry later.")
	case errors.Is(err, ErrCollaborator):
		return NewError(ErrCollaborator, "COLLABORATOR_ERROR", err.Error(),
			"Check API credentials and the input format.")
	case errors.Is(err, ErrConfiguration):
		return NewError(ErrConfiguration, "CONFIGURATION_ERROR", err.Error(),
			"Review the docpress configuration file.")
	default:
		return NewError(ErrInternal, "INTERNAL_ERROR", err.Error(), "")
	}
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
