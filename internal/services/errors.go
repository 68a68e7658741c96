package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrExternalTool  = errors.New("external tool error")
	ErrEmptyResult   = errors.New("empty result")
	ErrIO            = errors.New("io error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrConfiguration = errors.New("configuration error")
)

var markers = []error{
	ErrValidation,
	ErrExternalTool,
	ErrEmptyResult,
	ErrIO,
	ErrNotFound,
	ErrTimeout,
	ErrConfiguration,
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Validationf returns a validation error whose user-facing message is the
// formatted text.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Marker reports which sentinel the error carries, or nil for unclassified errors.
func Marker(err error) error {
	if err == nil {
		return nil
	}
	for _, marker := range markers {
		if errors.Is(err, marker) {
			return marker
		}
	}
	return nil
}

// UserMessage returns the error text with the leading marker label removed so
// it can be shown to a caller without repeating the classification.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if marker := Marker(err); marker != nil {
		msg = strings.TrimPrefix(msg, marker.Error()+": ")
	}
	return strings.TrimSpace(msg)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
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
