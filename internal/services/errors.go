package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingInput  = errors.New("missing input")
	ErrSynthesis     = errors.New("synthesis error")
	ErrProbe         = errors.New("probe error")
	ErrConcatenation = errors.New("concatenation error")
	ErrIO            = errors.New("io error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
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

// Kind names the failure class of err. Unclassified errors report "unknown".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingInput):
		return "missing_input"
	case errors.Is(err, ErrSynthesis):
		return "synthesis"
	case errors.Is(err, ErrConcatenation):
		return "concatenation"
	case errors.Is(err, ErrProbe):
		return "probe"
	case errors.Is(err, ErrIO):
		return "io"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "unknown"
	}
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
		return "engine failure"
	}
	return strings.Join(parts, ": ")
}
