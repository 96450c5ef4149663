// Package errkind defines the error taxonomy shared across the cleaning
// pipeline. Callers classify failures with errors.Is against the exported
// sentinels.
package errkind

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingInput marks a required input file that is absent.
	ErrMissingInput = errors.New("missing input")
	// ErrFormat marks malformed subtitle content or timestamps.
	ErrFormat = errors.New("format error")
	// ErrAmbiguousStream marks multiple audio streams with no explicit choice.
	ErrAmbiguousStream = errors.New("ambiguous audio stream")
	// ErrInvalidStreamIndex marks a requested stream index not present in the container.
	ErrInvalidStreamIndex = errors.New("invalid stream index")
	// ErrExternalTool marks a non-zero exit from ffmpeg/ffprobe.
	ErrExternalTool = errors.New("external tool error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
