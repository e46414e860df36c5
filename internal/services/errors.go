package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Fatal conditions that terminate a run with a distinct exit status.
var (
	ErrInvalidLanguageSTT         = newExitMarker(100, "source language not supported by speech-to-text", ErrValidation)
	ErrInvalidLanguageTranslation = newExitMarker(101, "language pair not supported by translator", ErrValidation)
	ErrInvalidLanguageTTS         = newExitMarker(102, "target language not supported by text-to-speech", ErrValidation)
	ErrInvalidFileFormat          = newExitMarker(103, "unsupported input file format", ErrValidation)
	ErrMissingHFToken             = newExitMarker(104, "hugging face token required", ErrConfiguration)
	ErrNoFFmpeg                   = newExitMarker(105, "ffmpeg not installed", ErrExternalTool)
	ErrNoCLIConfig                = newExitMarker(108, "cli text-to-speech configuration file required", ErrConfiguration)
	ErrNoTranslationServer        = newExitMarker(109, "apertium server required", ErrConfiguration)
	ErrNoTTSServer                = newExitMarker(110, "text-to-speech api server required", ErrConfiguration)
	ErrUpdateMissingFiles         = newExitMarker(111, "update requires the files of a previous run", ErrNotFound)
	ErrNoOpenAIKey                = newExitMarker(113, "openai api key required", ErrConfiguration)
)

// ExitMarker is a sentinel carrying the process exit status reported when a
// run fails because of it. Markers unwrap to their broader category.
type ExitMarker struct {
	code     int
	text     string
	category error
}

func newExitMarker(code int, text string, category error) *ExitMarker {
	return &ExitMarker{code: code, text: text, category: category}
}

func (m *ExitMarker) Error() string { return m.text }

func (m *ExitMarker) Unwrap() error { return m.category }

// Code returns the exit status associated with the marker.
func (m *ExitMarker) Code() int { return m.code }

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ExitCode maps a run error to the process exit status. Errors without an
// exit marker report the generic status 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var marker *ExitMarker
	if errors.As(err, &marker) {
		return marker.code
	}
	return 1
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
