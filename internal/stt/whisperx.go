package stt

import (
	"context"
	"fmt"
	"os"

	langpkg "opendub/internal/language"
	"opendub/internal/services/whisperx"
)

// WhisperX transcribes locally through the WhisperX CLI.
type WhisperX struct {
	svc     *whisperx.Service
	workDir string
}

// NewWhisperX wraps svc; scratch output goes under workDir.
func NewWhisperX(svc *whisperx.Service, workDir string) *WhisperX {
	return &WhisperX{svc: svc, workDir: workDir}
}

// Name identifies the backend in logs.
func (w *WhisperX) Name() string { return "whisperx" }

// Languages lists the Whisper language set.
func (w *WhisperX) Languages() []string { return langpkg.WhisperLanguages() }

// Transcribe runs WhisperX on a single clip.
func (w *WhisperX) Transcribe(ctx context.Context, path, language string) (string, error) {
	outDir, err := os.MkdirTemp(w.workDir, "whisperx-*")
	if err != nil {
		return "", fmt.Errorf("whisperx scratch dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	result, err := w.svc.Transcribe(ctx, path, outDir, language)
	if err != nil {
		return "", err
	}
	return result.Text(), nil
}

// DetectLanguage lets WhisperX identify the language of path.
func (w *WhisperX) DetectLanguage(ctx context.Context, path string) (string, error) {
	outDir, err := os.MkdirTemp(w.workDir, "whisperx-*")
	if err != nil {
		return "", fmt.Errorf("whisperx scratch dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	return w.svc.DetectLanguage(ctx, path, outDir)
}
