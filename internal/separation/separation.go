// Package separation isolates the vocal stem of the extracted audio with
// Demucs so the background can be reused under the dubbed voices.
package separation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"opendub/internal/fileutil"
	"opendub/internal/logging"
	"opendub/internal/media/ffmpeg"
	"opendub/internal/services"
)

const (
	// DefaultModel is the Demucs model used when none is configured.
	DefaultModel = "htdemucs"
	vocalsStem   = "vocals.mp3"
	noVocalsStem = "no_vocals.mp3"
)

// Config selects how Demucs is launched.
type Config struct {
	// Launcher runs Command through a package runner such as uvx. Empty runs
	// Command directly.
	Launcher string
	Command  string
	Model    string
	// Device is "cpu" or "cuda".
	Device string
}

// Result holds the separated stems.
type Result struct {
	Vocals     string
	Background string
}

// Separator runs Demucs two-stem separation.
type Separator struct {
	cfg    Config
	run    ffmpeg.CommandRunner
	logger *slog.Logger
}

// New constructs a Separator.
func New(cfg Config, logger *slog.Logger) *Separator {
	if strings.TrimSpace(cfg.Command) == "" {
		cfg.Command = "demucs"
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	return &Separator{
		cfg:    cfg,
		run:    ffmpeg.DefaultCommandRunner,
		logger: logging.NewComponentLogger(logger, "separation"),
	}
}

// WithCommandRunner overrides process execution (for testing).
func (s *Separator) WithCommandRunner(run ffmpeg.CommandRunner) *Separator {
	if run != nil {
		s.run = run
	}
	return s
}

// OutputPaths returns where Demucs writes the stems of audioFile under outDir.
func (s *Separator) OutputPaths(audioFile, outDir string) Result {
	base := filepath.Base(audioFile)
	dir := filepath.Join(outDir, s.cfg.Model, strings.TrimSuffix(base, filepath.Ext(base)))
	return Result{
		Vocals:     filepath.Join(dir, vocalsStem),
		Background: filepath.Join(dir, noVocalsStem),
	}
}

// Separate splits audioFile into vocals and background under outDir.
func (s *Separator) Separate(ctx context.Context, audioFile, outDir string) (Result, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("ensure separation dir: %w", err)
	}
	name, args := s.command(audioFile, outDir)
	s.logger.Info("separating vocals",
		logging.String(logging.FieldEventType, "separation_start"),
		logging.String("model", s.cfg.Model),
		logging.String("device", s.device()),
		logging.String("audio_file", audioFile),
	)
	started := time.Now()
	if err := s.run(ctx, name, args...); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "preprocessing", "demucs", "vocal separation failed", err)
	}
	result := s.OutputPaths(audioFile, outDir)
	for _, path := range []string{result.Vocals, result.Background} {
		if !fileutil.Exists(path) {
			return Result{}, services.Wrap(services.ErrExternalTool, "preprocessing", "demucs",
				fmt.Sprintf("expected stem %s was not produced", filepath.Base(path)), nil)
		}
	}
	s.logger.Info("vocals separated",
		logging.String(logging.FieldEventType, "separation_complete"),
		logging.String("vocals", result.Vocals),
		logging.String("background", result.Background),
		logging.Duration("duration", time.Since(started)),
	)
	return result, nil
}

func (s *Separator) device() string {
	if s.cfg.Device == "" {
		return "cpu"
	}
	return s.cfg.Device
}

func (s *Separator) command(audioFile, outDir string) (string, []string) {
	args := []string{
		"--two-stems", "vocals",
		"-n", s.cfg.Model,
		"-d", s.device(),
		"--mp3",
		"-o", outDir,
		audioFile,
	}
	if launcher := strings.TrimSpace(s.cfg.Launcher); launcher != "" {
		return launcher, append([]string{s.cfg.Command}, args...)
	}
	return s.cfg.Command, args
}
