package stt

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"opendub/internal/logging"
	"opendub/internal/media/audio"
	"opendub/internal/utterance"
)

// DefaultPitchThresholdHz separates typical male and female speaking pitch.
const DefaultPitchThresholdHz = 165.0

const classifierSampleRate = 16000

// GenderClassifier labels the speaker of an audio clip.
type GenderClassifier interface {
	Classify(ctx context.Context, path string) (string, error)
}

// PCMConverter decodes arbitrary audio into PCM WAV.
type PCMConverter interface {
	ToPCM(ctx context.Context, src, dst string, sampleRate, channels int) error
}

// PitchClassifier labels speakers by their median fundamental frequency.
type PitchClassifier struct {
	converter PCMConverter
	workDir   string
	threshold float64
	logger    *slog.Logger
}

// NewPitchClassifier constructs a classifier that decodes clips with converter.
func NewPitchClassifier(converter PCMConverter, workDir string, logger *slog.Logger) *PitchClassifier {
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &PitchClassifier{
		converter: converter,
		workDir:   workDir,
		threshold: DefaultPitchThresholdHz,
		logger:    logging.NewComponentLogger(logger, "gender"),
	}
}

// Classify returns utterance.GenderMale or utterance.GenderFemale. Clips with
// no voiced frames are labelled male.
func (c *PitchClassifier) Classify(ctx context.Context, path string) (string, error) {
	tmp, err := os.CreateTemp(c.workDir, "gender-*.wav")
	if err != nil {
		return "", fmt.Errorf("classify gender: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpPath)

	if err := c.converter.ToPCM(ctx, path, tmpPath, classifierSampleRate, 1); err != nil {
		return "", fmt.Errorf("classify gender: decode %s: %w", path, err)
	}
	buf, err := audio.ReadWAV(tmpPath)
	if err != nil {
		return "", fmt.Errorf("classify gender: %w", err)
	}
	return c.label(audio.EstimatePitch(buf), path), nil
}

func (c *PitchClassifier) label(pitch float64, path string) string {
	gender := utterance.GenderFemale
	reason := "pitch above threshold"
	switch {
	case pitch == 0:
		gender = utterance.GenderMale
		reason = "no voiced frames"
	case pitch < c.threshold:
		gender = utterance.GenderMale
		reason = "pitch below threshold"
	}
	attrs := append(logging.DecisionAttrs("speaker_gender", gender, reason),
		logging.String("path", path),
		logging.Float64("pitch_hz", pitch),
	)
	c.logger.Debug("gender decision", logging.Args(attrs...)...)
	return gender
}
