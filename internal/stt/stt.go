package stt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"opendub/internal/fileutil"
	langpkg "opendub/internal/language"
	"opendub/internal/logging"
	"opendub/internal/parallel"
	"opendub/internal/textutil"
	"opendub/internal/utterance"
)

const (
	// MinDurationSeconds is the shortest clip sent for transcription; shorter
	// clips make Whisper-family models hallucinate.
	MinDurationSeconds = 0.5
	// LanguageProbeSeconds is how much of the input feeds language detection.
	LanguageProbeSeconds = 30.0
	// TranscriptionFileName is written by DumpTranscriptions.
	TranscriptionFileName = "transcription.txt"
)

// ErrSpeakerInfoMismatch is returned by AddSpeakerInfo when the speaker list
// does not line up with the utterances.
var ErrSpeakerInfoMismatch = errors.New("speaker info length does not match utterances")

// Backend transcribes audio files.
type Backend interface {
	Name() string
	// Transcribe returns the text spoken in path. language is ISO 639-1.
	Transcribe(ctx context.Context, path, language string) (string, error)
	// DetectLanguage returns the ISO 639-3 code spoken in path.
	DetectLanguage(ctx context.Context, path string) (string, error)
	// Languages lists supported source languages as ISO 639-3 codes.
	Languages() []string
}

// HeadExtractor cuts the leading seconds of a media file into a WAV probe.
type HeadExtractor interface {
	ExtractHead(ctx context.Context, src, dst string, seconds float64) error
}

// SpeakerInfo pairs an utterance's speaker with the classified gender.
type SpeakerInfo struct {
	SpeakerID string
	Gender    string
}

// Options tunes the service.
type Options struct {
	MinDuration float64
	Workers     int
	// WorkDir holds temporary probe files; defaults to the OS temp dir.
	WorkDir string
}

// Service drives a Backend over utterance lists.
type Service struct {
	backend    Backend
	classifier GenderClassifier
	media      HeadExtractor
	opts       Options
	logger     *slog.Logger
}

// NewService constructs an STT service.
func NewService(backend Backend, classifier GenderClassifier, media HeadExtractor, opts Options, logger *slog.Logger) *Service {
	if opts.MinDuration <= 0 {
		opts.MinDuration = MinDurationSeconds
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.WorkDir == "" {
		opts.WorkDir = os.TempDir()
	}
	return &Service{
		backend:    backend,
		classifier: classifier,
		media:      media,
		opts:       opts,
		logger:     logging.NewComponentLogger(logger, "stt"),
	}
}

// Backend returns the configured backend.
func (s *Service) Backend() Backend { return s.backend }

// SupportsLanguage reports whether the backend can transcribe language.
func (s *Service) SupportsLanguage(language string) bool {
	return langpkg.Contains(s.backend.Languages(), language)
}

// TranscribeUtterances fills Text and ForDubbing for every utterance. Clips
// shorter than the minimum duration are not sent to the backend. A failing
// clip is logged and left with empty text; only cancellation aborts the run.
func (s *Service) TranscribeUtterances(ctx context.Context, utterances []utterance.Utterance, sourceLanguage string) ([]utterance.Utterance, error) {
	iso1 := langpkg.ToISO2(sourceLanguage)
	if iso1 == "" {
		iso1 = strings.ToLower(strings.TrimSpace(sourceLanguage))
	}
	out := utterance.Clone(utterances)
	err := parallel.ForEach(ctx, len(out), s.opts.Workers, func(ctx context.Context, i int) {
		u := &out[i]
		text := ""
		if u.Duration() < s.opts.MinDuration {
			s.logger.Debug("skipping short clip",
				logging.Int("utterance_id", u.ID),
				logging.String("path", u.Path),
				logging.Float64("duration_seconds", u.Duration()),
			)
		} else {
			raw, err := s.backend.Transcribe(ctx, u.Path, iso1)
			if err != nil {
				logging.ErrorWithContext(s.logger, "transcription failed", "transcription_failed",
					logging.String("path", u.Path),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "the utterance is kept without text and will not be dubbed"),
				)
			} else {
				text = textutil.CollapseWhitespace(raw)
			}
		}
		u.Text = text
		u.ForDubbing = text != ""
		s.logger.Debug("transcribed clip",
			logging.String("path", u.Path),
			logging.String("text", text),
			logging.Bool("for_dubbing", u.ForDubbing),
		)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PredictGender classifies each speaker once, using that speaker's longest
// clip, and returns one SpeakerInfo per utterance in input order.
func (s *Service) PredictGender(ctx context.Context, utterances []utterance.Utterance) ([]SpeakerInfo, error) {
	genders := make(map[string]string)
	for _, sample := range LongestSamples(utterances) {
		gender, err := s.classifier.Classify(ctx, sample.Path)
		if err != nil {
			return nil, fmt.Errorf("classify speaker %s: %w", sample.SpeakerID, err)
		}
		genders[sample.SpeakerID] = utterance.NormalizeGender(gender)
		s.logger.Debug("speaker gender classified",
			logging.String("speaker_id", sample.SpeakerID),
			logging.String("gender", genders[sample.SpeakerID]),
			logging.String("sample", sample.Path),
		)
	}
	info := make([]SpeakerInfo, len(utterances))
	for i, u := range utterances {
		info[i] = SpeakerInfo{SpeakerID: u.SpeakerID, Gender: genders[u.SpeakerID]}
	}
	return info, nil
}

// Sample is the clip chosen to represent a speaker.
type Sample struct {
	SpeakerID string
	Path      string
	Duration  float64
}

// LongestSamples returns one sample per speaker in first-seen order. Each is
// the speaker's longest clip; on ties the earlier clip wins.
func LongestSamples(utterances []utterance.Utterance) []Sample {
	index := make(map[string]int)
	var samples []Sample
	for _, u := range utterances {
		d := u.Duration()
		i, ok := index[u.SpeakerID]
		if !ok {
			index[u.SpeakerID] = len(samples)
			samples = append(samples, Sample{SpeakerID: u.SpeakerID, Path: u.Path, Duration: d})
			continue
		}
		if d > samples[i].Duration {
			samples[i].Path = u.Path
			samples[i].Duration = d
		}
	}
	return samples
}

// AddSpeakerInfo copies speaker ids and genders onto the utterances.
func AddSpeakerInfo(utterances []utterance.Utterance, info []SpeakerInfo) ([]utterance.Utterance, error) {
	if len(utterances) != len(info) {
		return nil, fmt.Errorf("%w: %d utterances, %d entries", ErrSpeakerInfoMismatch, len(utterances), len(info))
	}
	out := utterance.Clone(utterances)
	for i := range out {
		out[i].SpeakerID = info[i].SpeakerID
		out[i].Gender = info[i].Gender
	}
	return out, nil
}

// DetectLanguage returns the ISO 639-3 language spoken in the first seconds
// of mediaPath.
func (s *Service) DetectLanguage(ctx context.Context, mediaPath string) (string, error) {
	probe, err := os.CreateTemp(s.opts.WorkDir, "language-probe-*.wav")
	if err != nil {
		return "", fmt.Errorf("detect language: %w", err)
	}
	probePath := probe.Name()
	_ = probe.Close()
	defer os.Remove(probePath)

	if err := s.media.ExtractHead(ctx, mediaPath, probePath, LanguageProbeSeconds); err != nil {
		return "", fmt.Errorf("detect language: extract probe: %w", err)
	}
	detected, err := s.backend.DetectLanguage(ctx, probePath)
	if err != nil {
		return "", fmt.Errorf("detect language: %w", err)
	}
	code := langpkg.ToISO3(detected)
	if code == "und" {
		return "", fmt.Errorf("detect language: unrecognized language %q", detected)
	}
	s.logger.Info("source language detected",
		logging.String(logging.FieldEventType, "language_detected"),
		logging.String("language", code),
		logging.String("backend", s.backend.Name()),
	)
	return code, nil
}

// DumpTranscriptions writes one line of source text per utterance into
// dir/transcription.txt and returns the path.
func DumpTranscriptions(dir string, utterances []utterance.Utterance) (string, error) {
	var b strings.Builder
	for _, u := range utterances {
		b.WriteString(u.Text)
		b.WriteByte('\n')
	}
	path := filepath.Join(dir, TranscriptionFileName)
	if err := fileutil.WriteFileAtomic(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("dump transcriptions: %w", err)
	}
	return path, nil
}
