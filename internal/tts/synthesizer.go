package tts

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"opendub/internal/logging"
	"opendub/internal/textutil"
	"opendub/internal/utterance"
)

// AudioProcessor post-processes synthesized clips.
type AudioProcessor interface {
	RemoveTrailingSilence(ctx context.Context, path string) error
	AdjustSpeed(ctx context.Context, path string, speed float64) error
	Duration(ctx context.Context, path string) (float64, error)
}

// DubOptions scopes one DubUtterances call.
type DubOptions struct {
	OutputDir string
	Language  string
	// AudioFile bounds the slot of the last spoken utterance.
	AudioFile string
	// Modified restricts synthesis to these ids; nil means every utterance.
	Modified map[int]struct{}
	// Progress, when set, is called after each selected utterance.
	Progress func(done, total int)
}

// Synthesizer renders utterances with an Engine and fits each clip into its
// slot.
type Synthesizer struct {
	engine   Engine
	audio    AudioProcessor
	maxSpeed float64
	logger   *slog.Logger
}

// NewSynthesizer constructs a Synthesizer; maxSpeed <= 0 selects DefaultMaxSpeed.
func NewSynthesizer(engine Engine, audio AudioProcessor, maxSpeed float64, logger *slog.Logger) *Synthesizer {
	if maxSpeed <= 0 {
		maxSpeed = DefaultMaxSpeed
	}
	return &Synthesizer{
		engine:   engine,
		audio:    audio,
		maxSpeed: maxSpeed,
		logger:   logging.NewComponentLogger(logger, "tts"),
	}
}

// Engine returns the synthesis engine.
func (s *Synthesizer) Engine() Engine { return s.engine }

// DubUtterances synthesizes every selected utterance marked for dubbing and
// records its dubbed_path and speed. Utterances outside opts.Modified are
// returned unchanged. Utterances not marked for dubbing keep their source
// chunk as dubbed_path.
func (s *Synthesizer) DubUtterances(ctx context.Context, utterances []utterance.Utterance, opts DubOptions) ([]utterance.Utterance, error) {
	out := utterance.Clone(utterances)
	selected := make([]int, 0, len(out))
	for i := range out {
		if opts.Modified != nil {
			if _, ok := opts.Modified[out[i].ID]; !ok {
				continue
			}
		}
		selected = append(selected, i)
	}

	audioDuration := -1.0
	for done, i := range selected {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		u := &out[i]
		if u.ForDubbing {
			if audioDuration < 0 {
				audioDuration = s.audioDuration(ctx, opts.AudioFile)
			}
			slotEnd := NextSpeechStart(utterances, u.Start, u.End, audioDuration)
			if err := s.dubOne(ctx, u, slotEnd, opts); err != nil {
				return nil, fmt.Errorf("utterance %d: %w", u.ID, err)
			}
		} else {
			u.DubbedPath = u.Path
			if u.DubbedPath == "" {
				u.DubbedPath = chunkName("chunk", u.Start, u.End)
			}
		}
		if opts.Progress != nil {
			opts.Progress(done+1, len(selected))
		}
	}
	return out, nil
}

// dubOne renders u and fits it into [u.Start, slotEnd).
func (s *Synthesizer) dubOne(ctx context.Context, u *utterance.Utterance, slotEnd float64, opts DubOptions) error {
	output := DubbedFileName(opts.OutputDir, *u)
	req := Request{
		Text:     u.TranslatedText,
		Voice:    u.AssignedVoice,
		Language: opts.Language,
		Output:   output,
		Speed:    DefaultSpeed,
	}
	if err := s.render(ctx, req); err != nil {
		return err
	}

	dubbed, err := s.audio.Duration(ctx, output)
	if err != nil {
		return fmt.Errorf("measure dubbed clip: %w", err)
	}
	required := TargetSpeed(dubbed, slotEnd-u.Start)
	speed, adjust := ClampSpeed(required, s.maxSpeed)
	s.logger.Debug("speed fit",
		logging.Int("utterance_id", u.ID),
		logging.Float64("dubbed_seconds", dubbed),
		logging.Float64("slot_seconds", slotEnd-u.Start),
		logging.Float64("required_speed", required),
		logging.Float64("speed", speed),
		logging.Bool("native_speed", s.engine.SupportsSpeed()),
	)

	if adjust {
		if s.engine.SupportsSpeed() {
			req.Speed = speed
			if err := s.render(ctx, req); err != nil {
				return fmt.Errorf("re-synthesize at %.1fx: %w", speed, err)
			}
		} else if err := s.audio.AdjustSpeed(ctx, output, speed); err != nil {
			return fmt.Errorf("adjust speed: %w", err)
		}
	}
	u.Speed = speed
	u.DubbedPath = output
	return nil
}

func (s *Synthesizer) render(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.Voice) == "" {
		return fmt.Errorf("no voice assigned")
	}
	if err := s.engine.Synthesize(ctx, req); err != nil {
		return fmt.Errorf("%s synthesis: %w", s.engine.Name(), err)
	}
	if err := s.audio.RemoveTrailingSilence(ctx, req.Output); err != nil {
		return fmt.Errorf("trim trailing silence: %w", err)
	}
	return nil
}

func (s *Synthesizer) audioDuration(ctx context.Context, path string) float64 {
	if path == "" {
		return 0
	}
	d, err := s.audio.Duration(ctx, path)
	if err != nil {
		logging.WarnWithContext(s.logger, "could not read audio duration", "audio_duration_unavailable",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "last utterance slot falls back to its own end time"),
		)
		return 0
	}
	return d
}

// DubbedFileName returns where the synthesized clip for u is written.
func DubbedFileName(dir string, u utterance.Utterance) string {
	if u.Path != "" {
		base := filepath.Base(u.Path)
		return filepath.Join(dir, "dubbed_"+strings.TrimSuffix(base, filepath.Ext(base))+".mp3")
	}
	return filepath.Join(dir, chunkName("dubbed_chunk", u.Start, u.End))
}

func chunkName(prefix string, start, end float64) string {
	return fmt.Sprintf("%s_%s_%s.mp3", prefix, textutil.FormatSeconds(start), textutil.FormatSeconds(end))
}
