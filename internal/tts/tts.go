package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"opendub/internal/logging"
	"opendub/internal/utterance"
)

const (
	// DefaultSpeed is the playback rate of an unadjusted clip.
	DefaultSpeed = 1.0
	// DefaultMaxSpeed caps speed-fit so speech stays intelligible.
	DefaultMaxSpeed = 1.3
)

// ErrNoRegionVoices reports a region filter that leaves no eligible voice.
var ErrNoRegionVoices = errors.New("no voices available for region")

// Voice is a synthesis voice offered by an engine.
type Voice struct {
	Name   string `json:"name"`
	Gender string `json:"gender"`
	Region string `json:"region,omitempty"`
}

// Request asks an engine to render Text into the MP3 file at Output.
type Request struct {
	Text     string
	Voice    string
	Language string
	Output   string
	Speed    float64
}

// Engine is a text-to-speech backend.
type Engine interface {
	Name() string
	// Voices lists the voices for an ISO 639-3 language.
	Voices(ctx context.Context, language string) ([]Voice, error)
	// Languages lists supported ISO 639-3 codes.
	Languages(ctx context.Context) ([]string, error)
	Synthesize(ctx context.Context, req Request) error
	// SupportsSpeed reports whether Request.Speed is honoured natively.
	SupportsSpeed() bool
}

// RegionVoices keeps voices whose region ends with region. An empty region
// keeps every voice; a filter that matches nothing is an error.
func RegionVoices(voices []Voice, region string) ([]Voice, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		return voices, nil
	}
	var out []Voice
	for _, v := range voices {
		if strings.HasSuffix(v.Region, region) {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w %q", ErrNoRegionVoices, region)
	}
	return out, nil
}

// Assignment maps speaker ids to voice names.
type Assignment map[string]string

// AssignVoices picks a voice for every speaker in first-seen order. A speaker
// gets the first unused voice of its gender, else the first voice of its
// gender even if already used, else the first voice of any gender.
func AssignVoices(utterances []utterance.Utterance, voices []Voice) Assignment {
	return AssignVoicesWith(utterances, voices, nil)
}

// AssignVoicesWith is AssignVoices starting from the known speaker voices.
// Known speakers keep their voice and their voices count as used.
func AssignVoicesWith(utterances []utterance.Utterance, voices []Voice, known Assignment) Assignment {
	assignment := make(Assignment, len(known))
	used := make(map[string]bool, len(known))
	for speaker, voice := range known {
		assignment[speaker] = voice
		used[voice] = true
	}
	for _, u := range utterances {
		if _, done := assignment[u.SpeakerID]; done {
			continue
		}
		name, ok := pickVoice(voices, u.Gender, used)
		if !ok {
			continue
		}
		assignment[u.SpeakerID] = name
		used[name] = true
	}
	return assignment
}

func pickVoice(voices []Voice, gender string, used map[string]bool) (string, bool) {
	for _, v := range voices {
		if !used[v.Name] && strings.EqualFold(v.Gender, gender) {
			return v.Name, true
		}
	}
	for _, v := range voices {
		if strings.EqualFold(v.Gender, gender) {
			return v.Name, true
		}
	}
	if len(voices) > 0 {
		return voices[0].Name, true
	}
	return "", false
}

// FieldTracker reports the tracked fields of an utterance that changed since
// the last save.
type FieldTracker interface {
	ModifiedFields(u utterance.Utterance) utterance.FieldSet
}

// UpdateUtteranceMetadata applies the speaker assignment. Without a tracker
// every utterance receives its speaker's voice and speed resets to
// DefaultSpeed. With a tracker, only utterances whose speaker_id changed
// without a manual assigned_voice edit are reassigned; a hand-picked voice
// always wins.
func UpdateUtteranceMetadata(utterances []utterance.Utterance, assignment Assignment, tracker FieldTracker) []utterance.Utterance {
	out := utterance.Clone(utterances)
	for i := range out {
		if tracker != nil {
			fields := tracker.ModifiedFields(out[i])
			if !fields.Has(utterance.FieldSpeakerID) || fields.Has(utterance.FieldAssignedVoice) {
				continue
			}
		}
		out[i].AssignedVoice = assignment[out[i].SpeakerID]
		out[i].Speed = DefaultSpeed
	}
	return out
}

// KnownVoices maps each speaker to the voice already carried by its
// utterances outside skip. The first voice seen for a speaker wins.
func KnownVoices(utterances []utterance.Utterance, skip map[int]struct{}) Assignment {
	known := make(Assignment)
	for _, u := range utterances {
		if _, ok := skip[u.ID]; ok || u.SpeakerID == "" || u.AssignedVoice == "" {
			continue
		}
		if _, seen := known[u.SpeakerID]; !seen {
			known[u.SpeakerID] = u.AssignedVoice
		}
	}
	return known
}

// ConfigureVoices loads the engine's voices for language, applies the region
// filter and assigns voices to speakers not already in known.
func ConfigureVoices(ctx context.Context, engine Engine, utterances []utterance.Utterance, known Assignment, language, region string, logger *slog.Logger) (Assignment, error) {
	voices, err := engine.Voices(ctx, language)
	if err != nil {
		return nil, fmt.Errorf("list %s voices: %w", engine.Name(), err)
	}
	eligible, err := RegionVoices(voices, region)
	if err != nil {
		return nil, err
	}
	assignment := AssignVoicesWith(utterances, eligible, known)
	if logger != nil {
		logger.Info("voices assigned",
			logging.String(logging.FieldEventType, "voices_assigned"),
			logging.String("engine", engine.Name()),
			logging.Int("speakers", len(assignment)),
			logging.Int("eligible_voices", len(eligible)),
			logging.Any("assignment", map[string]string(assignment)),
		)
	}
	return assignment, nil
}
