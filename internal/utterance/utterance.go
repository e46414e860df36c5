package utterance

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Gender labels produced by speaker classification.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

var genderCaser = cases.Title(language.English)

// NormalizeGender maps engine and classifier labels such as "male" or
// "FEMALE" onto the canonical title-cased form.
func NormalizeGender(value string) string {
	return genderCaser.String(strings.ToLower(strings.TrimSpace(value)))
}

// Tracked field names reported by ModifiedFields.
const (
	FieldAssignedVoice = "assigned_voice"
	FieldSpeakerID     = "speaker_id"
)

// Utterance is one detected speech or silence segment with its full
// transformation state. Fields prefixed with an underscore in JSON are
// fingerprints maintained by the Store.
type Utterance struct {
	ID             int     `json:"id,omitempty"`
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
	SpeakerID      string  `json:"speaker_id,omitempty"`
	Gender         string  `json:"gender,omitempty"`
	Text           string  `json:"text"`
	ForDubbing     bool    `json:"for_dubbing"`
	TranslatedText string  `json:"translated_text,omitempty"`
	AssignedVoice  string  `json:"assigned_voice,omitempty"`
	Speed          float64 `json:"speed,omitempty"`
	Path           string  `json:"path,omitempty"`
	DubbedPath     string  `json:"dubbed_path,omitempty"`

	Hash              string `json:"_hash,omitempty"`
	AssignedVoiceHash string `json:"_assigned_voice_hash,omitempty"`
	SpeakerIDHash     string `json:"_speaker_id_hash,omitempty"`
}

// Duration returns the length of the source segment in seconds.
func (u Utterance) Duration() float64 {
	return u.End - u.Start
}

// EffectiveSpeed returns the playback multiplier, defaulting to 1.0.
func (u Utterance) EffectiveSpeed() float64 {
	if u.Speed <= 0 {
		return 1.0
	}
	return u.Speed
}

// Artifacts holds the paths produced by preprocessing. They are persisted so
// an update run can rebuild the final audio without repeating the split.
type Artifacts struct {
	VideoFile      string `json:"video_file"`
	AudioFile      string `json:"audio_file"`
	VocalsFile     string `json:"audio_vocals_file"`
	BackgroundFile string `json:"audio_background_file"`
}

// Metadata records the run options an update run must replay.
type Metadata struct {
	SourceLanguage    string `json:"source_language"`
	OriginalSubtitles bool   `json:"original_subtitles"`
	DubbedSubtitles   bool   `json:"dubbed_subtitles"`
}

// Document is the persisted bundle for one target language.
type Document struct {
	Utterances []Utterance `json:"utterances"`
	Artifacts  Artifacts   `json:"PreprocessingArtifacts"`
	Metadata   Metadata    `json:"metadata"`
}

// Clone returns a shallow copy of the slice so stages can derive a new list
// without touching their input.
func Clone(utterances []Utterance) []Utterance {
	if utterances == nil {
		return nil
	}
	out := make([]Utterance, len(utterances))
	copy(out, utterances)
	return out
}

// FieldSet is a set of utterance field names.
type FieldSet map[string]struct{}

// Has reports whether name is in the set.
func (s FieldSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}
