package tts

import (
	"context"
	"errors"
	"testing"

	"opendub/internal/utterance"
)

func TestTargetSpeed(t *testing.T) {
	tests := []struct {
		name      string
		dubbed    float64
		reference float64
		want      float64
	}{
		{name: "needs speedup", dubbed: 90, reference: 60, want: 1.5},
		{name: "fits with slack", dubbed: 90, reference: 91, want: 1.0},
		{name: "fits comfortably", dubbed: 90, reference: 95, want: 1.0},
		{name: "rounds up", dubbed: 10.1, reference: 10, want: 1.1},
		{name: "exact fit", dubbed: 10, reference: 10, want: 1.0},
		{name: "no reference", dubbed: 10, reference: 0, want: 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TargetSpeed(tt.dubbed, tt.reference); got != tt.want {
				t.Fatalf("TargetSpeed(%v, %v) = %v, want %v", tt.dubbed, tt.reference, got, tt.want)
			}
		})
	}
}

func TestClampSpeed(t *testing.T) {
	if speed, adjust := ClampSpeed(1.0, 1.3); speed != 1.0 || adjust {
		t.Fatalf("ClampSpeed(1.0) = %v, %v", speed, adjust)
	}
	if speed, adjust := ClampSpeed(1.2, 1.3); speed != 1.2 || !adjust {
		t.Fatalf("ClampSpeed(1.2) = %v, %v", speed, adjust)
	}
	if speed, adjust := ClampSpeed(1.5, 1.3); speed != 1.3 || !adjust {
		t.Fatalf("ClampSpeed(1.5) = %v, %v", speed, adjust)
	}
}

func TestNextSpeechStart(t *testing.T) {
	us := []utterance.Utterance{
		{ID: 1, Start: 0, End: 1, ForDubbing: true},
		{ID: 2, Start: 1.5, End: 2, ForDubbing: false},
		{ID: 3, Start: 2.5, End: 3, ForDubbing: true},
	}
	if got := NextSpeechStart(us, 0, 1, 4); got != 2.5 {
		t.Fatalf("next start = %v, want 2.5 (skipping utterances not for dubbing)", got)
	}
	if got := NextSpeechStart(us, 2.5, 3, 4); got != 4 {
		t.Fatalf("last utterance = %v, want audio duration 4", got)
	}
	if got := NextSpeechStart(us, 2.5, 3, 0); got != 3 {
		t.Fatalf("without audio duration = %v, want end 3", got)
	}
}

func TestNextSpeechStartUnsorted(t *testing.T) {
	us := []utterance.Utterance{
		{ID: 1, Start: 0, End: 1, ForDubbing: true},
		{ID: 2, Start: 5, End: 6, ForDubbing: true},
		{ID: 3, Start: 2, End: 3, ForDubbing: true},
		{ID: 4, Start: 1.2, End: 1.8, ForDubbing: false},
	}
	if got := NextSpeechStart(us, 0, 1.5, 10); got != 2 {
		t.Fatalf("next start = %v, want 2 (nearest later start, not list order)", got)
	}
	if got := NextSpeechStart(us, 2, 3, 10); got != 5 {
		t.Fatalf("next start after 2 = %v, want 5", got)
	}
}

func TestRegionVoices(t *testing.T) {
	voices := []Voice{
		{Name: "a", Gender: "Male", Region: "en-IN"},
		{Name: "b", Gender: "Female", Region: "en-US"},
	}
	all, err := RegionVoices(voices, "")
	if err != nil || len(all) != 2 {
		t.Fatalf("empty region = %v, %v", all, err)
	}
	in, err := RegionVoices(voices, "IN")
	if err != nil || len(in) != 1 || in[0].Name != "a" {
		t.Fatalf("region IN = %v, %v", in, err)
	}
	if _, err := RegionVoices(voices, "GB"); !errors.Is(err, ErrNoRegionVoices) {
		t.Fatalf("region GB err = %v, want ErrNoRegionVoices", err)
	}
}

func TestAssignVoicesRegionIN(t *testing.T) {
	voices := []Voice{
		{Name: "us-male", Gender: "Male", Region: "US"},
		{Name: "uk-female", Gender: "Female", Region: "UK"},
		{Name: "in-male", Gender: "Male", Region: "IN"},
		{Name: "in-female", Gender: "Female", Region: "IN"},
	}
	eligible, err := RegionVoices(voices, "IN")
	if err != nil {
		t.Fatalf("RegionVoices: %v", err)
	}
	us := []utterance.Utterance{{SpeakerID: "s1", Gender: "Male"}}
	got := AssignVoices(us, eligible)
	if got["s1"] != "in-male" {
		t.Fatalf("assignment = %v, want s1 -> in-male", got)
	}
}

func TestAssignVoicesPrecedence(t *testing.T) {
	voices := []Voice{
		{Name: "m1", Gender: "male"},
		{Name: "m2", Gender: "Male"},
		{Name: "f1", Gender: "Female"},
	}
	us := []utterance.Utterance{
		{SpeakerID: "s1", Gender: "Male"},
		{SpeakerID: "s2", Gender: "Male"},
		{SpeakerID: "s1", Gender: "Male"},
		{SpeakerID: "s3", Gender: "Male"},
		{SpeakerID: "s4", Gender: "Female"},
		{SpeakerID: "s5", Gender: ""},
	}
	got := AssignVoices(us, voices)
	want := Assignment{"s1": "m1", "s2": "m2", "s3": "m1", "s4": "f1", "s5": "m1"}
	for speaker, voice := range want {
		if got[speaker] != voice {
			t.Fatalf("speaker %s = %q, want %q (all: %v)", speaker, got[speaker], voice, got)
		}
	}
	if len(AssignVoices(us, nil)) != 0 {
		t.Fatalf("expected no assignment without voices")
	}
}

type fixedTracker map[int]utterance.FieldSet

func (f fixedTracker) ModifiedFields(u utterance.Utterance) utterance.FieldSet { return f[u.ID] }

func fields(names ...string) utterance.FieldSet {
	set := utterance.FieldSet{}
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func TestUpdateUtteranceMetadata(t *testing.T) {
	us := []utterance.Utterance{
		{ID: 1, SpeakerID: "s1", AssignedVoice: "old", Speed: 1.2},
		{ID: 2, SpeakerID: "s2", AssignedVoice: "manual", Speed: 1.2},
		{ID: 3, SpeakerID: "s2", AssignedVoice: "keep", Speed: 1.2},
	}
	assignment := Assignment{"s1": "v1", "s2": "v2"}

	full := UpdateUtteranceMetadata(us, assignment, nil)
	for _, u := range full {
		if u.AssignedVoice != assignment[u.SpeakerID] || u.Speed != 1.0 {
			t.Fatalf("full run left %+v", u)
		}
	}

	tracker := fixedTracker{
		1: fields(utterance.FieldSpeakerID),
		2: fields(utterance.FieldSpeakerID, utterance.FieldAssignedVoice),
	}
	got := UpdateUtteranceMetadata(us, assignment, tracker)
	if got[0].AssignedVoice != "v1" || got[0].Speed != 1.0 {
		t.Fatalf("speaker change = %+v, want reassigned voice", got[0])
	}
	if got[1].AssignedVoice != "manual" || got[1].Speed != 1.2 {
		t.Fatalf("manual voice = %+v, want preserved", got[1])
	}
	if got[2].AssignedVoice != "keep" {
		t.Fatalf("untouched = %+v, want preserved", got[2])
	}
	if us[0].AssignedVoice != "old" {
		t.Fatalf("input mutated")
	}
}

func TestKnownSpeakerKeepsVoiceAfterSpeakerEdit(t *testing.T) {
	voices := []Voice{{Name: "m1", Gender: "Male"}, {Name: "m2", Gender: "Male"}, {Name: "m3", Gender: "Male"}}
	saved := []utterance.Utterance{
		{ID: 1, SpeakerID: "s2", Gender: "Male", AssignedVoice: "m1"},
		{ID: 2, SpeakerID: "s2", Gender: "Male", AssignedVoice: "m2"},
		{ID: 3, SpeakerID: "s3", Gender: "Male"},
	}
	modified := []utterance.Utterance{saved[0], saved[2]}

	known := KnownVoices(saved, utterance.IDs(modified))
	if len(known) != 1 || known["s2"] != "m2" {
		t.Fatalf("known = %v, want s2 -> m2", known)
	}
	assignment := AssignVoicesWith(modified, voices, known)
	if assignment["s2"] != "m2" {
		t.Fatalf("s2 = %q, want existing voice m2", assignment["s2"])
	}
	if assignment["s3"] != "m1" {
		t.Fatalf("s3 = %q, want first unused voice m1", assignment["s3"])
	}

	got := UpdateUtteranceMetadata(modified, assignment, fixedTracker{1: fields(utterance.FieldSpeakerID)})
	if got[0].AssignedVoice != "m2" {
		t.Fatalf("edited utterance voice = %q, want its new speaker's m2", got[0].AssignedVoice)
	}
}

type stubVoices struct {
	stubEngine
	voices []Voice
	err    error
}

func (s *stubVoices) Voices(context.Context, string) ([]Voice, error) { return s.voices, s.err }

func TestConfigureVoices(t *testing.T) {
	engine := &stubVoices{voices: []Voice{{Name: "x", Gender: "Female", Region: "ES"}}}
	us := []utterance.Utterance{{SpeakerID: "s1", Gender: "Female"}}
	got, err := ConfigureVoices(context.Background(), engine, us, nil, "cat", "ES", nil)
	if err != nil || got["s1"] != "x" {
		t.Fatalf("ConfigureVoices = %v, %v", got, err)
	}
	if _, err := ConfigureVoices(context.Background(), engine, us, nil, "cat", "MX", nil); !errors.Is(err, ErrNoRegionVoices) {
		t.Fatalf("err = %v, want ErrNoRegionVoices", err)
	}
}
