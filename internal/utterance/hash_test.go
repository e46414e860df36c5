package utterance

import "testing"

func sampleUtterances() []Utterance {
	return []Utterance{
		{Start: 1.0, End: 2.5, SpeakerID: "SPEAKER_00", Gender: GenderMale, Text: "Hello", ForDubbing: true, TranslatedText: "Hola", AssignedVoice: "onyx", Speed: 1.0, Path: "chunk_1.0_2.5.mp3"},
		{Start: 3.0, End: 5.0, SpeakerID: "SPEAKER_01", Gender: GenderFemale, Text: "World", ForDubbing: true, TranslatedText: "Mundo", AssignedVoice: "nova", Speed: 1.0, Path: "chunk_3.0_5.0.mp3"},
	}
}

func TestHashExcludesFingerprintFields(t *testing.T) {
	u := sampleUtterances()[0]
	base := Hash(u)
	u.Hash = "something"
	u.AssignedVoiceHash = "other"
	u.SpeakerIDHash = "third"
	if got := Hash(u); got != base {
		t.Fatalf("fingerprint fields changed hash: %s != %s", got, base)
	}
	if len(base) != 64 {
		t.Fatalf("expected sha256 hex digest, got %q", base)
	}
}

func TestHashRoundTripAfterSave(t *testing.T) {
	hashed := WithHashes(AssignIDs(sampleUtterances()))
	for _, u := range hashed {
		if Hash(u) != u.Hash {
			t.Fatalf("recomputed hash differs for id %d", u.ID)
		}
	}
}

func TestHashIsIdempotent(t *testing.T) {
	first := WithHashes(AssignIDs(sampleUtterances()))
	second := WithHashes(first)
	for i := range first {
		if first[i].Hash != second[i].Hash {
			t.Fatalf("hash for id %d changed between saves", first[i].ID)
		}
	}
}

func TestGetModified(t *testing.T) {
	hashed := WithHashes(AssignIDs(sampleUtterances()))
	if modified := GetModified(hashed); len(modified) != 0 {
		t.Fatalf("expected no modified utterances, got %d", len(modified))
	}

	hashed[1].TranslatedText = "Mon"
	modified := GetModified(hashed)
	if len(modified) != 1 || modified[0].ID != 2 {
		t.Fatalf("expected only id 2 modified, got %+v", modified)
	}
}

func TestGetModifiedTreatsUnsavedAsModified(t *testing.T) {
	if got := GetModified(sampleUtterances()); len(got) != 2 {
		t.Fatalf("expected unsaved utterances to be modified, got %d", len(got))
	}
}

func TestModifiedFields(t *testing.T) {
	saved := WithHashes(AssignIDs(sampleUtterances()))[0]

	tests := []struct {
		name   string
		mutate func(*Utterance)
		want   []string
	}{
		{name: "unchanged", mutate: func(*Utterance) {}, want: nil},
		{name: "voice", mutate: func(u *Utterance) { u.AssignedVoice = "echo" }, want: []string{FieldAssignedVoice}},
		{name: "speaker", mutate: func(u *Utterance) { u.SpeakerID = "SPEAKER_05" }, want: []string{FieldSpeakerID}},
		{name: "both", mutate: func(u *Utterance) { u.SpeakerID = "SPEAKER_05"; u.AssignedVoice = "echo" }, want: []string{FieldAssignedVoice, FieldSpeakerID}},
		{name: "untracked", mutate: func(u *Utterance) { u.TranslatedText = "Buenas" }, want: nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u := saved
			tc.mutate(&u)
			got := ModifiedFields(u)
			if len(got) != len(tc.want) {
				t.Fatalf("ModifiedFields = %v, want %v", got, tc.want)
			}
			for _, name := range tc.want {
				if !got.Has(name) {
					t.Fatalf("expected %s in %v", name, got)
				}
			}
		})
	}
}

func TestModifiedFieldsWithoutStoredHash(t *testing.T) {
	u := Utterance{Start: 0, End: 1, AssignedVoice: "nova"}
	got := ModifiedFields(u)
	if !got.Has(FieldAssignedVoice) || got.Has(FieldSpeakerID) {
		t.Fatalf("unexpected fields %v", got)
	}
}
