package utterance

import "testing"

func TestNormalizeGender(t *testing.T) {
	for input, want := range map[string]string{
		"male":     GenderMale,
		" FEMALE ": GenderFemale,
		"Male":     GenderMale,
		"":         "",
	} {
		if got := NormalizeGender(input); got != want {
			t.Errorf("NormalizeGender(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestEffectiveSpeedDefaults(t *testing.T) {
	if got := (Utterance{}).EffectiveSpeed(); got != 1.0 {
		t.Fatalf("expected 1.0, got %v", got)
	}
	if got := (Utterance{Speed: 1.2}).EffectiveSpeed(); got != 1.2 {
		t.Fatalf("expected 1.2, got %v", got)
	}
	if got := (Utterance{Start: 1, End: 3.5}).Duration(); got != 2.5 {
		t.Fatalf("expected 2.5, got %v", got)
	}
}
