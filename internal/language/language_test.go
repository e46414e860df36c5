package language

import "testing"

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"eng", "en"},
		{"spa", "es"},
		{"fre", "fr"},
		{"cat", "ca"},
		{"ukr", "uk"},
		{"ces", "cs"},
		{"cze", "cs"},
		{"catalan", "ca"},
		{"GERMAN", "de"},
		// resolved through the CLDR registry
		{"swa", "sw"},
		{"", ""},
		{" ", ""},
		{"12", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ToISO2(tt.input); got != tt.expected {
				t.Errorf("ToISO2(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestToISO3(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "eng"},
		{"ca", "cat"},
		{"ger", "deu"},
		{"zh", "zho"},
		{"ro", "ron"},
		{"sw", "swa"},
		{"", "und"},
		{"12", "und"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ToISO3(tt.input); got != tt.expected {
				t.Errorf("ToISO3(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"cat", "Catalan"},
		{"es", "Spanish"},
		{"sw", "Swahili"},
		{"", "Unknown"},
		{"12", "12"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.input); got != tt.expected {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestEqualAndContains(t *testing.T) {
	if !Equal("ca", "cat") {
		t.Fatal("expected ca and cat to match")
	}
	if Equal("", "") {
		t.Fatal("empty codes must not match")
	}
	if !Contains([]string{"en", "es", "ca"}, "spa") {
		t.Fatal("expected spa to be found")
	}
	if Contains([]string{"en"}, "fra") {
		t.Fatal("unexpected match for fra")
	}
}

func TestWhisperLanguagesAreISO3(t *testing.T) {
	langs := WhisperLanguages()
	seen := map[string]bool{}
	for _, l := range langs {
		if len(l) != 3 {
			t.Fatalf("expected ISO 639-3 code, got %q", l)
		}
		seen[l] = true
	}
	for _, want := range []string{"eng", "cat", "spa", "jav"} {
		if !seen[want] {
			t.Fatalf("missing %s", want)
		}
	}
}
