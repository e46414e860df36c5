package stt

import (
	"context"
	"math"
	"testing"

	goaudio "github.com/go-audio/audio"

	"opendub/internal/media/audio"
	"opendub/internal/utterance"
)

type toneConverter struct{ freq float64 }

func (c toneConverter) ToPCM(_ context.Context, _, dst string, rate, channels int) error {
	n := rate / 2
	data := make([]int, n*channels)
	for i := 0; i < n; i++ {
		data[i] = int(8000 * math.Sin(2*math.Pi*c.freq*float64(i)/float64(rate)))
	}
	return audio.WriteWAV(dst, &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	})
}

func TestPitchClassifier(t *testing.T) {
	tests := []struct {
		freq float64
		want string
	}{
		{110, utterance.GenderMale},
		{220, utterance.GenderFemale},
		{0, utterance.GenderMale},
	}
	for _, tt := range tests {
		c := NewPitchClassifier(toneConverter{freq: tt.freq}, t.TempDir(), nil)
		got, err := c.Classify(context.Background(), "clip.mp3")
		if err != nil {
			t.Fatalf("Classify(%v) returned error: %v", tt.freq, err)
		}
		if got != tt.want {
			t.Errorf("Classify(%v Hz) = %s, want %s", tt.freq, got, tt.want)
		}
	}
}
