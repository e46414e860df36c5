package subtitles

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"opendub/internal/logging"
	"opendub/internal/utterance"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{2, "00:00:02,000"},
		{61.2349, "00:01:01,234"},
		{3725.0019, "01:02:05,001"},
		{-1, "00:00:00,000"},
	}
	for _, tt := range tests {
		if got := FormatTimestamp(tt.seconds); got != tt.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestWriteOriginalAndDubbed(t *testing.T) {
	dir := t.TempDir()
	utterances := []utterance.Utterance{
		{ID: 1, Start: 0.5, End: 1.25, Text: "Hello", TranslatedText: "Hola"},
		{ID: 2, Start: 2, End: 3.5, Text: "World", TranslatedText: "Món"},
	}

	path, err := Write(dir, FileName("eng"), utterances, Original)
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	data, _ := os.ReadFile(path)
	want := "1\n00:00:00,500 --> 00:00:01,250\nHello\n\n2\n00:00:02,000 --> 00:00:03,500\nWorld\n\n"
	if string(data) != want {
		t.Fatalf("unexpected original srt:\n%s", data)
	}

	dubbed, err := Write(dir, FileName("CAT"), utterances, Dubbed)
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if filepath.Base(dubbed) != "cat.srt" {
		t.Fatalf("unexpected file name %q", dubbed)
	}
	data, _ = os.ReadFile(dubbed)
	if !strings.Contains(string(data), "Hola") || strings.Contains(string(data), "Hello") {
		t.Fatalf("dubbed srt should carry translations:\n%s", data)
	}
	count, err := CountCues(dubbed)
	if err != nil || count != 2 {
		t.Fatalf("expected 2 cues, got %d (%v)", count, err)
	}
}

func TestMuxSubtitlesReplacesVideo(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "dubbed_video_cat.mp4")
	srtA := filepath.Join(dir, "eng.srt")
	srtB := filepath.Join(dir, "cat.srt")
	for _, p := range []string{video, srtA, srtB} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	var captured []string
	muxer := NewMuxer("ffmpeg", logging.NewNop()).WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		captured = append([]string{name}, args...)
		return os.WriteFile(args[len(args)-1], []byte("muxed"), 0o644)
	})
	result, err := muxer.MuxSubtitles(context.Background(), MuxRequest{
		VideoPath: video,
		Tracks:    []Track{{Path: srtA, Language: "en"}, {Path: srtB, Language: "cat"}},
	})
	if err != nil {
		t.Fatalf("MuxSubtitles returned error: %v", err)
	}
	if strings.Join(result.Languages, ",") != "eng,cat" {
		t.Fatalf("unexpected languages %v", result.Languages)
	}
	joined := strings.Join(captured, " ")
	for _, want := range []string{"-map 0", "-map 1", "-map 2", "-metadata:s:s:0 language=eng", "-metadata:s:s:1 language=cat", "-c:s mov_text"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in %q", want, joined)
		}
	}
	data, _ := os.ReadFile(video)
	if string(data) != "muxed" {
		t.Fatalf("video was not replaced: %q", data)
	}
}

func TestMuxSubtitlesFailureKeepsVideo(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "v.mp4")
	srt := filepath.Join(dir, "cat.srt")
	_ = os.WriteFile(video, []byte("orig"), 0o644)
	_ = os.WriteFile(srt, []byte("x"), 0o644)

	muxer := NewMuxer("", logging.NewNop()).WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("exit status 1")
	})
	if _, err := muxer.MuxSubtitles(context.Background(), MuxRequest{VideoPath: video, Tracks: []Track{{Path: srt, Language: "ca"}}}); err == nil {
		t.Fatal("expected error")
	}
	data, _ := os.ReadFile(video)
	if string(data) != "orig" {
		t.Fatalf("video modified on failure: %q", data)
	}
	if _, err := muxer.MuxSubtitles(context.Background(), MuxRequest{VideoPath: video}); err == nil {
		t.Fatal("expected error without tracks")
	}
}
