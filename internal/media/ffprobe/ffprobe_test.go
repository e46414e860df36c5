package ffprobe

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{Duration: "123.45"},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
}

func TestDurationFallsBackToStreams(t *testing.T) {
	result := Result{Streams: []Stream{{Duration: "3.5"}, {Duration: "4.25"}, {Duration: "n/a"}}}
	if got := result.DurationSeconds(); got != 4.25 {
		t.Fatalf("expected longest stream duration 4.25, got %v", got)
	}
	bad := Result{Format: Format{Duration: "bad"}}
	if !math.IsNaN(bad.DurationSeconds()) {
		t.Fatalf("expected NaN, got %v", bad.DurationSeconds())
	}
}

func TestProberInspectDecodesOutput(t *testing.T) {
	var gotArgs []string
	prober := NewProber("").WithRunner(func(_ context.Context, binary string, args ...string) ([]byte, error) {
		if binary != "ffprobe" {
			t.Fatalf("unexpected binary %q", binary)
		}
		gotArgs = args
		return []byte(`{"streams":[{"index":0,"codec_type":"audio","sample_rate":"44100","channels":2}],"format":{"duration":"4.000000"}}`), nil
	})

	duration, err := prober.Duration(context.Background(), "/tmp/clip.mp3")
	if err != nil {
		t.Fatalf("Duration returned error: %v", err)
	}
	if duration != 4 {
		t.Fatalf("expected 4s, got %v", duration)
	}
	if joined := strings.Join(gotArgs, " "); !strings.HasSuffix(joined, "-- /tmp/clip.mp3") {
		t.Fatalf("unexpected args %q", joined)
	}
}

func TestProberErrors(t *testing.T) {
	failing := NewProber("ffprobe").WithRunner(func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	})
	if _, err := failing.Inspect(context.Background(), "x.mp3"); err == nil {
		t.Fatal("expected runner error")
	}
	if _, err := failing.Inspect(context.Background(), " "); err == nil {
		t.Fatal("expected empty path error")
	}

	empty := NewProber("ffprobe").WithRunner(func(context.Context, string, ...string) ([]byte, error) {
		return []byte(`{"streams":[],"format":{}}`), nil
	})
	if _, err := empty.Duration(context.Background(), "x.mp3"); err == nil {
		t.Fatal("expected error for missing duration")
	}
}
