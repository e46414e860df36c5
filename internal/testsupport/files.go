package testsupport

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"

	"opendub/internal/media/audio"
)

// WriteFile creates path (and its parent) holding size filler bytes. A
// size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	writeBytes(t, path, bytes.Repeat([]byte{0x42}, int(max(size, 1))), 0o644)
}

// WriteScript creates an executable shell script running body.
func WriteScript(t testing.TB, path, body string) {
	t.Helper()
	writeBytes(t, path, []byte("#!/bin/sh\n"+body+"\n"), 0o755)
}

func writeBytes(t testing.TB, path string, data []byte, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteTone writes a 16-bit mono WAV holding a sine wave at freq Hz for the
// given number of seconds. A freq of zero writes silence.
func WriteTone(t testing.TB, path string, sampleRate int, freq, seconds float64) {
	t.Helper()

	n := int(float64(sampleRate) * seconds)
	data := make([]int, n)
	for i := range data {
		if freq > 0 {
			data[i] = int(8000 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
		}
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	writeBytes(t, path, nil, 0o644)
	if err := audio.WriteWAV(path, buf); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
}
