package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const pcmFormat = 1

// ErrInvalidWAV reports a file that is not a readable PCM WAV container.
var ErrInvalidWAV = errors.New("invalid wav file")

// ReadWAV decodes a PCM WAV file into memory.
func ReadWAV(path string) (*goaudio.IntBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if buf.SourceBitDepth == 0 {
		buf.SourceBitDepth = int(dec.BitDepth)
	}
	return buf, nil
}

// WriteWAV encodes buf as a PCM WAV file at path.
func WriteWAV(path string, buf *goaudio.IntBuffer) error {
	if buf == nil || buf.Format == nil {
		return fmt.Errorf("write %s: buffer has no format", path)
	}
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(f, buf.Format.SampleRate, bitDepth, buf.Format.NumChannels, pcmFormat)
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	return f.Close()
}

// WAVDuration returns the playback length of a WAV file in seconds.
func WAVDuration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}
	d, err := dec.Duration()
	if err != nil {
		return 0, fmt.Errorf("duration %s: %w", path, err)
	}
	return d.Seconds(), nil
}

// BufferDuration returns the playback length of buf.
func BufferDuration(buf *goaudio.IntBuffer) time.Duration {
	if buf == nil || buf.Format == nil || buf.Format.SampleRate == 0 || buf.Format.NumChannels == 0 {
		return 0
	}
	frames := len(buf.Data) / buf.Format.NumChannels
	return time.Duration(float64(frames) / float64(buf.Format.SampleRate) * float64(time.Second))
}

func maxSample(bitDepth int) int {
	if bitDepth <= 0 {
		bitDepth = 16
	}
	return int(math.Pow(2, float64(bitDepth-1))) - 1
}
