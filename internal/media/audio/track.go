package audio

import (
	"fmt"
	"math"

	goaudio "github.com/go-audio/audio"
)

// Track is a silent PCM timeline onto which clips are overlaid at absolute
// offsets. All clips must share the track's sample rate and channel count.
type Track struct {
	buf *goaudio.IntBuffer
}

// NewTrack allocates a silent track of the given length.
func NewTrack(sampleRate, channels int, seconds float64) *Track {
	if seconds < 0 {
		seconds = 0
	}
	frames := int(math.Ceil(seconds * float64(sampleRate)))
	return &Track{buf: &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           make([]int, frames*channels),
		SourceBitDepth: 16,
	}}
}

// Overlay mixes clip into the track starting at offset seconds. Samples are
// summed and clipped to the 16-bit range; the track grows when the clip runs
// past its end.
func (t *Track) Overlay(clip *goaudio.IntBuffer, offset float64) error {
	if clip == nil || clip.Format == nil {
		return fmt.Errorf("overlay: clip has no format")
	}
	format := t.buf.Format
	if clip.Format.SampleRate != format.SampleRate || clip.Format.NumChannels != format.NumChannels {
		return fmt.Errorf("overlay: clip format %d Hz/%d ch does not match track %d Hz/%d ch",
			clip.Format.SampleRate, clip.Format.NumChannels, format.SampleRate, format.NumChannels)
	}
	if offset < 0 {
		offset = 0
	}

	data := clip.Data
	if depth := clip.SourceBitDepth; depth != 0 && depth != 16 {
		data = rescale(data, depth, 16)
	}

	start := int(math.Round(offset*float64(format.SampleRate))) * format.NumChannels
	end := start + len(data)
	if end > len(t.buf.Data) {
		grown := make([]int, end)
		copy(grown, t.buf.Data)
		t.buf.Data = grown
	}
	limit := maxSample(16)
	for i, sample := range data {
		mixed := t.buf.Data[start+i] + sample
		switch {
		case mixed > limit:
			mixed = limit
		case mixed < -limit-1:
			mixed = -limit - 1
		}
		t.buf.Data[start+i] = mixed
	}
	return nil
}

// Seconds returns the current length of the track.
func (t *Track) Seconds() float64 {
	return BufferDuration(t.buf).Seconds()
}

// Buffer exposes the underlying PCM buffer.
func (t *Track) Buffer() *goaudio.IntBuffer { return t.buf }

// Save writes the track as 16-bit PCM WAV.
func (t *Track) Save(path string) error {
	return WriteWAV(path, t.buf)
}

func rescale(data []int, from, to int) []int {
	out := make([]int, len(data))
	shift := from - to
	for i, v := range data {
		if shift > 0 {
			out[i] = v >> shift
		} else {
			out[i] = v << -shift
		}
	}
	return out
}
