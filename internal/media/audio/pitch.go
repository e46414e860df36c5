package audio

import (
	"math"
	"sort"

	goaudio "github.com/go-audio/audio"
)

const (
	minPitchHz      = 60
	maxPitchHz      = 400
	pitchFrameSecs  = 0.04
	voicedThreshold = 0.3
	silenceRMS      = 0.01
)

// EstimatePitch returns the median fundamental frequency in Hz across the
// voiced frames of buf, or 0 when no voiced frame is found.
func EstimatePitch(buf *goaudio.IntBuffer) float64 {
	if buf == nil || buf.Format == nil || buf.Format.SampleRate == 0 {
		return 0
	}
	mono := toMonoFloat(buf)
	rate := buf.Format.SampleRate
	frame := int(pitchFrameSecs * float64(rate))
	minLag := rate / maxPitchHz
	maxLag := rate / minPitchHz
	if frame <= maxLag {
		frame = maxLag + 1
	}

	var pitches []float64
	for start := 0; start+frame <= len(mono); start += frame / 2 {
		if f0 := framePitch(mono[start:start+frame], rate, minLag, maxLag); f0 > 0 {
			pitches = append(pitches, f0)
		}
	}
	if len(pitches) == 0 {
		return 0
	}
	sort.Float64s(pitches)
	return pitches[len(pitches)/2]
}

func framePitch(frame []float64, rate, minLag, maxLag int) float64 {
	var energy float64
	for _, v := range frame {
		energy += v * v
	}
	if math.Sqrt(energy/float64(len(frame))) < silenceRMS {
		return 0
	}
	norms := make([]float64, maxLag+1)
	bestCorr := 0.0
	for lag := minLag; lag <= maxLag && lag < len(frame); lag++ {
		var corr, e1, e2 float64
		for i := 0; i+lag < len(frame); i++ {
			corr += frame[i] * frame[i+lag]
			e1 += frame[i] * frame[i]
			e2 += frame[i+lag] * frame[i+lag]
		}
		if e1 == 0 || e2 == 0 {
			continue
		}
		norms[lag] = corr / math.Sqrt(e1*e2)
		bestCorr = math.Max(bestCorr, norms[lag])
	}
	if bestCorr < voicedThreshold {
		return 0
	}
	// The first peak close to the best one avoids picking a multiple of the period.
	bestLag := 0
	for lag := minLag; lag <= maxLag && lag < len(frame); lag++ {
		if norms[lag] < 0.95*bestCorr {
			continue
		}
		if lag+1 < len(norms) && norms[lag+1] > norms[lag] {
			continue
		}
		bestLag = lag
		break
	}
	if bestLag == 0 {
		return 0
	}
	return float64(rate) / float64(bestLag)
}

func toMonoFloat(buf *goaudio.IntBuffer) []float64 {
	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}
	scale := float64(maxSample(buf.SourceBitDepth) + 1)
	out := make([]float64, len(buf.Data)/channels)
	for i := range out {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		out[i] = sum / float64(channels) / scale
	}
	return out
}
