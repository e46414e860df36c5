package tts

import (
	"math"

	"opendub/internal/utterance"
)

// TargetSpeed returns the playback rate needed to fit a clip of dubbed
// seconds into reference seconds. The ratio is rounded up to one decimal
// so any overshoot speeds the clip up; ratios at or below 1 return
// DefaultSpeed because clips are never slowed down.
func TargetSpeed(dubbed, reference float64) float64 {
	if reference <= 0 || dubbed <= 0 {
		return DefaultSpeed
	}
	// The epsilon keeps exact tenths such as 1.5 from rounding up to 1.6.
	// It only swallows overshoots below 1e-10 of the ratio, well under a
	// nanosecond for any real clip.
	speed := math.Ceil(dubbed/reference*10-1e-9) / 10
	if speed <= DefaultSpeed {
		return DefaultSpeed
	}
	return speed
}

// ClampSpeed limits speed to max. The bool reports whether the clip needs
// adjusting at all.
func ClampSpeed(speed, max float64) (float64, bool) {
	if speed <= DefaultSpeed {
		return DefaultSpeed, false
	}
	if max > 0 && speed > max {
		speed = max
	}
	return speed, true
}

// NextSpeechStart returns the end of the slot available to a clip that
// starts at start: the nearest later start among utterances marked for
// dubbing, else audioDuration when known, else end. utterances need not be
// sorted.
func NextSpeechStart(utterances []utterance.Utterance, start, end, audioDuration float64) float64 {
	next, found := 0.0, false
	for _, u := range utterances {
		if u.Start <= start || !u.ForDubbing {
			continue
		}
		if !found || u.Start < next {
			next, found = u.Start, true
		}
	}
	if found {
		return next
	}
	if audioDuration > 0 {
		return audioDuration
	}
	return end
}
