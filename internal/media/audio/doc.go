// Package audio holds the in-process PCM helpers: WAV decode and encode, a
// timeline that dubbed clips are overlaid onto, and a pitch estimator used to
// guess speaker gender.
package audio
