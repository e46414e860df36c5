// Package stt transcribes utterance clips, classifies speaker gender and
// detects the source language.
//
// A Service wraps one Backend (local WhisperX or the hosted OpenAI audio
// API). Transcription degrades per clip: a failing clip keeps empty text and
// is excluded from dubbing instead of aborting the run. Gender is classified
// once per speaker from that speaker's longest clip by a GenderClassifier,
// by default a pitch estimate over 16 kHz mono PCM.
package stt
