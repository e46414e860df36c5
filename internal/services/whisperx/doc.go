// Package whisperx runs WhisperX through uvx for the three jobs the dubbing
// pipeline hands it: diarized segmentation of the source audio,
// transcription of individual utterance chunks, and spoken language
// detection.
//
// WhisperX writes a JSON document per input; the package parses it into
// Segments carrying text, timing and, when diarization ran, the speaker
// label.
package whisperx
