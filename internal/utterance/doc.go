// Package utterance owns the data model that carries one spoken segment
// through the dubbing pipeline, plus its persistence and change detection.
//
// A Store writes the utterance list, the preprocessing artifacts and the run
// metadata to a per-target-language JSON document. Every save fingerprints each
// utterance (a SHA-256 over its content fields with sorted keys) and keeps
// per-field fingerprints for assigned_voice and speaker_id. A later update run
// compares those fingerprints with the current values to find the utterances a
// user edited and, for voice precedence, which of the tracked fields changed.
//
// Edit directives (update/delete by id) are applied with ApplyEdits; only a
// fixed whitelist of fields may be overwritten.
package utterance
