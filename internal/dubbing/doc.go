// Package dubbing orchestrates a dubbing run: it wires the speech-to-text,
// translation and text-to-speech collaborators around the utterance store
// and renders the final audio and video.
//
// A full run (Dub) executes preprocessing, speech-to-text, translation,
// voice configuration, synthesis, persistence, postprocessing and cleaning
// strictly in that order. An update run (Update) reloads the saved
// utterances, applies optional edit directives and re-synthesizes only the
// utterances whose fingerprint no longer matches, then rebuilds the audio
// and video from the full list.
//
// Only one run may hold an output directory at a time; the lock is an
// advisory flock on a file inside the directory.
package dubbing
