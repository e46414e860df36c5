// Package translation translates utterance text from the source to the target
// language.
//
// Engines are an OpenAI-compatible chat model and an Apertium APy server.
// Service adds fixed-delay retries around every call and keeps utterance order
// when several workers run in parallel.
package translation
