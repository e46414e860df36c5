// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, target languages and
//     utterance IDs for logging.
//   - Structured error markers plus the Wrap helper. Fatal conditions carry an
//     exit status so scripted callers can tell failure causes apart.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
