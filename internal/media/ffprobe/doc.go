// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Prober: runs a configured ffprobe binary
//   - Result: parsed ffprobe output containing streams and format metadata
//
// The pipeline uses it to validate inputs and to measure the duration of
// extracted and synthesized audio when deciding how much a dubbed clip must
// be sped up.
package ffprobe
