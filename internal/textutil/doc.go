// Package textutil provides small text helpers shared by the pipeline:
// whitespace normalization of transcriptions, file name sanitization for
// input videos and the timestamp format embedded in chunk file names.
package textutil
