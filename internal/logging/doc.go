// Package logging assembles structured slog loggers and formatting helpers used
// across opendub.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so stage code can tag log lines with run
// IDs, stages, target languages and utterance IDs. Console output is colourised
// only when written to a terminal; log files always receive plain text. A no-op
// logger is provided for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the system.
package logging
