// Package logs reads the opendub log file for the `opendub logs` command.
//
// Tail returns the last N lines (optionally only those mentioning one run id)
// together with the byte offset reached, and Follow polls from that offset
// until the context is cancelled.
package logs
