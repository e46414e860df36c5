// Package main hosts the opendub CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration, applies flag overrides,
// builds the engines the configuration selects and hands control to the
// dubbing orchestrator. Listing commands (utterances, voices, history) and
// diagnostics (check, config) read the same configuration so they report
// exactly what a run would use.
//
// Keep this package lean: functionality belongs in the internal packages and
// is surfaced here through flags and table rendering. Errors carrying an
// exit marker set the process status.
package main
