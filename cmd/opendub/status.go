package main

import (
	"io"

	"github.com/fatih/color"
)

var (
	statusOK      = color.New(color.FgGreen)
	statusFailed  = color.New(color.FgRed, color.Bold)
	statusPending = color.New(color.FgYellow)
)

// colorStatus highlights run and check states on a terminal. Piped output
// and NO_COLOR get the bare label.
func colorStatus(out io.Writer, status string) string {
	if !isTerminal(out) {
		return status
	}
	switch status {
	case "ok", "completed":
		return statusOK.Sprint(status)
	case "FAIL", "failed":
		return statusFailed.Sprint(status)
	case "running":
		return statusPending.Sprint(status)
	default:
		return status
	}
}
