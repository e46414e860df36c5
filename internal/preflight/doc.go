// Package preflight provides readiness checks for the external tools,
// credentials and servers that opendub depends on.
//
// These checks run in two contexts:
//   - Validate runs before a dub or update starts and returns the first
//     blocking problem as an exit-coded error, so a run never spends an hour
//     on separation only to fail at synthesis for want of an API key.
//   - The CLI "opendub check" command uses RunAll to display every check,
//     including network reachability, as a table.
package preflight
