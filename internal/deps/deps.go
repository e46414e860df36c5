package deps

import (
	"os/exec"
	"strings"
)

// Requirement is an executable the pipeline launches.
type Requirement struct {
	Name     string
	Command  string
	Purpose  string
	Optional bool
}

// Status is the lookup outcome for one Requirement.
type Status struct {
	Requirement
	// Path is the resolved executable when Available.
	Path      string
	Available bool
	Detail    string
}

// Lookup resolves every requirement on PATH.
func Lookup(requirements []Requirement) []Status {
	statuses := make([]Status, len(requirements))
	for i, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		statuses[i] = lookup(req)
	}
	return statuses
}

func lookup(req Requirement) Status {
	status := Status{Requirement: req}
	if req.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(req.Command)
	if err != nil {
		status.Detail = req.Command + " not found on PATH"
		return status
	}
	status.Path = path
	status.Available = true
	return status
}

// Missing filters statuses down to required executables that did not
// resolve.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if s.Optional || s.Available {
			continue
		}
		out = append(out, s)
	}
	return out
}
