package history

import "time"

// Mode distinguishes full runs from incremental updates.
type Mode string

const (
	ModeDub    Mode = "dub"
	ModeUpdate Mode = "update"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one recorded invocation.
type Run struct {
	ID             string
	Mode           Mode
	Status         Status
	InputFile      string
	OutputDir      string
	SourceLanguage string
	TargetLanguage string
	TTSEngine      string
	Utterances     int
	Modified       int
	OutputFile     string
	ErrorMessage   string
	ExitCode       int
	StartedAt      time.Time
	FinishedAt     *time.Time
	Stages         []Stage
}

// Duration returns the wall time of a finished run, or zero.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Stage is the recorded timing of one pipeline stage.
type Stage struct {
	Name     string
	Duration time.Duration
	MaxRSSKB int64
}

// Outcome is what a run reports when it finishes.
type Outcome struct {
	Status         Status
	SourceLanguage string
	Utterances     int
	Modified       int
	OutputFile     string
	ErrorMessage   string
	ExitCode       int
	Stages         []Stage
}
