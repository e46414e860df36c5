package stageexec

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sys/unix"

	"opendub/internal/logging"
	"opendub/internal/services"
)

// Timing is the measured cost of one stage.
type Timing struct {
	Name     string
	Duration time.Duration
	// MaxRSSKB is the peak resident set size of the process after the stage.
	MaxRSSKB int64
}

// Recorder runs pipeline stages in order and keeps their timings.
type Recorder struct {
	logger  *slog.Logger
	now     func() time.Time
	rss     func() int64
	started time.Time
	timings []Timing
}

// NewRecorder constructs a Recorder; the clock starts immediately.
func NewRecorder(logger *slog.Logger) *Recorder {
	r := &Recorder{
		logger: logging.NewComponentLogger(logger, "stage"),
		now:    time.Now,
		rss:    maxRSSKB,
	}
	r.started = r.now()
	return r
}

// Run executes fn as the named stage. The stage name is attached to the
// context so loggers derived from it carry the stage field.
func (r *Recorder) Run(ctx context.Context, name string, fn func(context.Context) error) error {
	stageCtx := services.WithStage(ctx, name)
	stageLogger := logging.WithContext(stageCtx, r.logger)
	stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	begin := r.now()
	err := fn(stageCtx)
	timing := Timing{Name: name, Duration: r.now().Sub(begin), MaxRSSKB: r.rss()}
	r.timings = append(r.timings, timing)

	if err != nil {
		logging.ErrorWithContext(stageLogger, "stage failed", "stage_failure",
			logging.Duration("duration", timing.Duration),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "see the preceding log entries for the failing operation"),
		)
		return err
	}
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("duration", timing.Duration),
		logging.Int64("max_rss_kb", timing.MaxRSSKB),
	)
	return nil
}

// Timings returns the stages recorded so far.
func (r *Recorder) Timings() []Timing {
	out := make([]Timing, len(r.timings))
	copy(out, r.timings)
	return out
}

// Total returns the time elapsed since the recorder was created.
func (r *Recorder) Total() time.Duration {
	return r.now().Sub(r.started)
}

// Summary logs the total run time and the share each stage took.
func (r *Recorder) Summary() {
	total := r.Total()
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "stage_summary"),
		logging.Duration("total", total),
	}
	for _, t := range r.timings {
		attrs = append(attrs, logging.String(t.Name, fmt.Sprintf("%s (%.1f%%)", t.Duration.Round(time.Millisecond), Percent(t.Duration, total))))
	}
	r.logger.Info("run summary", logging.Args(attrs...)...)
}

// Percent returns part as a percentage of total.
func Percent(part, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func maxRSSKB() int64 {
	var usage unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &usage); err != nil {
		return 0
	}
	return int64(usage.Maxrss)
}
