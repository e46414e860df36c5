package dubbing

import (
	"context"
	"time"

	"opendub/internal/history"
	"opendub/internal/logging"
	"opendub/internal/notifications"
	"opendub/internal/services"
)

func (d *Dubber) beginHistory(ctx context.Context, result *Result) {
	if d.comp.History == nil {
		return
	}
	_, err := d.comp.History.Begin(ctx, history.Run{
		ID:             result.RunID,
		Mode:           result.Mode,
		InputFile:      d.opts.InputFile,
		OutputDir:      d.opts.OutputDir,
		SourceLanguage: d.opts.SourceLanguage,
		TargetLanguage: d.opts.TargetLanguage,
		TTSEngine:      d.comp.TTS.Engine().Name(),
	})
	if err != nil {
		d.historyWarning(ctx, err)
	}
}

func (d *Dubber) finishHistory(ctx context.Context, result Result, runErr error) {
	if d.comp.History == nil {
		return
	}
	outcome := history.Outcome{
		Status:         history.StatusCompleted,
		SourceLanguage: result.SourceLanguage,
		Utterances:     result.Utterances,
		Modified:       result.Modified,
		OutputFile:     result.VideoFile,
	}
	if runErr != nil {
		outcome.Status = history.StatusFailed
		outcome.ErrorMessage = runErr.Error()
		outcome.ExitCode = services.ExitCode(runErr)
	}
	for _, t := range result.Timings {
		outcome.Stages = append(outcome.Stages, history.Stage{Name: t.Name, Duration: t.Duration, MaxRSSKB: t.MaxRSSKB})
	}
	// A cancelled run still gets its row closed.
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}
	if err := d.comp.History.Finish(ctx, result.RunID, outcome); err != nil {
		d.historyWarning(ctx, err)
	}
}

func (d *Dubber) historyWarning(ctx context.Context, err error) {
	logging.WarnWithContext(logging.WithContext(ctx, d.logger), "run history not recorded", "history_write_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "this run will be missing from opendub history"),
	)
}

func (d *Dubber) notify(ctx context.Context, result Result, total time.Duration, runErr error) {
	if d.comp.Notifier == nil {
		return
	}
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}
	summary := notifications.RunSummary{
		Mode:           string(result.Mode),
		InputFile:      d.opts.InputFile,
		TargetLanguage: d.opts.TargetLanguage,
		OutputFile:     result.VideoFile,
		Utterances:     result.Utterances,
		Modified:       result.Modified,
		Duration:       total,
	}
	var err error
	if runErr != nil {
		err = d.comp.Notifier.NotifyRunFailed(ctx, summary, runErr)
	} else {
		err = d.comp.Notifier.NotifyRunCompleted(ctx, summary)
	}
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, d.logger), "run notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "no ntfy message was delivered for this run"),
		)
	}
}
