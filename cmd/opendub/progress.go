package main

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// stageProgress draws one progress bar per pipeline stage on out.
type stageProgress struct {
	out io.Writer

	mu    sync.Mutex
	stage string
	bar   *progressbar.ProgressBar
}

func newStageProgress(out io.Writer) *stageProgress {
	return &stageProgress{out: out}
}

// Update moves the bar for stage to done of total, starting a new bar when
// the stage changes.
func (p *stageProgress) Update(stage string, done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil || p.stage != stage {
		p.finishLocked()
		p.stage = stage
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription(stage),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(p.out, "\n") }),
		)
	}
	_ = p.bar.Set(done)
}

// Close completes the current bar, if any.
func (p *stageProgress) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finishLocked()
}

func (p *stageProgress) finishLocked() {
	if p.bar == nil || p.bar.IsFinished() {
		return
	}
	_ = p.bar.Finish()
}
