package report

import (
	"io"

	"github.com/vbauerster/mpb/v4"
	"github.com/vbauerster/mpb/v4/decor"
)

// ProgressBar draws audit progress on w.
type ProgressBar struct {
	p   *mpb.Progress
	bar *mpb.Bar
}

// NewProgressBar returns ProgressBar drawing on w, usually stderr.
func NewProgressBar(w io.Writer) *ProgressBar {
	return &ProgressBar{p: mpb.New(mpb.WithOutput(w))}
}

// Start adds a bar for total entries.
func (b *ProgressBar) Start(total int) {
	if total == 0 {
		return
	}

	name := "Auditing hostnames"
	b.bar = b.p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DidentRight}),
			decor.CountersNoUnit("%d / %d", decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.OnComplete(
				decor.AverageETA(decor.ET_STYLE_GO, decor.WC{W: 4}), "done",
			),
		),
	)
}

// Done advances the bar by one entry.
func (b *ProgressBar) Done() {
	if b.bar != nil {
		b.bar.Increment()
	}
}

// Wait blocks until the bar is fully rendered. A run cut short
// aborts the bar instead of waiting for it to fill.
func (b *ProgressBar) Wait(completed bool) {
	if b.bar != nil && !completed {
		b.bar.Abort(false)
	}
	b.p.Wait()
}
