package progress

import (
	"io"
	"os"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// scale is the bar total; engine progress fractions are mapped onto it.
const scale = 1000

// DefaultRefreshRate is how often the bar polls its source.
const DefaultRefreshRate = 150 * time.Millisecond

var spinner = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Source is the engine state a bar follows.
type Source interface {
	Progress() float64
	Status() string
	TakeRepaint() bool
}

// Options configures a Bar.
type Options struct {
	// Output receives the bar. Nil means stderr.
	Output io.Writer
	// Disabled renders nothing while still following the source.
	Disabled    bool
	RefreshRate time.Duration
}

// DefaultContainerOptions returns the mpb container options for opts.
func DefaultContainerOptions(opts Options) []mpb.ContainerOption {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.Disabled {
		out = nil
	}
	rate := opts.RefreshRate
	if rate <= 0 {
		rate = DefaultRefreshRate
	}
	return []mpb.ContainerOption{
		mpb.WithOutput(out),
		mpb.WithRefreshRate(rate),
	}
}

// DefaultBarOptions returns the bar layout: spinner, description, percentage
// and the source's status message.
func DefaultBarOptions(description string, src Source) []mpb.BarOption {
	return []mpb.BarOption{
		mpb.PrependDecorators(
			decor.Spinner(spinner, decor.WCSyncSpaceR),
			decor.Name(description, decor.WCSyncSpaceR),
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.Any(func(decor.Statistics) string { return src.Status() }, decor.WCSyncSpace),
		),
	}
}

// Bar mirrors an engine's progress fraction until the work it follows ends.
type Bar struct {
	src       Source
	rate      time.Duration
	container *mpb.Progress
	bar       *mpb.Bar
}

// New creates a bar following src.
func New(description string, src Source, opts Options) *Bar {
	container := mpb.New(DefaultContainerOptions(opts)...)
	rate := opts.RefreshRate
	if rate <= 0 {
		rate = DefaultRefreshRate
	}
	return &Bar{
		src:       src,
		rate:      rate,
		container: container,
		bar:       container.AddBar(scale, DefaultBarOptions(description, src)...),
	}
}

// Follow updates the bar whenever src requests a repaint, until done is
// closed. It then completes the bar when completed is true, or aborts it,
// and waits for the final render.
func (b *Bar) Follow(done <-chan struct{}, completed func() bool) {
	ticker := time.NewTicker(b.rate)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.update()
		case <-done:
			b.update()
			if completed == nil || completed() {
				b.bar.SetCurrent(scale)
			} else {
				b.bar.Abort(false)
			}
			b.container.Wait()
			return
		}
	}
}

// Current returns the bar position as a fraction.
func (b *Bar) Current() float64 {
	return float64(b.bar.Current()) / scale
}

func (b *Bar) update() {
	if !b.src.TakeRepaint() {
		return
	}
	b.bar.SetCurrent(fractionToCount(b.src.Progress()))
}

func fractionToCount(f float64) int64 {
	switch {
	case f <= 0:
		return 0
	case f >= 1:
		// Completion is decided by Follow.
		return scale - 1
	}
	return int64(f * scale)
}
