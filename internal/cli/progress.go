package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/mwhitford/sortinghat/internal/model"
	"github.com/mwhitford/sortinghat/internal/service"
)

// ProgressRenderer draws a terminal progress bar from engine progress
// callbacks. Callbacks may arrive from multiple goroutines.
type ProgressRenderer struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
	mu     sync.Mutex
	last   int
}

// NewProgressRenderer creates a renderer writing to w.
func NewProgressRenderer(w io.Writer) *ProgressRenderer {
	return &ProgressRenderer{writer: w}
}

// Callback returns the ProgressFunc to hand to the engine.
func (r *ProgressRenderer) Callback() service.ProgressFunc {
	return func(p model.Progress) {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.bar == nil {
			r.bar = r.newBar(p.Total)
		}

		// Progress is cumulative; the bar wants deltas.
		delta := p.Processed - r.last
		if delta <= 0 {
			return
		}
		r.last = p.Processed

		if err := r.bar.Add(delta); err != nil {
			slog.Warn("failed to update progress bar", "error", err)
		}
	}
}

// Finish terminates the bar line.
func (r *ProgressRenderer) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bar != nil {
		if err := r.bar.Finish(); err != nil {
			slog.Warn("failed to finish progress bar", "error", err)
		}
	}
}

func (r *ProgressRenderer) newBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Classifying contacts...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(r.writer); err != nil {
				slog.Warn("failed to write newline after progress bar", "error", err)
			}
		}),
	)
}
